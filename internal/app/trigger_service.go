// internal/app/trigger_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"gathering_notification_service/internal/domain/gathering"
	"gathering_notification_service/internal/domain/notification"
	idb "gathering_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Skip reasons returned by the manual trigger.
const (
	ReasonConfigMissing  = "config_missing"
	ReasonConfigDisabled = "config_disabled"
	ReasonNoCandidates   = "no_candidates"
)

// TriggerResult is the structured outcome of a manual trigger call. The
// caller is never left uncertain whether a notification was published.
type TriggerResult struct {
	OK                  bool
	Action              PublishAction
	Reason              string
	NotificationID      string
	CandidatesProcessed int
	EventsTotal         int
	AttendeeTotal       int
}

// TriggerService is the operator-invoked path: it forces a fresh candidate
// pass for one (gathering, ruleKind) pair and publishes bypassing the
// scheduled path's window and threshold gating. Authentication is the
// caller's concern.
type TriggerService struct {
	configRepo    notification.ConfigRepository
	candidateSvc  *CandidateService
	candidateRepo notification.CandidateRepository
	eventRepo     gathering.EventRepository
	builder       *PayloadBuilder
	publisher     *Publisher
	logger        *logrus.Entry
}

func NewTriggerService(
	cr notification.ConfigRepository,
	cs *CandidateService,
	cd notification.CandidateRepository,
	er gathering.EventRepository,
	builder *PayloadBuilder,
	publisher *Publisher,
	logger *logrus.Entry,
) *TriggerService {
	return &TriggerService{
		configRepo:    cr,
		candidateSvc:  cs,
		candidateRepo: cd,
		eventRepo:     er,
		builder:       builder,
		publisher:     publisher,
		logger:        logger,
	}
}

// Trigger runs the forced pass. Skips (missing/disabled config, no
// candidates) come back as a typed result, not an error.
func (s *TriggerService) Trigger(ctx context.Context, gatheringID string, kind notification.RuleKind) (*TriggerResult, error) {
	triggerLogger := s.logger.WithFields(logrus.Fields{
		"rule_kind":    kind,
		"gathering_id": gatheringID,
	})
	triggerLogger.Info("Manual trigger invoked")

	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		if err == idb.ErrConfigNotFound {
			triggerLogger.Info("Manual trigger skipped: no active config")
			return &TriggerResult{OK: true, Action: ActionSkipped, Reason: ReasonConfigMissing}, nil
		}
		return nil, fmt.Errorf("failed to resolve active config: %w", err)
	}
	if !cfg.Enabled {
		triggerLogger.Info("Manual trigger skipped: config disabled")
		return &TriggerResult{OK: true, Action: ActionSkipped, Reason: ReasonConfigDisabled}, nil
	}

	now := time.Now()
	windowEnd := now.AddDate(0, 0, cfg.WindowDays(kind))
	var events []*gathering.Event
	if kind == notification.RuleReminder {
		events, err = s.eventRepo.ListStartingBetween(ctx, gatheringID, now, windowEnd)
	} else {
		events, err = s.eventRepo.ListEndingBetween(ctx, gatheringID, now, windowEnd)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load in-window events: %w", err)
	}

	eventIDs := make([]string, 0, len(events))
	for _, ev := range events {
		eventIDs = append(eventIDs, ev.ID)
	}
	// Forces fresh attendance counts before the publish decision.
	if err := s.candidateSvc.RefreshCandidates(ctx, eventIDs); err != nil {
		return nil, fmt.Errorf("failed to refresh candidates: %w", err)
	}

	candidates, err := s.candidateRepo.ListPendingByGathering(ctx, kind, gatheringID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending candidates: %w", err)
	}
	if len(candidates) == 0 {
		triggerLogger.Info("Manual trigger skipped: no pending candidates")
		return &TriggerResult{OK: true, Action: ActionSkipped, Reason: ReasonNoCandidates, EventsTotal: len(events)}, nil
	}

	payload, err := s.builder.Build(ctx, kind, gatheringID, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	// Window and threshold gating are deliberately bypassed here.
	action, rec, err := s.publisher.Publish(ctx, payload, true)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	if err := s.candidateRepo.MarkProcessed(ctx, ids, now); err != nil {
		return nil, fmt.Errorf("failed to mark candidates processed: %w", err)
	}

	triggerLogger.WithFields(logrus.Fields{
		"action":     action,
		"record_id":  rec.ID,
		"candidates": len(candidates),
	}).Info("Manual trigger completed")

	return &TriggerResult{
		OK:                  true,
		Action:              action,
		NotificationID:      rec.ID,
		CandidatesProcessed: len(candidates),
		EventsTotal:         len(events),
		AttendeeTotal:       payload.AttendeeTotal,
	}, nil
}
