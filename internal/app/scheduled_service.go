// internal/app/scheduled_service.go
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gathering_notification_service/internal/domain/gathering"
	"gathering_notification_service/internal/domain/notification"
	idb "gathering_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Processor is the automatic path: on each scheduled run it consumes pending
// candidates group by group, applying window and threshold gating before
// publishing through the shared dedup path.
//
// Run does not guard against a second process executing concurrently; the
// deployment must run a single instance (or hold an external lock around Run).
type Processor struct {
	configRepo    notification.ConfigRepository
	candidateRepo notification.CandidateRepository
	eventRepo     gathering.EventRepository
	builder       *PayloadBuilder
	publisher     *Publisher
	logger        *logrus.Entry
}

func NewProcessor(
	cr notification.ConfigRepository,
	cd notification.CandidateRepository,
	er gathering.EventRepository,
	builder *PayloadBuilder,
	publisher *Publisher,
	logger *logrus.Entry,
) *Processor {
	return &Processor{
		configRepo:    cr,
		candidateRepo: cd,
		eventRepo:     er,
		builder:       builder,
		publisher:     publisher,
		logger:        logger,
	}
}

type groupKey struct {
	Kind        notification.RuleKind
	GatheringID string
}

// Run processes all pending candidate groups. A failure in one group is
// logged and leaves that group pending for the next run; remaining groups
// are still processed.
func (p *Processor) Run(ctx context.Context) error {
	cfg, err := p.configRepo.GetActive(ctx)
	if err != nil {
		if err == idb.ErrConfigNotFound {
			p.logger.Info("No active gathering config; scheduled run skipped")
			return nil
		}
		return fmt.Errorf("failed to resolve active config: %w", err)
	}
	if !cfg.Enabled {
		p.logger.Info("Gathering config disabled; scheduled run skipped")
		return nil
	}

	pending, err := p.candidateRepo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending candidates: %w", err)
	}
	if len(pending) == 0 {
		p.logger.Debug("No pending candidates")
		return nil
	}

	groups := make(map[groupKey][]*notification.Candidate)
	for _, c := range pending {
		key := groupKey{Kind: c.RuleKind, GatheringID: c.GatheringID}
		groups[key] = append(groups[key], c)
	}
	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].GatheringID < keys[j].GatheringID
	})

	now := time.Now()
	for _, key := range keys {
		if err := p.processGroup(ctx, cfg, key, groups[key], now); err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"rule_kind":    key.Kind,
				"gathering_id": key.GatheringID,
			}).Error("Failed to process candidate group; left pending for retry")
		}
	}
	return nil
}

func (p *Processor) processGroup(ctx context.Context, cfg *notification.GatheringConfig, key groupKey, candidates []*notification.Candidate, now time.Time) error {
	groupLogger := p.logger.WithFields(logrus.Fields{
		"rule_kind":    key.Kind,
		"gathering_id": key.GatheringID,
		"candidates":   len(candidates),
	})

	ids := make([]int64, 0, len(candidates))
	earliest := candidates[0].RelevantDate()
	for _, c := range candidates {
		ids = append(ids, c.ID)
		if d := c.RelevantDate(); d.Before(earliest) {
			earliest = d
		}
	}

	// Window check. A group whose earliest relevant date has left the window
	// is a definitive miss: mark processed so it is not retried.
	windowEnd := now.AddDate(0, 0, cfg.WindowDays(key.Kind))
	if earliest.Before(now) || earliest.After(windowEnd) {
		groupLogger.WithField("earliest", earliest.Format(time.RFC3339)).Info("Group outside window; marking processed")
		return p.candidateRepo.MarkProcessed(ctx, ids, now)
	}

	// Threshold check. A miss leaves the group pending so it can qualify on
	// a future pass once more events or attendees show up.
	totalInWindow, err := p.countInWindow(ctx, key, now, windowEnd)
	if err != nil {
		return err
	}
	if totalInWindow < cfg.TotalEventsThreshold || len(candidates) < cfg.QualifiedEventsThreshold {
		groupLogger.WithFields(logrus.Fields{
			"total_in_window":  totalInWindow,
			"total_threshold":  cfg.TotalEventsThreshold,
			"qualified":        len(candidates),
			"qualified_thresh": cfg.QualifiedEventsThreshold,
		}).Info("Group below thresholds; left pending")
		return nil
	}

	payload, err := p.builder.Build(ctx, key.Kind, key.GatheringID, candidates)
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}
	action, _, err := p.publisher.Publish(ctx, payload, false)
	if err != nil {
		return err
	}
	groupLogger.WithField("action", action).Info("Group published")

	return p.candidateRepo.MarkProcessed(ctx, ids, now)
}

func (p *Processor) countInWindow(ctx context.Context, key groupKey, from, to time.Time) (int, error) {
	var events []*gathering.Event
	var err error
	if key.Kind == notification.RuleReminder {
		events, err = p.eventRepo.ListStartingBetween(ctx, key.GatheringID, from, to)
	} else {
		events, err = p.eventRepo.ListEndingBetween(ctx, key.GatheringID, from, to)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count in-window events: %w", err)
	}
	return len(events), nil
}
