// internal/app/candidate_service.go
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

// CandidateService is the candidate generator: it (re)computes, for a set of
// touched events, whether each qualifies for each rule kind and upserts or
// deletes candidate rows accordingly. Attendance-affecting writes elsewhere
// in the system call RefreshCandidates with the events they touched.
type CandidateService struct {
	configRepo     notification.ConfigRepository
	candidateRepo  notification.CandidateRepository
	gatheringRead  gathering.Reader
	eventRepo      gathering.EventRepository
	attendanceRepo gathering.AttendanceRepository
	logger         *logrus.Entry
}

func NewCandidateService(
	cr notification.ConfigRepository,
	cd notification.CandidateRepository,
	gr gathering.Reader,
	er gathering.EventRepository,
	ar gathering.AttendanceRepository,
	logger *logrus.Entry,
) *CandidateService {
	return &CandidateService{
		configRepo:     cr,
		candidateRepo:  cd,
		gatheringRead:  gr,
		eventRepo:      er,
		attendanceRepo: ar,
		logger:         logger,
	}
}

// RefreshCandidates re-evaluates qualification for the given events. It is a
// no-op when no enabled config is active, and idempotent: re-running with
// unchanged underlying data produces no state change. Per-event failures are
// logged and do not abort the batch.
func (s *CandidateService) RefreshCandidates(ctx context.Context, eventIDs []string) error {
	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		if err == idb.ErrConfigNotFound {
			s.logger.Info("No active gathering config; candidate refresh skipped")
			return nil
		}
		return fmt.Errorf("failed to resolve active config: %w", err)
	}
	if !cfg.Enabled {
		s.logger.Info("Gathering config disabled; candidate refresh skipped")
		return nil
	}

	events, err := s.eventRepo.ListByIDs(ctx, eventIDs)
	if err != nil {
		return fmt.Errorf("failed to load events for refresh: %w", err)
	}

	now := time.Now()
	for _, ev := range events {
		if err := s.refreshEvent(ctx, cfg, ev, now); err != nil {
			s.logger.WithError(err).WithField("event_id", ev.ID).Error("Failed to refresh candidates for event")
		}
	}
	return nil
}

func (s *CandidateService) refreshEvent(ctx context.Context, cfg *notification.GatheringConfig, ev *gathering.Event, now time.Time) error {
	gatheringExists := true
	if _, err := s.gatheringRead.GetByID(ctx, ev.GatheringID); err != nil {
		if err != idb.ErrGatheringNotFound {
			return fmt.Errorf("failed to resolve gathering %s: %w", ev.GatheringID, err)
		}
		gatheringExists = false
	}

	count, err := s.attendanceRepo.CountForEvent(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("failed to count attendance for event %s: %w", ev.ID, err)
	}

	meetsThreshold := count >= cfg.MinAttendeesPerEvent
	notEnded := !ev.EndDate.Before(now)

	qualifies := map[notification.RuleKind]bool{
		notification.RuleUpcoming: gatheringExists && notEnded && meetsThreshold &&
			!ev.EndDate.After(now.AddDate(0, 0, cfg.UpcomingWindowDays)),
		notification.RuleReminder: gatheringExists && notEnded && meetsThreshold &&
			!ev.StartDate.Before(now) &&
			!ev.StartDate.After(now.AddDate(0, 0, cfg.ReminderDaysBefore)),
	}

	for _, kind := range []notification.RuleKind{notification.RuleUpcoming, notification.RuleReminder} {
		if qualifies[kind] {
			candidate := &notification.Candidate{
				RuleKind:       kind,
				GatheringID:    ev.GatheringID,
				EventID:        ev.ID,
				EventStartDate: ev.StartDate,
				EventEndDate:   ev.EndDate,
				AttendeeCount:  count,
			}
			if err := s.candidateRepo.Upsert(ctx, candidate); err != nil {
				return err
			}
			s.logger.WithFields(logrus.Fields{
				"rule_kind":      kind,
				"event_id":       ev.ID,
				"attendee_count": count,
			}).Debug("Candidate upserted")
		} else {
			if err := s.candidateRepo.DeleteByRuleAndEvent(ctx, kind, ev.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
