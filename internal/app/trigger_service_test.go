package app

import (
	"context"
	"testing"
	"time"

	"gathering_notification_service/internal/domain/notification"
)

func TestTriggerSkipReasons(t *testing.T) {
	now := time.Now()

	t.Run("missing config", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.trigger.Trigger(context.Background(), "g1", notification.RuleUpcoming)
		if err != nil {
			t.Fatalf("Trigger() error = %v", err)
		}
		if res.Action != ActionSkipped || res.Reason != ReasonConfigMissing {
			t.Errorf("got (%s, %s), want (%s, %s)", res.Action, res.Reason, ActionSkipped, ReasonConfigMissing)
		}
	})

	t.Run("disabled config", func(t *testing.T) {
		f := newFixture(t)
		params := defaultParams()
		params.Enabled = false
		f.addConfig(t, params)

		res, err := f.trigger.Trigger(context.Background(), "g1", notification.RuleUpcoming)
		if err != nil {
			t.Fatalf("Trigger() error = %v", err)
		}
		if res.Action != ActionSkipped || res.Reason != ReasonConfigDisabled {
			t.Errorf("got (%s, %s), want (%s, %s)", res.Action, res.Reason, ActionSkipped, ReasonConfigDisabled)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		f := newFixture(t)
		f.addConfig(t, defaultParams())
		f.addGathering("g1", "Riverside Courts", "")
		// Event in window, but below the attendee minimum.
		f.addEvent("e1", "g1", "Open Play", now.Add(48*time.Hour), now.Add(50*time.Hour))
		f.setAttendance("e1", "m1")

		res, err := f.trigger.Trigger(context.Background(), "g1", notification.RuleUpcoming)
		if err != nil {
			t.Fatalf("Trigger() error = %v", err)
		}
		if res.Action != ActionSkipped || res.Reason != ReasonNoCandidates {
			t.Errorf("got (%s, %s), want (%s, %s)", res.Action, res.Reason, ActionSkipped, ReasonNoCandidates)
		}
		if res.EventsTotal != 1 {
			t.Errorf("EventsTotal = %d, want 1", res.EventsTotal)
		}
	})
}

// The manual path bypasses the scheduled path's gating: a group that fails
// totalEventsThreshold still publishes.
func TestTriggerBypassesThresholdGating(t *testing.T) {
	now := time.Now()
	f := newFixture(t)
	params := defaultParams()
	params.TotalEventsThreshold = 5
	params.QualifiedEventsThreshold = 3
	f.addConfig(t, params)
	f.addGathering("g1", "Riverside Courts", "12 River St")
	f.addEvent("e1", "g1", "Open Play", now.Add(48*time.Hour), now.Add(50*time.Hour))
	f.setAttendance("e1", "m1", "m2", "m3", "m4")

	// The scheduled path refuses this group.
	if err := f.candidateSvc.RefreshCandidates(context.Background(), []string{"e1"}); err != nil {
		t.Fatalf("RefreshCandidates() error = %v", err)
	}
	if err := f.processor.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.recordRepo.records) != 0 {
		t.Fatalf("scheduled path published %d records, want 0 below threshold", len(f.recordRepo.records))
	}

	res, err := f.trigger.Trigger(context.Background(), "g1", notification.RuleUpcoming)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("Action = %s, want %s", res.Action, ActionCreated)
	}
	if res.CandidatesProcessed != 1 || res.EventsTotal != 1 || res.AttendeeTotal != 4 {
		t.Errorf("counts = (%d, %d, %d), want (1, 1, 4)",
			res.CandidatesProcessed, res.EventsTotal, res.AttendeeTotal)
	}
	if res.NotificationID == "" {
		t.Error("NotificationID is empty")
	}
	c := f.candidateRepo.get(notification.RuleUpcoming, "e1")
	if c.Status() != notification.StatusProcessed {
		t.Errorf("candidate Status() = %s, want %s", c.Status(), notification.StatusProcessed)
	}
}

func TestTriggerBumpsExistingRecord(t *testing.T) {
	now := time.Now()
	f := newFixture(t)
	f.addConfig(t, defaultParams())
	f.addGathering("g1", "Riverside Courts", "")
	f.addEvent("e1", "g1", "Open Play", now.Add(48*time.Hour), now.Add(50*time.Hour))
	f.setAttendance("e1", "m1", "m2", "m3")

	if err := f.candidateSvc.RefreshCandidates(context.Background(), []string{"e1"}); err != nil {
		t.Fatalf("RefreshCandidates() error = %v", err)
	}
	if err := f.processor.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.recordRepo.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.recordRepo.records))
	}
	recordID := f.recordRepo.records[0].ID
	sentBefore := f.recordRepo.records[0].SentAt

	// More attendance arrives; the operator re-triggers.
	f.setAttendance("e1", "m1", "m2", "m3", "m4", "m5")
	res, err := f.trigger.Trigger(context.Background(), "g1", notification.RuleUpcoming)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if res.Action != ActionUpdated {
		t.Fatalf("Action = %s, want %s", res.Action, ActionUpdated)
	}
	if res.NotificationID != recordID {
		t.Errorf("NotificationID = %s, want the existing record %s", res.NotificationID, recordID)
	}
	if len(f.recordRepo.records) != 1 {
		t.Errorf("records = %d, want 1 (updated in place)", len(f.recordRepo.records))
	}

	rec := f.recordRepo.records[0]
	if rec.Payload.AttendeeTotal != 5 {
		t.Errorf("AttendeeTotal = %d, want 5 after refresh", rec.Payload.AttendeeTotal)
	}
	if rec.SentAt.Before(sentBefore) {
		t.Errorf("SentAt = %v, want bumped to at least %v", rec.SentAt, sentBefore)
	}
	if len(f.recordRepo.cleared) != 1 || f.recordRepo.cleared[0] != recordID {
		t.Errorf("cleared read statuses = %v, want [%s]", f.recordRepo.cleared, recordID)
	}
}

func TestTriggerReminderUsesStartWindow(t *testing.T) {
	now := time.Now()
	f := newFixture(t)
	f.addConfig(t, defaultParams()) // reminderDaysBefore: 2
	f.addGathering("g1", "Riverside Courts", "")
	f.addEvent("e1", "g1", "Tournament", now.Add(24*time.Hour), now.Add(30*time.Hour))
	// Starts beyond the reminder window; must not be picked up.
	f.addEvent("e2", "g1", "Later Event", now.AddDate(0, 0, 5), now.AddDate(0, 0, 5).Add(2*time.Hour))
	f.setAttendance("e1", "m1", "m2", "m3")
	f.setAttendance("e2", "m1", "m2", "m3")

	res, err := f.trigger.Trigger(context.Background(), "g1", notification.RuleReminder)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("Action = %s, want %s", res.Action, ActionCreated)
	}
	if res.EventsTotal != 1 || res.CandidatesProcessed != 1 {
		t.Errorf("counts = (%d events, %d candidates), want (1, 1)", res.EventsTotal, res.CandidatesProcessed)
	}
	rec := f.recordRepo.records[0]
	if rec.Payload.RuleKind != notification.RuleReminder {
		t.Errorf("Payload.RuleKind = %s, want %s", rec.Payload.RuleKind, notification.RuleReminder)
	}
	if len(rec.Payload.Events) != 1 || rec.Payload.Events[0].ID != "e1" {
		t.Errorf("payload events = %+v, want only e1", rec.Payload.Events)
	}
}
