// internal/app/payload_builder.go
package app

import (
	"context"
	"fmt"
	"time"

	"gathering_notification_service/internal/domain/gathering"
	"gathering_notification_service/internal/domain/notification"
)

const topAttendeeLimit = 6

// PayloadBuilder assembles the versioned, human-displayable summary stored in
// a notification record's metadata: gathering descriptive fields, the
// candidate events, the date range, the gathering-wide upcoming schedule
// count and the attendee aggregate.
type PayloadBuilder struct {
	gatheringRead  gathering.Reader
	eventRepo      gathering.EventRepository
	attendanceRepo gathering.AttendanceRepository
}

func NewPayloadBuilder(gr gathering.Reader, er gathering.EventRepository, ar gathering.AttendanceRepository) *PayloadBuilder {
	return &PayloadBuilder{gatheringRead: gr, eventRepo: er, attendanceRepo: ar}
}

// Build produces a payload for the given candidate rows. Per-event attendee
// counts come from the candidate rows themselves; names and windows from the
// event store. TotalUpcomingEvents is scoped to the gathering's full upcoming
// schedule, not the notification window, for user-facing framing.
func (b *PayloadBuilder) Build(ctx context.Context, kind notification.RuleKind, gatheringID string, candidates []*notification.Candidate) (*notification.Payload, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("cannot build payload without candidates")
	}

	g, err := b.gatheringRead.GetByID(ctx, gatheringID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gathering %s: %w", gatheringID, err)
	}

	eventIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		eventIDs = append(eventIDs, c.EventID)
	}
	events, err := b.eventRepo.ListByIDs(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for payload: %w", err)
	}
	namesByID := make(map[string]string, len(events))
	for _, ev := range events {
		namesByID[ev.ID] = ev.Name
	}

	now := time.Now()
	payload := &notification.Payload{
		Version:       notification.PayloadVersion,
		RuleKind:      kind,
		GatheringUID:  g.ID,
		GatheringName: g.Name,
		Location:      g.Location,
	}

	first := candidates[0].EventStartDate
	last := candidates[0].EventEndDate
	for _, c := range candidates {
		payload.Events = append(payload.Events, notification.EventSummary{
			ID:            c.EventID,
			Name:          namesByID[c.EventID],
			StartsAt:      c.EventStartDate,
			EndsAt:        c.EventEndDate,
			AttendeeCount: c.AttendeeCount,
		})
		if c.EventStartDate.Before(first) {
			first = c.EventStartDate
		}
		if c.EventEndDate.After(last) {
			last = c.EventEndDate
		}
	}
	payload.FirstDate = first
	payload.LastDate = last
	payload.DaysUntilStart = daysUntil(now, first)

	payload.TotalUpcomingEvents, err = b.eventRepo.CountUpcoming(ctx, gatheringID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	payload.AttendeeTotal, err = b.attendanceRepo.CountDistinctAttendees(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count distinct attendees: %w", err)
	}

	top, err := b.attendanceRepo.TopAttendees(ctx, eventIDs, topAttendeeLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top attendees: %w", err)
	}
	for _, a := range top {
		payload.TopAttendees = append(payload.TopAttendees, notification.AttendeeSummary{
			MemberID:    a.MemberID,
			DisplayName: a.DisplayName,
			EventCount:  a.EventCount,
		})
	}

	return payload, nil
}

func daysUntil(now, t time.Time) int {
	if t.Before(now) {
		return 0
	}
	return int(t.Sub(now).Hours() / 24)
}
