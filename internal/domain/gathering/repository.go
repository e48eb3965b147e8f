package gathering

import (
	"context"
	"time"
)

// Reader provides descriptive gathering fields by id.
type Reader interface {
	GetByID(ctx context.Context, id string) (*Gathering, error)
}

// EventRepository queries events by gathering, time window and deletion flag.
// Deleted events are excluded from every method.
type EventRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]*Event, error)
	// ListEndingBetween returns the gathering's events with EndDate in [from, to].
	ListEndingBetween(ctx context.Context, gatheringID string, from, to time.Time) ([]*Event, error)
	// ListStartingBetween returns the gathering's events with StartDate in [from, to].
	ListStartingBetween(ctx context.Context, gatheringID string, from, to time.Time) ([]*Event, error)
	// CountUpcoming counts the gathering's full upcoming schedule (EndDate >= from),
	// not limited to any notification window.
	CountUpcoming(ctx context.Context, gatheringID string, from time.Time) (int, error)
}

// AttendanceRepository aggregates attendance per event and across events.
type AttendanceRepository interface {
	CountForEvent(ctx context.Context, eventID string) (int, error)
	CountDistinctAttendees(ctx context.Context, eventIDs []string) (int, error)
	// TopAttendees ranks members by distinct events attended among eventIDs.
	TopAttendees(ctx context.Context, eventIDs []string, limit int) ([]*Attendee, error)
}
