// internal/domain/notification/candidate.go
package notification

import (
	"database/sql"
	"time"
)

// Candidate marks that an event currently qualifies for a notification rule,
// pending processing. Unique on (RuleKind, EventID).
//
// Status transitions: PENDING -> PROCESSED when a processor finalizes a
// publish decision for the candidate's group; any -> PENDING when the
// generator re-evaluates the same (RuleKind, EventID) with changed data;
// PENDING -> SUPPRESSED is administrative.
type Candidate struct {
	ID             int64
	RuleKind       RuleKind
	GatheringID    string
	EventID        string
	EventStartDate time.Time
	EventEndDate   time.Time
	AttendeeCount  int
	ProcessedAt    sql.NullTime
	IsSuppressed   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status derives the candidate's processing state.
func (c *Candidate) Status() CandidateStatus {
	if c.IsSuppressed {
		return StatusSuppressed
	}
	if c.ProcessedAt.Valid {
		return StatusProcessed
	}
	return StatusPending
}

// RelevantDate is the date the scheduled processor gates a candidate on:
// the event's end for UPCOMING (how soon it ends), its start for REMINDER.
func (c *Candidate) RelevantDate() time.Time {
	if c.RuleKind == RuleReminder {
		return c.EventStartDate
	}
	return c.EventEndDate
}
