// internal/domain/notification/payload.go
package notification

import (
	"fmt"
	"time"
)

// PayloadVersion is the current schema version written into notification
// metadata. It doubles as the dedup discriminant, so a schema change starts
// a fresh record instead of corrupting an old one.
const PayloadVersion = 1

// EventSummary is the per-event slice of a payload.
type EventSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartsAt      time.Time `json:"startsAt"`
	EndsAt        time.Time `json:"endsAt"`
	AttendeeCount int       `json:"attendeeCount"`
}

// AttendeeSummary is one of the top attendees shown in a payload,
// ranked by distinct events attended.
type AttendeeSummary struct {
	MemberID    string `json:"memberId"`
	DisplayName string `json:"displayName"`
	EventCount  int    `json:"eventCount"`
}

// Payload is the versioned, human-displayable summary stored in a
// notification record's metadata. Title and Description are pure projections
// of the payload, so a stored record can be re-rendered without re-querying.
type Payload struct {
	Version             int               `json:"version"`
	RuleKind            RuleKind          `json:"ruleKind"`
	GatheringUID        string            `json:"gatheringUid"`
	GatheringName       string            `json:"gatheringName"`
	Location            string            `json:"location"`
	Events              []EventSummary    `json:"events"`
	FirstDate           time.Time         `json:"firstDate"`
	LastDate            time.Time         `json:"lastDate"`
	TotalUpcomingEvents int               `json:"totalUpcomingEvents"`
	AttendeeTotal       int               `json:"attendeeTotal"`
	TopAttendees        []AttendeeSummary `json:"topAttendees"`
	DaysUntilStart      int               `json:"daysUntilStart"`
}

// DedupKey returns the identity under which this payload is deduplicated in
// the notification store.
func (p *Payload) DedupKey() DedupKey {
	return DedupKey{
		Category:     CategoryGathering,
		RuleKind:     p.RuleKind,
		GatheringUID: p.GatheringUID,
		Version:      p.Version,
	}
}

// Title renders the notification title from the payload alone.
func (p *Payload) Title() string {
	switch p.RuleKind {
	case RuleReminder:
		if p.DaysUntilStart <= 0 {
			return fmt.Sprintf("Reminder: %s gathering starts today", p.GatheringName)
		}
		if p.DaysUntilStart == 1 {
			return fmt.Sprintf("Reminder: %s gathering starts in 1 day", p.GatheringName)
		}
		return fmt.Sprintf("Reminder: %s gathering starts in %d days", p.GatheringName, p.DaysUntilStart)
	default:
		return fmt.Sprintf("%d events happening in %s starting %s",
			p.TotalUpcomingEvents, p.GatheringName, p.FirstDate.Format("January 2"))
	}
}

// Description renders the notification body from the payload alone.
func (p *Payload) Description() string {
	span := p.FirstDate.Format("Jan 2")
	if !p.LastDate.Equal(p.FirstDate) {
		span = fmt.Sprintf("%s – %s", span, p.LastDate.Format("Jan 2"))
	}
	where := p.GatheringName
	if p.Location != "" {
		where = fmt.Sprintf("%s (%s)", p.GatheringName, p.Location)
	}
	return fmt.Sprintf("%d event(s) at %s, %s. %d people are attending.",
		len(p.Events), where, span, p.AttendeeTotal)
}
