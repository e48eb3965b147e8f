// internal/domain/notification/record.go
package notification

import "time"

// Record is the notification row this pipeline writes into the shared
// notification store. The pipeline owns the metadata payload it stores there
// but not the table itself; list/read/delivery mechanics live elsewhere.
type Record struct {
	ID          string // uuid, generated by the publisher
	Category    string
	Title       string
	Description string
	Payload     *Payload // persisted as the metadata JSON; nil if stored metadata was undecodable
	IsPublic    bool
	CreatedAt   time.Time
	SentAt      time.Time
}

// DedupKey identifies the single live record for a (ruleKind, gathering)
// pair at a given payload version.
type DedupKey struct {
	Category     string
	RuleKind     RuleKind
	GatheringUID string
	Version      int
}
