// internal/domain/notification/shared_types.go
package notification

import "fmt"

// RuleKind identifies which notification rule a candidate or payload belongs to.
type RuleKind string

const (
	RuleUpcoming RuleKind = "UPCOMING" // events at a gathering ending within the upcoming window
	RuleReminder RuleKind = "REMINDER" // events at a gathering starting within the reminder window
)

// ParseRuleKind converts operator input into a RuleKind.
func ParseRuleKind(s string) (RuleKind, error) {
	switch RuleKind(s) {
	case RuleUpcoming:
		return RuleUpcoming, nil
	case RuleReminder:
		return RuleReminder, nil
	default:
		return "", fmt.Errorf("unknown rule kind: %q", s)
	}
}

// CandidateStatus is the processing state of a candidate, derived from its
// processed_at and is_suppressed columns.
type CandidateStatus string

const (
	StatusPending    CandidateStatus = "PENDING"    // awaiting a processor pass
	StatusProcessed  CandidateStatus = "PROCESSED"  // a publish decision was finalized for its group
	StatusSuppressed CandidateStatus = "SUPPRESSED" // administratively excluded from processing
)

// CategoryGathering is the notification category this pipeline writes.
// The notification store is shared; other subsystems use other categories.
const CategoryGathering = "GATHERING"
