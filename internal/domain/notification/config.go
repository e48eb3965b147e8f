// internal/domain/notification/config.go
package notification

import "time"

// GatheringConfig is the singleton rule configuration for the pipeline.
// At most one row has IsActive=true; activation is transactional
// (deactivate all rows, then activate the target). Rows are never deleted.
type GatheringConfig struct {
	ID                       int64
	Enabled                  bool
	MinAttendeesPerEvent     int
	UpcomingWindowDays       int
	ReminderDaysBefore       int
	TotalEventsThreshold     int
	QualifiedEventsThreshold int
	IsActive                 bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// WindowDays returns the gating window, in calendar days, for a rule kind.
func (c *GatheringConfig) WindowDays(kind RuleKind) int {
	if kind == RuleReminder {
		return c.ReminderDaysBefore
	}
	return c.UpcomingWindowDays
}
