// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

// ConfigRepository defines persistence for GatheringConfig rows.
type ConfigRepository interface {
	GetActive(ctx context.Context) (*GatheringConfig, error)
	GetByID(ctx context.Context, id int64) (*GatheringConfig, error)
	// CreateAndActivate inserts cfg and makes it the single active row in one
	// transaction.
	CreateAndActivate(ctx context.Context, cfg *GatheringConfig) error
	Update(ctx context.Context, cfg *GatheringConfig) error
	// Activate deactivates all rows then activates the target, transactionally.
	Activate(ctx context.Context, id int64) error
}

// CandidateRepository defines persistence for Candidate rows.
type CandidateRepository interface {
	// Upsert inserts or refreshes the row for (RuleKind, EventID). When the
	// event dates and attendee count are unchanged it must leave the row
	// untouched, preserving ProcessedAt; on change it resets the row to
	// PENDING (ProcessedAt null, IsSuppressed false).
	Upsert(ctx context.Context, c *Candidate) error
	DeleteByRuleAndEvent(ctx context.Context, kind RuleKind, eventID string) error
	// ListPending returns candidates with Status PENDING, in a stable order.
	ListPending(ctx context.Context) ([]*Candidate, error)
	ListPendingByGathering(ctx context.Context, kind RuleKind, gatheringID string) ([]*Candidate, error)
	MarkProcessed(ctx context.Context, ids []int64, processedAt time.Time) error
}

// RecordRepository is the pipeline's view of the shared notification store.
type RecordRepository interface {
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	// FindByDedupKey returns the live record for the key, or
	// ErrNotificationNotFound. A record whose stored metadata no longer
	// decodes is returned with a nil Payload rather than failing.
	FindByDedupKey(ctx context.Context, key DedupKey) (*Record, error)
	// ClearReadStatuses resets per-member read state so a bumped record
	// surfaces as new. Used only by the manual trigger path.
	ClearReadStatuses(ctx context.Context, recordID string) error
}
