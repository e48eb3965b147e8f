// internal/infra/database/postgres_candidate_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gathering_notification_service/internal/domain/notification"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors specific to candidate repository
var ErrCandidateNotFound = fmt.Errorf("gathering candidate not found")

type PostgresCandidateRepository struct {
	db *sql.DB
}

func NewPostgresCandidateRepository(db *sql.DB) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

// Upsert inserts or refreshes the row for (rule_kind, event_id). The WHERE
// clause on the conflict update keeps the row untouched when dates and count
// are unchanged, so processed_at survives and re-running the generator on
// unchanged data is a no-op.
func (r *PostgresCandidateRepository) Upsert(ctx context.Context, c *notification.Candidate) error {
	query := `INSERT INTO gathering_candidates
               (rule_kind, gathering_id, event_id, event_start_date, event_end_date, attendee_count, processed_at, is_suppressed)
               VALUES ($1, $2, $3, $4, $5, $6, NULL, FALSE)
               ON CONFLICT (rule_kind, event_id) DO UPDATE
               SET gathering_id = EXCLUDED.gathering_id,
                   event_start_date = EXCLUDED.event_start_date,
                   event_end_date = EXCLUDED.event_end_date,
                   attendee_count = EXCLUDED.attendee_count,
                   processed_at = NULL,
                   is_suppressed = FALSE,
                   updated_at = NOW()
               WHERE (gathering_candidates.event_start_date, gathering_candidates.event_end_date, gathering_candidates.attendee_count)
                     IS DISTINCT FROM (EXCLUDED.event_start_date, EXCLUDED.event_end_date, EXCLUDED.attendee_count)`
	_, err := r.db.ExecContext(ctx, query,
		c.RuleKind, c.GatheringID, c.EventID, c.EventStartDate, c.EventEndDate, c.AttendeeCount)
	if err != nil {
		return fmt.Errorf("error upserting candidate (%s, %s): %w", c.RuleKind, c.EventID, err)
	}
	return nil
}

func (r *PostgresCandidateRepository) DeleteByRuleAndEvent(ctx context.Context, kind notification.RuleKind, eventID string) error {
	query := `DELETE FROM gathering_candidates WHERE rule_kind = $1 AND event_id = $2`
	if _, err := r.db.ExecContext(ctx, query, kind, eventID); err != nil {
		return fmt.Errorf("error deleting candidate (%s, %s): %w", kind, eventID, err)
	}
	return nil
}

const candidateColumns = `id, rule_kind, gathering_id, event_id, event_start_date, event_end_date,
               attendee_count, processed_at, is_suppressed, created_at, updated_at`

// Helper to scan multiple rows
func scanCandidates(rows *sql.Rows) ([]*notification.Candidate, error) {
	candidates := make([]*notification.Candidate, 0)
	for rows.Next() {
		c := notification.Candidate{}
		if err := rows.Scan(
			&c.ID, &c.RuleKind, &c.GatheringID, &c.EventID, &c.EventStartDate, &c.EventEndDate,
			&c.AttendeeCount, &c.ProcessedAt, &c.IsSuppressed, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning candidate row: %w", err)
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}
	return candidates, nil
}

func (r *PostgresCandidateRepository) ListPending(ctx context.Context) ([]*notification.Candidate, error) {
	query := `SELECT ` + candidateColumns + `
               FROM gathering_candidates
               WHERE processed_at IS NULL AND is_suppressed = FALSE
               ORDER BY rule_kind, gathering_id, event_start_date, event_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying pending candidates: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (r *PostgresCandidateRepository) ListPendingByGathering(ctx context.Context, kind notification.RuleKind, gatheringID string) ([]*notification.Candidate, error) {
	query := `SELECT ` + candidateColumns + `
               FROM gathering_candidates
               WHERE processed_at IS NULL AND is_suppressed = FALSE AND rule_kind = $1 AND gathering_id = $2
               ORDER BY event_start_date, event_id`
	rows, err := r.db.QueryContext(ctx, query, kind, gatheringID)
	if err != nil {
		return nil, fmt.Errorf("error querying pending candidates by gathering: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (r *PostgresCandidateRepository) MarkProcessed(ctx context.Context, ids []int64, processedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE gathering_candidates SET processed_at = $1, updated_at = NOW() WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, processedAt, pq.Array(ids)); err != nil {
		return fmt.Errorf("error marking candidates processed: %w", err)
	}
	return nil
}
