// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"gathering_notification_service/internal/domain/notification"
)

// Custom errors specific to notification repository
var ErrNotificationNotFound = fmt.Errorf("notification record not found")

// PostgresNotificationRepository writes into the shared notifications table.
// This pipeline owns the metadata JSON it stores there, not the table.
type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, rec *notification.Record) error {
	metadata, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("error marshalling notification metadata: %w", err)
	}
	query := `INSERT INTO notifications (id, category, title, description, metadata, is_public, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		rec.ID, rec.Category, rec.Title, rec.Description, metadata, rec.IsPublic, rec.SentAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification record: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) Update(ctx context.Context, rec *notification.Record) error {
	metadata, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("error marshalling notification metadata: %w", err)
	}
	query := `UPDATE notifications
               SET title = $1, description = $2, metadata = $3, sent_at = $4
               WHERE id = $5
               RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		rec.Title, rec.Description, metadata, rec.SentAt, rec.ID,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("error updating notification record: %w", err)
	}
	return nil
}

// FindByDedupKey matches on the metadata fields this pipeline writes. A row
// whose metadata was mangled by another writer simply fails to match, and a
// matching row whose metadata no longer decodes comes back with a nil
// Payload; the caller rebuilds it from current data on the next write.
func (r *PostgresNotificationRepository) FindByDedupKey(ctx context.Context, key notification.DedupKey) (*notification.Record, error) {
	query := `SELECT id, category, title, description, metadata, is_public, created_at, sent_at
               FROM notifications
               WHERE category = $1
                 AND metadata->>'ruleKind' = $2
                 AND metadata->>'gatheringUid' = $3
                 AND metadata->>'version' = $4
               ORDER BY created_at DESC
               LIMIT 1`
	rec := notification.Record{}
	var metadata []byte
	err := r.db.QueryRowContext(ctx, query,
		key.Category, string(key.RuleKind), key.GatheringUID, strconv.Itoa(key.Version),
	).Scan(&rec.ID, &rec.Category, &rec.Title, &rec.Description, &metadata, &rec.IsPublic, &rec.CreatedAt, &rec.SentAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error finding notification by dedup key: %w", err)
	}

	payload := notification.Payload{}
	if err := json.Unmarshal(metadata, &payload); err == nil {
		rec.Payload = &payload
	}
	return &rec, nil
}

func (r *PostgresNotificationRepository) ClearReadStatuses(ctx context.Context, recordID string) error {
	query := `DELETE FROM notification_read_statuses WHERE notification_id = $1`
	if _, err := r.db.ExecContext(ctx, query, recordID); err != nil {
		return fmt.Errorf("error clearing read statuses for notification %s: %w", recordID, err)
	}
	return nil
}
