// internal/infra/database/postgres_config_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"gathering_notification_service/internal/domain/notification"
)

// Custom errors specific to config repository
var ErrConfigNotFound = fmt.Errorf("gathering config not found")

type PostgresConfigRepository struct {
	db *sql.DB
}

func NewPostgresConfigRepository(db *sql.DB) *PostgresConfigRepository {
	return &PostgresConfigRepository{db: db}
}

const configColumns = `id, enabled, min_attendees_per_event, upcoming_window_days, reminder_days_before,
               total_events_threshold, qualified_events_threshold, is_active, created_at, updated_at`

func scanConfig(row *sql.Row) (*notification.GatheringConfig, error) {
	cfg := notification.GatheringConfig{}
	err := row.Scan(
		&cfg.ID, &cfg.Enabled, &cfg.MinAttendeesPerEvent, &cfg.UpcomingWindowDays, &cfg.ReminderDaysBefore,
		&cfg.TotalEventsThreshold, &cfg.QualifiedEventsThreshold, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *PostgresConfigRepository) GetActive(ctx context.Context) (*notification.GatheringConfig, error) {
	query := `SELECT ` + configColumns + ` FROM gathering_configs WHERE is_active = TRUE LIMIT 1`
	cfg, err := scanConfig(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("error getting active gathering config: %w", err)
	}
	return cfg, nil
}

func (r *PostgresConfigRepository) GetByID(ctx context.Context, id int64) (*notification.GatheringConfig, error) {
	query := `SELECT ` + configColumns + ` FROM gathering_configs WHERE id = $1`
	cfg, err := scanConfig(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("error getting gathering config by ID: %w", err)
	}
	return cfg, nil
}

// CreateAndActivate inserts the config and makes it the single active row.
// Deactivate-all and insert-active happen in one transaction so there is no
// window with zero or two active rows.
func (r *PostgresConfigRepository) CreateAndActivate(ctx context.Context, cfg *notification.GatheringConfig) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for config create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if _, err := txn.ExecContext(ctx, `UPDATE gathering_configs SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`); err != nil {
		return fmt.Errorf("error deactivating existing configs: %w", err)
	}

	query := `INSERT INTO gathering_configs
               (enabled, min_attendees_per_event, upcoming_window_days, reminder_days_before,
                total_events_threshold, qualified_events_threshold, is_active)
               VALUES ($1, $2, $3, $4, $5, $6, TRUE)
               RETURNING id, created_at, updated_at`
	err = txn.QueryRowContext(ctx, query,
		cfg.Enabled, cfg.MinAttendeesPerEvent, cfg.UpcomingWindowDays, cfg.ReminderDaysBefore,
		cfg.TotalEventsThreshold, cfg.QualifiedEventsThreshold,
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating gathering config: %w", err)
	}
	cfg.IsActive = true

	return txn.Commit()
}

func (r *PostgresConfigRepository) Update(ctx context.Context, cfg *notification.GatheringConfig) error {
	query := `UPDATE gathering_configs
               SET enabled = $1, min_attendees_per_event = $2, upcoming_window_days = $3,
                   reminder_days_before = $4, total_events_threshold = $5,
                   qualified_events_threshold = $6, updated_at = NOW()
               WHERE id = $7
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		cfg.Enabled, cfg.MinAttendeesPerEvent, cfg.UpcomingWindowDays, cfg.ReminderDaysBefore,
		cfg.TotalEventsThreshold, cfg.QualifiedEventsThreshold, cfg.ID,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrConfigNotFound
		}
		return fmt.Errorf("error updating gathering config: %w", err)
	}
	return nil
}

// Activate deactivates all configs then activates the target, transactionally.
func (r *PostgresConfigRepository) Activate(ctx context.Context, id int64) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for config activate: %w", err)
	}
	defer txn.Rollback()

	if _, err := txn.ExecContext(ctx, `UPDATE gathering_configs SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`); err != nil {
		return fmt.Errorf("error deactivating existing configs: %w", err)
	}

	res, err := txn.ExecContext(ctx, `UPDATE gathering_configs SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error activating gathering config %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking config activation result: %w", err)
	}
	if affected == 0 {
		return ErrConfigNotFound
	}

	return txn.Commit()
}
