// internal/infra/database/postgres_gathering_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"gathering_notification_service/internal/domain/gathering"
)

// Custom errors
var ErrGatheringNotFound = fmt.Errorf("gathering not found")

// PostgresGatheringRepository reads descriptive gathering fields owned by the
// directory subsystem. Read-only.
type PostgresGatheringRepository struct {
	db *sql.DB
}

func NewPostgresGatheringRepository(db *sql.DB) *PostgresGatheringRepository {
	return &PostgresGatheringRepository{db: db}
}

func (r *PostgresGatheringRepository) GetByID(ctx context.Context, id string) (*gathering.Gathering, error) {
	query := `SELECT id, name, location, timezone FROM gatherings WHERE id = $1`
	g := &gathering.Gathering{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.Location, &g.Timezone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGatheringNotFound
		}
		return nil, fmt.Errorf("error getting gathering by ID: %w", err)
	}
	return g, nil
}
