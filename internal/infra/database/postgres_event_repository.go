// internal/infra/database/postgres_event_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gathering_notification_service/internal/domain/gathering"

	"github.com/lib/pq"
)

// PostgresEventRepository reads events owned by the directory subsystem.
// Read-only; deleted events are excluded from every query.
type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

const eventColumns = `id, gathering_id, name, start_date, end_date, is_deleted`

func scanEvents(rows *sql.Rows) ([]*gathering.Event, error) {
	events := make([]*gathering.Event, 0)
	for rows.Next() {
		e := gathering.Event{}
		if err := rows.Scan(&e.ID, &e.GatheringID, &e.Name, &e.StartDate, &e.EndDate, &e.IsDeleted); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *PostgresEventRepository) ListByIDs(ctx context.Context, ids []string) ([]*gathering.Event, error) {
	if len(ids) == 0 {
		return []*gathering.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events
               WHERE id = ANY($1) AND is_deleted = FALSE
               ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying events by IDs: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *PostgresEventRepository) ListEndingBetween(ctx context.Context, gatheringID string, from, to time.Time) ([]*gathering.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
               WHERE gathering_id = $1 AND is_deleted = FALSE AND end_date >= $2 AND end_date <= $3
               ORDER BY end_date, id`
	rows, err := r.db.QueryContext(ctx, query, gatheringID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying events ending between: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *PostgresEventRepository) ListStartingBetween(ctx context.Context, gatheringID string, from, to time.Time) ([]*gathering.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
               WHERE gathering_id = $1 AND is_deleted = FALSE AND start_date >= $2 AND start_date <= $3
               ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, gatheringID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying events starting between: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *PostgresEventRepository) CountUpcoming(ctx context.Context, gatheringID string, from time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM events
               WHERE gathering_id = $1 AND is_deleted = FALSE AND end_date >= $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, gatheringID, from).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting upcoming events: %w", err)
	}
	return count, nil
}

// PostgresAttendanceRepository aggregates the attendance table owned by the
// event subsystem. Read-only.
type PostgresAttendanceRepository struct {
	db *sql.DB
}

func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{db: db}
}

func (r *PostgresAttendanceRepository) CountForEvent(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(DISTINCT member_id) FROM event_attendance WHERE event_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting attendance for event %s: %w", eventID, err)
	}
	return count, nil
}

func (r *PostgresAttendanceRepository) CountDistinctAttendees(ctx context.Context, eventIDs []string) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(DISTINCT member_id) FROM event_attendance WHERE event_id = ANY($1)`
	var count int
	if err := r.db.QueryRowContext(ctx, query, pq.Array(eventIDs)).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting distinct attendees: %w", err)
	}
	return count, nil
}

func (r *PostgresAttendanceRepository) TopAttendees(ctx context.Context, eventIDs []string, limit int) ([]*gathering.Attendee, error) {
	if len(eventIDs) == 0 {
		return []*gathering.Attendee{}, nil
	}
	query := `SELECT a.member_id, m.display_name, COUNT(DISTINCT a.event_id) AS event_count
               FROM event_attendance a
               JOIN members m ON m.id = a.member_id
               WHERE a.event_id = ANY($1)
               GROUP BY a.member_id, m.display_name
               ORDER BY event_count DESC, m.display_name ASC
               LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(eventIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying top attendees: %w", err)
	}
	defer rows.Close()

	attendees := make([]*gathering.Attendee, 0)
	for rows.Next() {
		a := gathering.Attendee{}
		if err := rows.Scan(&a.MemberID, &a.DisplayName, &a.EventCount); err != nil {
			return nil, fmt.Errorf("error scanning top attendee row: %w", err)
		}
		attendees = append(attendees, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top attendee rows: %w", err)
	}
	return attendees, nil
}
