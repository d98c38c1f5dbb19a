package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the slice of pgxpool.Pool the recorder needs; tests substitute a
// mock pool.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRecorder struct {
	pool execer
}

func NewPgRecorder(pool execer) *PgRecorder {
	return &PgRecorder{pool: pool}
}

// EnsureSchema creates the journal table when it does not exist yet. Called
// once at startup.
func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS booking_attempts (
			id               uuid PRIMARY KEY,
			calendar_id      text NOT NULL,
			name             text NOT NULL,
			phone            text NOT NULL,
			service          text NOT NULL DEFAULT '',
			date             text NOT NULL,
			time             text NOT NULL,
			duration_minutes int  NOT NULL,
			outcome          text NOT NULL,
			detail           text NOT NULL DEFAULT '',
			event_id         text NOT NULL DEFAULT '',
			created_at       timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure booking_attempts schema: %w", err)
	}
	return nil
}

func (r *PgRecorder) Record(ctx context.Context, a Attempt) error {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_attempts
			(id, calendar_id, name, phone, service, date, time, duration_minutes, outcome, detail, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()))
	`, id, a.CalendarID, a.Name, a.Phone, a.Service, a.Date, a.Time,
		a.DurationMinutes, a.Outcome, a.Detail, a.EventID, nullableTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking attempt: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
