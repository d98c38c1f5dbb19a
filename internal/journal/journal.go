package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded for booking attempts.
const (
	OutcomeCreated       = "created"
	OutcomeRejected      = "rejected"
	OutcomeConflict      = "conflict"
	OutcomeProviderError = "provider_error"
)

// Attempt is one CreateBooking attempt and its terminal outcome. The journal
// is write-only observability: availability decisions never read it, the
// remote calendar stays the source of truth for busy state.
type Attempt struct {
	ID              uuid.UUID
	CalendarID      string
	Name            string
	Phone           string
	Service         string
	Date            string
	Time            string
	DurationMinutes int
	Outcome         string
	Detail          string // rejection reason or provider error text
	EventID         string // set when Outcome is created
	CreatedAt       time.Time
}

// Recorder persists booking attempts. Implementations must tolerate being
// called concurrently.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

// Nop discards attempts. Used when no Postgres DSN is configured.
type Nop struct{}

func (Nop) Record(context.Context, Attempt) error { return nil }
