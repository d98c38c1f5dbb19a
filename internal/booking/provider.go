package booking

import (
	"context"
	"fmt"
	"time"
)

// CalendarProvider is the remote calendar backend. It owns all busy state;
// the gateway never caches what it returns.
type CalendarProvider interface {
	// QueryBusy returns the busy intervals intersecting [from, to) on the
	// calendar. No provider data means an empty slice, not an error.
	QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]Interval, error)

	// InsertEvent creates an event on the calendar. It must only be called
	// after the pre-commit conflict check passed.
	InsertEvent(ctx context.Context, calendarID string, ev EventRequest) (*EventHandle, error)
}

// EventRequest describes the event to create on the remote calendar.
type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// EventHandle identifies a created event.
type EventHandle struct {
	ID       string
	HTMLLink string
}

// ProviderError is any failure of the remote calendar call. Code carries the
// HTTP status when one is available so callers can tell auth and quota
// failures from transient ones.
type ProviderError struct {
	Op      string // "freebusy" or "insert"
	Code    int    // 0 when the failure happened before a response
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("calendar provider %s failed: %d %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("calendar provider %s failed: %s", e.Op, e.Message)
}
