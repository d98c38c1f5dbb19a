package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hackgods/clinic-booking-gateway/internal/booking"
)

// GoogleProvider implements booking.CalendarProvider against the Google
// Calendar v3 API using a service account.
type GoogleProvider struct {
	svc      *gcal.Service
	timezone string
	timeout  time.Duration
}

// NewGoogleProvider builds the API client from normalized credentials.
// timezone is the IANA name sent with inserted events so the calendar UI
// renders them in clinic time.
func NewGoogleProvider(ctx context.Context, creds Credentials, timezone string, callTimeout time.Duration) (*GoogleProvider, error) {
	conf := &jwt.Config{
		Email:      creds.ClientEmail,
		PrivateKey: []byte(creds.PrivateKey),
		Scopes:     []string{gcal.CalendarScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}

	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}

	return &GoogleProvider{svc: svc, timezone: timezone, timeout: callTimeout}, nil
}

func (p *GoogleProvider) QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]booking.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  from.Format(time.RFC3339),
		TimeMax:  to.Format(time.RFC3339),
		TimeZone: p.timezone,
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, providerError("freebusy", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		// The provider had nothing to say about this calendar; that is an
		// empty busy set, not a failure.
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, &booking.ProviderError{Op: "freebusy", Message: cal.Errors[0].Reason}
	}

	busy := make([]booking.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, &booking.ProviderError{Op: "freebusy", Message: fmt.Sprintf("unparseable busy start %q", period.Start)}
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, &booking.ProviderError{Op: "freebusy", Message: fmt.Sprintf("unparseable busy end %q", period.End)}
		}
		busy = append(busy, booking.Interval{Start: start, End: end})
	}
	return busy, nil
}

func (p *GoogleProvider) InsertEvent(ctx context.Context, calendarID string, ev booking.EventRequest) (*booking.EventHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	created, err := p.svc.Events.Insert(calendarID, &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: p.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: p.timezone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, providerError("insert", err)
	}

	return &booking.EventHandle{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

func providerError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &booking.ProviderError{Op: op, Code: gerr.Code, Message: gerr.Message}
	}
	return &booking.ProviderError{Op: op, Message: err.Error()}
}
