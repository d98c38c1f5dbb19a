package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking-gateway/internal/booking"
	"github.com/hackgods/clinic-booking-gateway/internal/clock"
	redisclient "github.com/hackgods/clinic-booking-gateway/internal/redis"
)

type stubProvider struct {
	busy      []booking.Interval
	busyErr   error
	insertErr error
}

func (s *stubProvider) QueryBusy(context.Context, string, time.Time, time.Time) ([]booking.Interval, error) {
	return s.busy, s.busyErr
}

func (s *stubProvider) InsertEvent(context.Context, string, booking.EventRequest) (*booking.EventHandle, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return &booking.EventHandle{ID: "evt-42", HTMLLink: "https://calendar.example/evt-42"}, nil
}

func newTestRouter(t *testing.T, provider *stubProvider, apiKey string) http.Handler {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Vilnius")
	require.NoError(t, err)

	settings := booking.Settings{
		Location:         loc,
		CalendarID:       "clinic@group.calendar.google.com",
		WorkStart:        clock.WallClock{Hour: 8},
		WorkEnd:          clock.WallClock{Hour: 17},
		StepMinutes:      15,
		ServiceDurations: map[string]int{"Konsultacija": 15, "Higiena": 60},
		DefaultDuration:  30,
		AllowedWeekdays:  map[int]bool{1: true, 4: true, 5: true},
	}
	require.NoError(t, settings.Validate())

	svc := booking.NewService(settings, provider, redisclient.NewLocalLocker(), nil, nil)
	return NewRouter(RouterConfig{Service: svc, APIKey: apiKey, Env: "test", Version: "test"})
}

func doJSON(t *testing.T, router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFreeSlotsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	rec := doJSON(t, router, http.MethodGet, "/free-slots?date=2026-02-26&service=Konsultacija", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FreeSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.True(t, resp.Allowed)
	assert.Equal(t, 15, resp.DurationMinutes)
	assert.Equal(t, "service", resp.DurationSource)
	assert.Equal(t, "08:00-17:00", resp.WorkHours)
	require.Len(t, resp.Slots, 36)
	assert.Equal(t, "08:00", resp.Slots[0])
	assert.Equal(t, "16:45", resp.Slots[35])
}

func TestFreeSlotsBadDate(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	for _, target := range []string{"/free-slots", "/free-slots?date=26-02-2026"} {
		rec := doJSON(t, router, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "bad_date", resp.Error)
	}
}

func TestFreeSlotsDisallowedDayIsNotAnError(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	rec := doJSON(t, router, http.MethodGet, "/free-slots?date=2026-02-23", "", nil) // surgeon day
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FreeSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "surgeon-day", resp.Reason)
	assert.Empty(t, resp.Slots)
}

func TestFreeSlotsProviderFailure(t *testing.T) {
	router := newTestRouter(t, &stubProvider{busyErr: &booking.ProviderError{Op: "freebusy", Code: 401, Message: "invalid credentials"}}, "")

	rec := doJSON(t, router, http.MethodGet, "/free-slots?date=2026-02-26", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "provider_error", resp.Error)
	assert.Contains(t, resp.Details, "401")
}

func TestCreateBookingEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	body := `{"name":"Jonas Jonaitis","phone":"+37060000000","date":"2026-02-26","time":"10:00","service":"Konsultacija"}`
	rec := doJSON(t, router, http.MethodPost, "/create-booking", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateBookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "evt-42", resp.EventID)

	end, err := time.Parse(time.RFC3339, resp.ReservedUntil)
	require.NoError(t, err)
	assert.Equal(t, 15, end.Minute())
}

func TestCreateBookingValidation(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	cases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing phone", `{"name":"Jonas","date":"2026-02-26","time":"10:00"}`, "missing_field"},
		{"bad date", `{"name":"Jonas","phone":"+370","date":"bad","time":"10:00"}`, "bad_date"},
		{"bad time", `{"name":"Jonas","phone":"+370","date":"2026-02-26","time":"25:00"}`, "bad_time"},
		{"not json", `{{{`, "invalid_request_body"},
		{"surgeon day", `{"name":"Jonas","phone":"+370","date":"2026-02-23","time":"10:00"}`, "day_not_allowed"},
		{"outside hours", `{"name":"Jonas","phone":"+370","date":"2026-02-26","time":"18:00"}`, "outside_working_hours"},
		{"bad duration", `{"name":"Jonas","phone":"+370","date":"2026-02-26","time":"10:00","durationMinutes":999}`, "invalid_duration"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/create-booking", c.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, c.wantCode, resp.Error)
		})
	}
}

func TestCreateBookingConflict(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Vilnius")
	busyStart := time.Date(2026, 2, 26, 10, 0, 0, 0, loc)
	router := newTestRouter(t, &stubProvider{
		busy: []booking.Interval{{Start: busyStart, End: busyStart.Add(30 * time.Minute)}},
	}, "")

	body := `{"name":"Jonas","phone":"+370","date":"2026-02-26","time":"10:00"}`
	rec := doJSON(t, router, http.MethodPost, "/create-booking", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slot_taken", resp.Error)
}

func TestCreateBookingProviderFailure(t *testing.T) {
	router := newTestRouter(t, &stubProvider{insertErr: &booking.ProviderError{Op: "insert", Code: 500, Message: "backend error"}}, "")

	body := `{"name":"Jonas","phone":"+370","date":"2026-02-26","time":"10:00"}`
	rec := doJSON(t, router, http.MethodPost, "/create-booking", body, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthLiveness(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	rec := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReadinessWithoutCollaborators(t *testing.T) {
	router := newTestRouter(t, &stubProvider{}, "")

	rec := doJSON(t, router, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "disabled", resp.Dependencies["postgres"])
	assert.Equal(t, "disabled", resp.Dependencies["redis"])
}
