package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hackgods/clinic-booking-gateway/internal/booking"
	"github.com/hackgods/clinic-booking-gateway/internal/clock"
	redisclient "github.com/hackgods/clinic-booking-gateway/internal/redis"
)

func freeSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateStr := r.URL.Query().Get("date")
		if dateStr == "" {
			writeError(w, http.StatusBadRequest, "bad_date", "date query parameter is required")
			return
		}
		date, err := clock.ParseDate(dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_date", err.Error())
			return
		}

		var explicitMinutes int
		if raw := r.URL.Query().Get("durationMinutes"); raw != "" {
			explicitMinutes, err = strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "durationMinutes must be an integer")
				return
			}
		}

		out, err := svc.ListFreeSlots(r.Context(), booking.SlotQuery{
			Date:            date,
			Service:         r.URL.Query().Get("service"),
			ExplicitMinutes: explicitMinutes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		slots := make([]string, 0, len(out.Slots))
		for _, s := range out.Slots {
			slots = append(slots, s.String())
		}

		writeJSON(w, http.StatusOK, FreeSlotsResponse{
			OK:              true,
			Allowed:         out.Allowed,
			Reason:          out.Reason,
			Date:            out.Date.String(),
			Service:         out.Service,
			DurationMinutes: out.DurationMinutes,
			DurationSource:  string(out.DurationSource),
			StepMinutes:     out.StepMinutes,
			WorkHours:       out.WorkStart.String() + "-" + out.WorkEnd.String(),
			Slots:           slots,
		})
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := clock.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_date", err.Error())
			return
		}
		start, err := clock.ParseWallClock(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_time", err.Error())
			return
		}

		conf, err := svc.CreateBooking(r.Context(), booking.Request{
			Name:            req.Name,
			Phone:           req.Phone,
			Date:            date,
			Time:            start,
			Service:         req.Service,
			ExplicitMinutes: req.DurationMinutes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateBookingResponse{
			Success:       true,
			EventID:       conf.EventID,
			ReservedUntil: conf.End.Format(time.RFC3339),
		})
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	var pe *booking.ProviderError

	switch {
	case errors.Is(err, booking.ErrMissingField):
		writeError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, booking.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
	case errors.Is(err, booking.ErrDayNotAllowed):
		writeError(w, http.StatusBadRequest, "day_not_allowed", err.Error())
	case errors.Is(err, booking.ErrOutsideWorkingHours):
		writeError(w, http.StatusBadRequest, "outside_working_hours", err.Error())
	case errors.Is(err, booking.ErrPastStart):
		writeError(w, http.StatusBadRequest, "past_start", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrCalendarBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "calendar_busy", "calendar is currently being booked, please retry shortly")
	case errors.As(err, &pe):
		writeError(w, http.StatusBadGateway, "provider_error", pe.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
