package api

type FreeSlotsResponse struct {
	OK              bool     `json:"ok"`
	Allowed         bool     `json:"allowed"`
	Reason          string   `json:"reason,omitempty"`
	Date            string   `json:"date"`
	Service         string   `json:"service,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	DurationSource  string   `json:"durationSource"`
	StepMinutes     int      `json:"stepMinutes"`
	WorkHours       string   `json:"workHours"`
	Slots           []string `json:"slots"`
}

type CreateBookingRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Service         string `json:"service,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

type CreateBookingResponse struct {
	Success       bool   `json:"success"`
	EventID       string `json:"eventId"`
	ReservedUntil string `json:"reservedUntil"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
