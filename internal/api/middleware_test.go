package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		h := APIKeyMiddleware("sekret")(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/free-slots", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		h := APIKeyMiddleware("sekret")(next)
		req := httptest.NewRequest(http.MethodGet, "/free-slots", nil)
		req.Header.Set("X-Api-Key", "guess")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts correct key", func(t *testing.T) {
		h := APIKeyMiddleware("sekret")(next)
		req := httptest.NewRequest(http.MethodGet, "/free-slots", nil)
		req.Header.Set("X-Api-Key", "sekret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("empty configured key disables the check", func(t *testing.T) {
		h := APIKeyMiddleware("")(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/free-slots", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	h := RequestIDMiddleware(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-abc", seen)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
