package journal

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS booking_attempts").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	rec := NewPgRecorder(mock)
	require.NoError(t, rec.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordInsertsAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO booking_attempts").
		WithArgs(pgxmock.AnyArg(), "cal-1", "Jonas", "+370600", "Konsultacija",
			"2026-02-26", "10:00", 15, OutcomeCreated, "", "evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := NewPgRecorder(mock)
	err = rec.Record(context.Background(), Attempt{
		CalendarID:      "cal-1",
		Name:            "Jonas",
		Phone:           "+370600",
		Service:         "Konsultacija",
		Date:            "2026-02-26",
		Time:            "10:00",
		DurationMinutes: 15,
		Outcome:         OutcomeCreated,
		EventID:         "evt-1",
		CreatedAt:       time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, Nop{}.Record(context.Background(), Attempt{}))
}
