package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

func TestInsertAssignsIDAndDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			pgxmock.AnyArg(), "tenant-1", "+15551234567", "", "svc-1", "staff-1",
			pgxmock.AnyArg(), 60, 4500, StatusConfirmed, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepository(mock, time.UTC)
	b := &Booking{
		TenantID:        "tenant-1",
		CustomerPhone:   "+15551234567",
		ServiceID:       "svc-1",
		StaffID:         "staff-1",
		StartsAt:        time.Date(2026, time.September, 2, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		AmountCents:     4500,
	}
	require.NoError(t, repo.Insert(context.Background(), b))

	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.False(t, b.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIntervalsConvertsToWallClock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	date := timeutil.Date{Year: 2026, Month: time.September, Day: 2}
	// 14:00 UTC is 10:00 in New York during September.
	startsAt := time.Date(2026, time.September, 2, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT starts_at, duration_minutes").
		WithArgs("staff-1", pgxmock.AnyArg(), pgxmock.AnyArg(), StatusCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"starts_at", "duration_minutes"}).
			AddRow(startsAt, 60))

	repo := NewRepository(mock, loc)
	out, err := repo.ListIntervals(context.Background(), "staff-1", date)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, timeutil.TimeOfDay{Hour: 10}, out[0].Start)
	assert.Equal(t, timeutil.TimeOfDay{Hour: 11}, out[0].End)
}

func TestListIntervalsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT starts_at, duration_minutes").
		WithArgs("staff-1", pgxmock.AnyArg(), pgxmock.AnyArg(), StatusCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"starts_at", "duration_minutes"}))

	repo := NewRepository(mock, time.UTC)
	out, err := repo.ListIntervals(context.Background(), "staff-1", timeutil.Date{Year: 2026, Month: time.September, Day: 2})
	require.NoError(t, err)
	assert.Empty(t, out)
}
