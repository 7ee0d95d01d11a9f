package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/schedule"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

// Booking statuses. Dashboard actions move bookings between them; the chat
// flow only ever creates confirmed rows.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Booking is a committed appointment row.
type Booking struct {
	ID              uuid.UUID
	TenantID        string
	CustomerPhone   string
	CustomerName    string
	ServiceID       string
	StaffID         string
	StartsAt        time.Time // absolute, timezone-qualified
	DurationMinutes int
	AmountCents     int
	Status          string
	CreatedAt       time.Time
}

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings and reads occupied intervals for conflict
// checks. Reads always hit the live table so dashboard edits are visible on
// the next availability computation.
type Repository struct {
	db  db
	loc *time.Location
}

// NewRepository creates a repository backed by a pgx pool. loc is the tenant's
// local timezone, used to translate stored instants back to wall-clock
// intervals for slot math.
func NewRepository(db db, loc *time.Location) *Repository {
	if db == nil {
		panic("booking: db required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc}
}

// Insert writes the booking in a single statement.
func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusConfirmed
	}
	now := time.Now().UTC()
	b.CreatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (
			id, tenant_id, customer_phone, customer_name, service_id, staff_id,
			starts_at, duration_minutes, amount_cents, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, b.ID, b.TenantID, b.CustomerPhone, b.CustomerName, b.ServiceID, b.StaffID,
		b.StartsAt, b.DurationMinutes, b.AmountCents, b.Status, now)
	if err != nil {
		return fmt.Errorf("booking: insert: %w", err)
	}
	return nil
}

// ListIntervals returns the occupied wall-clock intervals for a staff member
// on a local calendar date, excluding cancelled bookings. Implements
// schedule.BookingSource.
func (r *Repository) ListIntervals(ctx context.Context, staffID string, date timeutil.Date) ([]schedule.BookedInterval, error) {
	dayStart := date.At(timeutil.TimeOfDay{}, r.loc)
	dayEnd := date.AddDays(1).At(timeutil.TimeOfDay{}, r.loc)

	rows, err := r.db.Query(ctx, `
		SELECT starts_at, duration_minutes
		FROM bookings
		WHERE staff_id = $1
		  AND starts_at >= $2 AND starts_at < $3
		  AND status <> $4
		ORDER BY starts_at
	`, staffID, dayStart, dayEnd, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("booking: list intervals: %w", err)
	}
	defer rows.Close()

	var out []schedule.BookedInterval
	for rows.Next() {
		var (
			startsAt time.Time
			duration int
		)
		if err := rows.Scan(&startsAt, &duration); err != nil {
			return nil, fmt.Errorf("booking: scan interval: %w", err)
		}
		local := startsAt.In(r.loc)
		start := timeutil.TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
		out = append(out, schedule.BookedInterval{Start: start, End: start.Add(duration)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate intervals: %w", err)
	}
	return out, nil
}
