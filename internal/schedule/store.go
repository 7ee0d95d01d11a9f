package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

// Store exposes the dashboard-managed schedule tables, read-only.
type Store interface {
	// GetAvailabilityRule returns the rule for the staff member on the given
	// weekday, or nil when none is configured.
	GetAvailabilityRule(ctx context.Context, staffID string, day time.Weekday) (*AvailabilityRule, error)
	// ListTimeOff returns time-off ranges for the staff member that cover the date.
	ListTimeOff(ctx context.Context, staffID string, date timeutil.Date) ([]TimeOff, error)
	// ListStaffForService returns staff who perform the service for the tenant.
	ListStaffForService(ctx context.Context, tenantID, serviceID string) ([]Staff, error)
}

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore reads schedule data from PostgreSQL.
type PGStore struct {
	db db
}

// NewPGStore creates a schedule store backed by a pgx pool.
func NewPGStore(db db) *PGStore {
	if db == nil {
		panic("schedule: db required")
	}
	return &PGStore{db: db}
}

// GetAvailabilityRule loads the weekly rule for one staff/day combination.
// Times are stored as canonical "HH:MM" text, matching how the rest of the
// pipeline compares wall-clock values.
func (s *PGStore) GetAvailabilityRule(ctx context.Context, staffID string, day time.Weekday) (*AvailabilityRule, error) {
	var (
		rule                 AvailabilityRule
		startStr, endStr     string
		breakStart, breakEnd *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT staff_id, day_of_week, start_time, end_time,
		       break_start, break_end, is_available, max_appointments
		FROM staff_availability
		WHERE staff_id = $1 AND day_of_week = $2
	`, staffID, int(day)).Scan(
		&rule.StaffID, &rule.DayOfWeek, &startStr, &endStr,
		&breakStart, &breakEnd, &rule.Available, &rule.MaxAppointments,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: load availability rule: %w", err)
	}

	if rule.Start, err = timeutil.ParseTimeOfDay(startStr); err != nil {
		return nil, fmt.Errorf("schedule: rule start for staff %s: %w", staffID, err)
	}
	if rule.End, err = timeutil.ParseTimeOfDay(endStr); err != nil {
		return nil, fmt.Errorf("schedule: rule end for staff %s: %w", staffID, err)
	}
	if breakStart != nil && breakEnd != nil {
		bs, err := timeutil.ParseTimeOfDay(*breakStart)
		if err != nil {
			return nil, fmt.Errorf("schedule: rule break start for staff %s: %w", staffID, err)
		}
		be, err := timeutil.ParseTimeOfDay(*breakEnd)
		if err != nil {
			return nil, fmt.Errorf("schedule: rule break end for staff %s: %w", staffID, err)
		}
		rule.BreakStart, rule.BreakEnd = &bs, &be
	}
	return &rule, nil
}

// ListTimeOff returns time-off intervals covering the given date.
func (s *PGStore) ListTimeOff(ctx context.Context, staffID string, date timeutil.Date) ([]TimeOff, error) {
	rows, err := s.db.Query(ctx, `
		SELECT staff_id, start_date, end_date
		FROM staff_time_off
		WHERE staff_id = $1 AND start_date <= $2 AND end_date >= $2
	`, staffID, date.String())
	if err != nil {
		return nil, fmt.Errorf("schedule: list time off: %w", err)
	}
	defer rows.Close()

	var out []TimeOff
	for rows.Next() {
		var (
			t        TimeOff
			from, to time.Time
		)
		if err := rows.Scan(&t.StaffID, &from, &to); err != nil {
			return nil, fmt.Errorf("schedule: scan time off: %w", err)
		}
		t.From = timeutil.DateOf(from)
		t.To = timeutil.DateOf(to)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate time off: %w", err)
	}
	return out, nil
}

// ListStaffForService returns active staff offering the service, ordered by name.
func (s *PGStore) ListStaffForService(ctx context.Context, tenantID, serviceID string) ([]Staff, error) {
	rows, err := s.db.Query(ctx, `
		SELECT st.id, st.name
		FROM staff st
		JOIN staff_services ss ON ss.staff_id = st.id
		WHERE st.tenant_id = $1 AND ss.service_id = $2 AND st.is_active
		ORDER BY st.name
	`, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list staff for service: %w", err)
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var st Staff
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("schedule: scan staff: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: iterate staff: %w", err)
	}
	return out, nil
}
