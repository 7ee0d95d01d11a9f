package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Offering is a bookable service a tenant sells, managed by the dashboard.
type Offering struct {
	ID              string
	Name            string
	PriceCents      int
	DurationMinutes int
}

// Store lists a tenant's bookable offerings.
type Store interface {
	ListActiveOfferings(ctx context.Context, tenantID string) ([]Offering, error)
}

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore reads offerings from PostgreSQL.
type PGStore struct {
	db db
}

// NewPGStore creates an offerings store backed by a pgx pool.
func NewPGStore(db db) *PGStore {
	if db == nil {
		panic("catalog: db required")
	}
	return &PGStore{db: db}
}

// ListActiveOfferings returns the tenant's active services in display order.
func (s *PGStore) ListActiveOfferings(ctx context.Context, tenantID string) ([]Offering, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price_cents, duration_minutes
		FROM services
		WHERE tenant_id = $1 AND is_active
		ORDER BY display_order, name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list offerings: %w", err)
	}
	defer rows.Close()

	var out []Offering
	for rows.Next() {
		var o Offering
		if err := rows.Scan(&o.ID, &o.Name, &o.PriceCents, &o.DurationMinutes); err != nil {
			return nil, fmt.Errorf("catalog: scan offering: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate offerings: %w", err)
	}
	return out, nil
}
