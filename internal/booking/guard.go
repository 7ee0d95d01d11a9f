package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/schedule"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/pkg/logging"
)

var guardTracer = otel.Tracer("salonbot.internal.booking")

// ErrSlotConflict reports that the chosen slot was taken between display and
// commit. The conversation layer re-fetches availability and asks again.
var ErrSlotConflict = errors.New("booking: slot no longer available")

// SlotResolver recomputes open slots at commit time.
type SlotResolver interface {
	AvailableSlots(ctx context.Context, staffID string, date timeutil.Date, durationMinutes int) ([]schedule.Slot, error)
}

// Inserter is the write half of the repository.
type Inserter interface {
	Insert(ctx context.Context, b *Booking) error
}

// GuardMetrics counts commit outcomes.
type GuardMetrics interface {
	ObserveCommit(outcome string)
}

// CommitRequest carries a confirmed session's selections into the write path.
type CommitRequest struct {
	TenantID        string
	CustomerPhone   string
	CustomerName    string
	ServiceID       string
	StaffID         string
	Date            timeutil.Date
	Time            timeutil.TimeOfDay
	DurationMinutes int
	AmountCents     int
	Location        *time.Location
}

// Guard is the re-validating write path. It recomputes availability
// immediately before the insert; the write itself is a single statement.
// The narrow window between check and insert is an accepted race at this
// load profile, resolved by staff when it ever fires.
type Guard struct {
	resolver SlotResolver
	store    Inserter
	metrics  GuardMetrics
	logger   *logging.Logger
}

// NewGuard constructs a commit guard. metrics may be nil.
func NewGuard(resolver SlotResolver, store Inserter, metrics GuardMetrics, logger *logging.Logger) *Guard {
	if resolver == nil {
		panic("booking: resolver required")
	}
	if store == nil {
		panic("booking: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Guard{resolver: resolver, store: store, metrics: metrics, logger: logger}
}

// Commit re-checks the chosen slot against live availability and inserts the
// booking. Returns ErrSlotConflict without writing when the slot is gone.
func (g *Guard) Commit(ctx context.Context, req CommitRequest) (*Booking, error) {
	ctx, span := guardTracer.Start(ctx, "booking.commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("salonbot.tenant_id", req.TenantID),
		attribute.String("salonbot.staff_id", req.StaffID),
		attribute.String("salonbot.date", req.Date.String()),
		attribute.String("salonbot.time", req.Time.String()),
	)

	slots, err := g.resolver.AvailableSlots(ctx, req.StaffID, req.Date, req.DurationMinutes)
	if err != nil {
		span.RecordError(err)
		g.observe("error")
		return nil, fmt.Errorf("booking: commit-time availability check: %w", err)
	}

	wanted := req.Time.String()
	stillOpen := false
	for _, s := range slots {
		if s.Canonical() == wanted {
			stillOpen = true
			break
		}
	}
	if !stillOpen {
		g.observe("conflict")
		g.logger.Warn("slot taken before commit",
			"tenant_id", req.TenantID,
			"staff_id", req.StaffID,
			"date", req.Date.String(),
			"time", wanted,
		)
		return nil, ErrSlotConflict
	}

	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	b := &Booking{
		TenantID:        req.TenantID,
		CustomerPhone:   req.CustomerPhone,
		CustomerName:    req.CustomerName,
		ServiceID:       req.ServiceID,
		StaffID:         req.StaffID,
		StartsAt:        req.Date.At(req.Time, loc),
		DurationMinutes: req.DurationMinutes,
		AmountCents:     req.AmountCents,
		Status:          StatusConfirmed,
	}
	if err := g.store.Insert(ctx, b); err != nil {
		span.RecordError(err)
		g.observe("error")
		return nil, err
	}

	g.observe("committed")
	g.logger.Info("booking committed",
		"booking_id", b.ID,
		"tenant_id", b.TenantID,
		"staff_id", b.StaffID,
		"starts_at", b.StartsAt,
	)
	return b, nil
}

func (g *Guard) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.ObserveCommit(outcome)
	}
}
