package schedule

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/pkg/logging"
)

var resolverTracer = otel.Tracer("salonbot.internal.schedule")

// DefaultSlotStepMinutes is the granularity of candidate slot start times.
const DefaultSlotStepMinutes = 30

// BookingSource reads committed booking intervals for conflict checks.
// Implemented by the booking repository; always a live read, never cached,
// so dashboard writes are visible on the next resolution.
type BookingSource interface {
	ListIntervals(ctx context.Context, staffID string, date timeutil.Date) ([]BookedInterval, error)
}

// BookedInterval is an occupied [Start, End) wall-clock interval.
type BookedInterval struct {
	Start timeutil.TimeOfDay
	End   timeutil.TimeOfDay
}

// ResolverMetrics receives resolver timing observations.
type ResolverMetrics interface {
	ObserveResolveLatency(seconds float64)
}

// Resolver turns weekly availability rules, breaks, time off and existing
// bookings into the concrete open slots for a staff member on a date.
type Resolver struct {
	store       Store
	bookings    BookingSource
	stepMinutes int
	metrics     ResolverMetrics
	logger      *logging.Logger
}

// NewResolver constructs a resolver. metrics may be nil.
func NewResolver(store Store, bookings BookingSource, stepMinutes int, metrics ResolverMetrics, logger *logging.Logger) *Resolver {
	if store == nil {
		panic("schedule: store required")
	}
	if bookings == nil {
		panic("schedule: booking source required")
	}
	if stepMinutes <= 0 {
		stepMinutes = DefaultSlotStepMinutes
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		store:       store,
		bookings:    bookings,
		stepMinutes: stepMinutes,
		metrics:     metrics,
		logger:      logger,
	}
}

// AvailableSlots returns the open slots for a staff member on a date, in
// ascending order. An empty result is a business outcome, not an error:
// no rule, a day marked unavailable, or a time-off range all yield nil.
func (r *Resolver) AvailableSlots(ctx context.Context, staffID string, date timeutil.Date, durationMinutes int) ([]Slot, error) {
	ctx, span := resolverTracer.Start(ctx, "schedule.available_slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("salonbot.staff_id", staffID),
		attribute.String("salonbot.date", date.String()),
		attribute.Int("salonbot.duration_minutes", durationMinutes),
	)

	started := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveResolveLatency(time.Since(started).Seconds())
		}
	}()

	if durationMinutes <= 0 {
		return nil, fmt.Errorf("schedule: duration must be positive, got %d", durationMinutes)
	}

	rule, err := r.store.GetAvailabilityRule(ctx, staffID, date.Weekday())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rule == nil || !rule.Available {
		return nil, nil
	}

	timeOff, err := r.store.ListTimeOff(ctx, staffID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, t := range timeOff {
		if t.Covers(date) {
			return nil, nil
		}
	}

	booked, err := r.bookings.ListIntervals(ctx, staffID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var slots []Slot
	for start := rule.Start; start.Add(durationMinutes).Minutes() <= rule.End.Minutes(); start = start.Add(r.stepMinutes) {
		end := start.Add(durationMinutes)

		if rule.HasBreak() && timeutil.Overlaps(start, end, *rule.BreakStart, *rule.BreakEnd) {
			continue
		}

		overlapping := 0
		for _, b := range booked {
			if timeutil.Overlaps(start, end, b.Start, b.End) {
				overlapping++
			}
		}
		if overlapping >= maxAppointments(rule) {
			continue
		}

		slots = append(slots, Slot{Start: start, End: end, Label: start.Label()})
	}
	return slots, nil
}

// StaffAvailability resolves slots for every staff member who performs the
// service, dropping staff with no openings on the date.
func (r *Resolver) StaffAvailability(ctx context.Context, tenantID, serviceID string, date timeutil.Date, durationMinutes int) ([]StaffSlots, error) {
	ctx, span := resolverTracer.Start(ctx, "schedule.staff_availability")
	defer span.End()
	span.SetAttributes(
		attribute.String("salonbot.tenant_id", tenantID),
		attribute.String("salonbot.service_id", serviceID),
		attribute.String("salonbot.date", date.String()),
	)

	staff, err := r.store.ListStaffForService(ctx, tenantID, serviceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out []StaffSlots
	for _, st := range staff {
		slots, err := r.AvailableSlots(ctx, st.ID, date, durationMinutes)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}
		out = append(out, StaffSlots{Staff: st, Slots: slots})
	}
	return out, nil
}

func maxAppointments(rule *AvailabilityRule) int {
	if rule.MaxAppointments <= 0 {
		return 1
	}
	return rule.MaxAppointments
}
