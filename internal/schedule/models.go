package schedule

import (
	"time"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

// AvailabilityRule is a staff member's recurring working-hours definition for
// one day of the week. Managed by the dashboard; read-only here.
type AvailabilityRule struct {
	StaffID         string
	DayOfWeek       time.Weekday
	Start           timeutil.TimeOfDay
	End             timeutil.TimeOfDay
	BreakStart      *timeutil.TimeOfDay
	BreakEnd        *timeutil.TimeOfDay
	Available       bool
	MaxAppointments int
}

// HasBreak reports whether the rule carries a break interval.
func (r AvailabilityRule) HasBreak() bool {
	return r.BreakStart != nil && r.BreakEnd != nil
}

// TimeOff suppresses all availability for a staff member within a date range,
// inclusive on both ends.
type TimeOff struct {
	StaffID string
	From    timeutil.Date
	To      timeutil.Date
}

// Covers reports whether the given date falls inside the time-off range.
func (t TimeOff) Covers(d timeutil.Date) bool {
	return !d.Before(t.From) && !d.After(t.To)
}

// Staff identifies a bookable staff member.
type Staff struct {
	ID   string
	Name string
}

// Slot is a candidate bookable interval for one staff member on one date.
// Start.String() is the canonical value the conversation layer matches on;
// Label is what it presents.
type Slot struct {
	Start timeutil.TimeOfDay
	End   timeutil.TimeOfDay
	Label string
}

// Canonical returns the 24-hour "HH:MM" value used for all matching.
func (s Slot) Canonical() string {
	return s.Start.String()
}

// StaffSlots pairs a staff member with their open slots for one date.
type StaffSlots struct {
	Staff Staff
	Slots []Slot
}
