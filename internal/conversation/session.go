package conversation

import (
	"sort"
	"time"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

// Step is the current position of a booking conversation.
type Step string

const (
	StepIdle             Step = "idle"
	StepServiceSelection Step = "service_selection"
	StepDateSelection    Step = "date_selection"
	StepTimeSelection    Step = "time_selection"
	StepStaffSelection   Step = "staff_selection"
	StepConfirmation     Step = "confirmation"
	StepCompleted        Step = "completed"
	StepCancelled        Step = "cancelled"
)

// OfferedTime is one slot time as presented to the customer: the canonical
// 24-hour value everything matches on, and the 12-hour label they see.
type OfferedTime struct {
	Canonical string `json:"canonical"`
	Label     string `json:"label"`
}

// OfferedStaff snapshots one staff member's open times at the moment they
// were presented. Matching at later steps runs against this snapshot; the
// commit guard re-checks live data before writing.
type OfferedStaff struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Times []OfferedTime `json:"times"`
}

// Session is the per-(tenant, phone) conversation state. At most one live
// session exists per key; it is created on a booking trigger, mutated on every
// valid transition, and destroyed on completion, cancellation or expiry.
type Session struct {
	TenantID        string          `json:"tenant_id"`
	Phone           string          `json:"phone"`
	Step            Step            `json:"step"`
	ServiceID       string          `json:"service_id,omitempty"`
	ServiceName     string          `json:"service_name,omitempty"`
	PriceCents      int             `json:"price_cents,omitempty"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	Date            timeutil.Date   `json:"date,omitempty"`
	Time            string          `json:"time,omitempty"` // canonical "HH:MM"
	StaffID         string          `json:"staff_id,omitempty"`
	StaffName       string          `json:"staff_name,omitempty"`
	OfferedDates    []timeutil.Date `json:"offered_dates,omitempty"`
	OfferedStaff    []OfferedStaff  `json:"offered_staff,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Expired reports whether the session has been idle past the TTL. Expiry is
// checked lazily on the next inbound message; there is no background sweep.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}

// CandidateTimes returns the distinct canonical times across all offered
// staff, ascending. This is the candidate list handed to the time normalizer.
func (s *Session) CandidateTimes() []string {
	union := s.OfferedTimesUnion()
	out := make([]string, len(union))
	for i, t := range union {
		out[i] = t.Canonical
	}
	return out
}

// OfferedTimesUnion returns the distinct offered times across all staff with
// their display labels, ascending by canonical value.
func (s *Session) OfferedTimesUnion() []OfferedTime {
	seen := make(map[string]OfferedTime)
	for _, st := range s.OfferedStaff {
		for _, t := range st.Times {
			if _, ok := seen[t.Canonical]; !ok {
				seen[t.Canonical] = t
			}
		}
	}
	out := make([]OfferedTime, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}

// StaffAtTime returns the offered staff whose slot list contains the given
// canonical time, in presentation order.
func (s *Session) StaffAtTime(canonical string) []OfferedStaff {
	var out []OfferedStaff
	for _, st := range s.OfferedStaff {
		for _, t := range st.Times {
			if t.Canonical == canonical {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

// ClearSelection drops the chosen time and staff, keeping service and date.
// Used when a slot conflict sends the customer back to time selection.
func (s *Session) ClearSelection() {
	s.Time = ""
	s.StaffID = ""
	s.StaffName = ""
}
