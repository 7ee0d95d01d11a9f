package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, time.September, 2, 10, 0, 0, 0, time.UTC)
	sess := &Session{UpdatedAt: now.Add(-31 * time.Minute)}

	assert.True(t, sess.Expired(30*time.Minute, now))
	assert.False(t, sess.Expired(time.Hour, now))
	assert.False(t, sess.Expired(0, now))
}

func TestOfferedTimesUnion(t *testing.T) {
	sess := &Session{OfferedStaff: []OfferedStaff{
		{ID: "staff-1", Name: "Anna", Times: []OfferedTime{
			{Canonical: "10:00", Label: "10:00 AM"},
			{Canonical: "09:00", Label: "9:00 AM"},
		}},
		{ID: "staff-2", Name: "Mara", Times: []OfferedTime{
			{Canonical: "10:00", Label: "10:00 AM"},
			{Canonical: "14:00", Label: "2:00 PM"},
		}},
	}}

	union := sess.OfferedTimesUnion()
	got := make([]string, len(union))
	for i, u := range union {
		got[i] = u.Canonical
	}
	// Distinct and ascending.
	assert.Equal(t, []string{"09:00", "10:00", "14:00"}, got)
}

func TestStaffAtTime(t *testing.T) {
	sess := &Session{OfferedStaff: []OfferedStaff{
		{ID: "staff-1", Name: "Anna", Times: []OfferedTime{{Canonical: "09:00"}}},
		{ID: "staff-2", Name: "Mara", Times: []OfferedTime{{Canonical: "10:00"}}},
	}}

	staff := sess.StaffAtTime("09:00")
	assert.Len(t, staff, 1)
	assert.Equal(t, "Anna", staff[0].Name)

	assert.Empty(t, sess.StaffAtTime("11:00"))
}

func TestClearSelection(t *testing.T) {
	sess := &Session{Time: "10:00", StaffID: "staff-1", StaffName: "Anna", ServiceID: "svc-1"}
	sess.ClearSelection()

	assert.Empty(t, sess.Time)
	assert.Empty(t, sess.StaffID)
	assert.Empty(t, sess.StaffName)
	assert.Equal(t, "svc-1", sess.ServiceID)
}
