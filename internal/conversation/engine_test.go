package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/booking"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/catalog"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/schedule"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

const (
	testTenant = "tenant-1"
	testPhone  = "+15551234567"
)

var fixedNow = time.Date(2026, time.September, 2, 10, 0, 0, 0, time.UTC)

type stubOfferings struct {
	offerings []catalog.Offering
	err       error
}

func (s *stubOfferings) ListActiveOfferings(ctx context.Context, tenantID string) ([]catalog.Offering, error) {
	return s.offerings, s.err
}

type stubAvailability struct {
	out   []schedule.StaffSlots
	err   error
	calls int
}

func (s *stubAvailability) StaffAvailability(ctx context.Context, tenantID, serviceID string, date timeutil.Date, durationMinutes int) ([]schedule.StaffSlots, error) {
	s.calls++
	return s.out, s.err
}

type stubCommitter struct {
	err  error
	reqs []booking.CommitRequest
}

func (s *stubCommitter) Commit(ctx context.Context, req booking.CommitRequest) (*booking.Booking, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Booking{
		ID:       uuid.New(),
		TenantID: req.TenantID,
		StaffID:  req.StaffID,
		StartsAt: req.Date.At(req.Time, time.UTC),
		Status:   booking.StatusConfirmed,
	}, nil
}

type engineFixture struct {
	engine       *Engine
	sessions     *MemorySessionStore
	offerings    *stubOfferings
	availability *stubAvailability
	committer    *stubCommitter
}

func newFixture() *engineFixture {
	f := &engineFixture{
		sessions: NewMemorySessionStore(),
		offerings: &stubOfferings{offerings: []catalog.Offering{
			{ID: "svc-1", Name: "Haircut", PriceCents: 4500, DurationMinutes: 60},
			{ID: "svc-2", Name: "Manicure", PriceCents: 3000, DurationMinutes: 30},
		}},
		availability: &stubAvailability{out: []schedule.StaffSlots{
			{
				Staff: schedule.Staff{ID: "staff-1", Name: "Anna"},
				Slots: []schedule.Slot{
					slotAt(9, 0, 60),
					slotAt(10, 0, 60),
				},
			},
			{
				Staff: schedule.Staff{ID: "staff-2", Name: "Mara"},
				Slots: []schedule.Slot{
					slotAt(10, 0, 60),
				},
			},
		}},
		committer: &stubCommitter{},
	}
	f.engine = NewEngine(EngineConfig{
		Sessions:     f.sessions,
		Offerings:    f.offerings,
		Availability: f.availability,
		Committer:    f.committer,
		Location:     time.UTC,
		SessionTTL:   30 * time.Minute,
		WindowDays:   7,
	})
	f.engine.now = func() time.Time { return fixedNow }
	return f
}

func slotAt(h, m, durationMinutes int) schedule.Slot {
	start := timeutil.TimeOfDay{Hour: h, Minute: m}
	return schedule.Slot{Start: start, End: start.Add(durationMinutes), Label: start.Label()}
}

func (f *engineFixture) send(t *testing.T, text string) Reply {
	t.Helper()
	return f.engine.HandleMessage(context.Background(), testTenant, testPhone, text)
}

// advanceToConfirmation walks the happy path up to the summary prompt.
func (f *engineFixture) advanceToConfirmation(t *testing.T) {
	t.Helper()
	f.send(t, "book")
	f.send(t, "1")     // Haircut
	f.send(t, "2")     // tomorrow
	f.send(t, "10:00") // both staff offer it
	reply := f.send(t, "Anna")
	require.Equal(t, StepConfirmation, reply.Step)
}

func TestGreetingDoesNotCreateSession(t *testing.T) {
	f := newFixture()

	reply := f.send(t, "hello")
	assert.Equal(t, StepIdle, reply.Step)
	assert.Equal(t, msgGreeting, reply.Text)

	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestBookingIntentStartsSession(t *testing.T) {
	f := newFixture()

	reply := f.send(t, "I want to book an appointment")
	assert.Equal(t, StepServiceSelection, reply.Step)
	assert.Contains(t, reply.Text, "1. Haircut")
	assert.Contains(t, reply.Text, "2. Manicure")
	assert.Contains(t, reply.Text, "$45.00")

	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, StepServiceSelection, sess.Step)
}

func TestFullHappyPath(t *testing.T) {
	f := newFixture()

	f.send(t, "book")

	reply := f.send(t, "haircut")
	assert.Equal(t, StepDateSelection, reply.Step)

	reply = f.send(t, "tomorrow")
	assert.Equal(t, StepTimeSelection, reply.Step)
	assert.Contains(t, reply.Text, "9:00 AM")
	assert.Contains(t, reply.Text, "10:00 AM")

	reply = f.send(t, "10am")
	assert.Equal(t, StepStaffSelection, reply.Step)
	assert.Contains(t, reply.Text, "Anna")
	assert.Contains(t, reply.Text, "Mara")

	reply = f.send(t, "anna")
	assert.Equal(t, StepConfirmation, reply.Step)
	assert.Contains(t, reply.Text, "Haircut")
	assert.Contains(t, reply.Text, "10:00 AM")
	assert.Contains(t, reply.Text, "Anna")

	reply = f.send(t, "yes")
	assert.Equal(t, StepCompleted, reply.Step)
	assert.Contains(t, reply.Text, "You're booked")

	require.Len(t, f.committer.reqs, 1)
	req := f.committer.reqs[0]
	assert.Equal(t, "svc-1", req.ServiceID)
	assert.Equal(t, "staff-1", req.StaffID)
	assert.Equal(t, timeutil.TimeOfDay{Hour: 10}, req.Time)
	assert.Equal(t, 60, req.DurationMinutes)
	assert.Equal(t, 4500, req.AmountCents)
	assert.True(t, req.Date.Equal(timeutil.DateOf(fixedNow).AddDays(1)))

	// Session is gone; a new "book" starts from scratch.
	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)

	reply = f.send(t, "book")
	assert.Equal(t, StepServiceSelection, reply.Step)
}

func TestTimeSelectionByListIndex(t *testing.T) {
	f := newFixture()
	f.send(t, "book")
	f.send(t, "1")
	f.send(t, "1") // today

	// Two distinct times offered: 09:00 and 10:00. "1" picks the first.
	reply := f.send(t, "1")
	assert.Equal(t, StepStaffSelection, reply.Step)

	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Equal(t, "09:00", sess.Time)
}

func TestStaffFilteredByChosenTime(t *testing.T) {
	f := newFixture()
	f.send(t, "book")
	f.send(t, "1")
	f.send(t, "1")

	// Only Anna offers 09:00.
	reply := f.send(t, "9am")
	assert.Equal(t, StepStaffSelection, reply.Step)
	assert.Contains(t, reply.Text, "Anna")
	assert.NotContains(t, reply.Text, "Mara")
}

func TestUnrecognizedServiceReprompts(t *testing.T) {
	f := newFixture()
	f.send(t, "book")

	reply := f.send(t, "massage")
	assert.Equal(t, StepServiceSelection, reply.Step)
	assert.Contains(t, reply.Text, "didn't recognize")

	// The session did not advance.
	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Equal(t, StepServiceSelection, sess.Step)
	assert.Empty(t, sess.ServiceID)
}

func TestUnavailableTimeReprompts(t *testing.T) {
	f := newFixture()
	f.send(t, "book")
	f.send(t, "1")
	f.send(t, "1")

	reply := f.send(t, "3pm")
	assert.Equal(t, StepTimeSelection, reply.Step)
	assert.Contains(t, reply.Text, "isn't available")
}

func TestNoAvailabilityStaysOnDateSelection(t *testing.T) {
	f := newFixture()
	f.availability.out = nil
	f.send(t, "book")
	f.send(t, "1")

	reply := f.send(t, "tomorrow")
	assert.Equal(t, StepDateSelection, reply.Step)
	assert.Contains(t, reply.Text, "no open times")

	// Choosing a date after availability returns works on the next try.
	f.availability.out = newFixture().availability.out
	reply = f.send(t, "3")
	assert.Equal(t, StepTimeSelection, reply.Step)
}

func TestCancellationMidFlow(t *testing.T) {
	f := newFixture()
	f.send(t, "book")
	f.send(t, "1")

	reply := f.send(t, "cancel")
	assert.Equal(t, StepCancelled, reply.Step)
	assert.Equal(t, msgCancelled, reply.Text)

	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestConfirmationDecline(t *testing.T) {
	f := newFixture()
	f.advanceToConfirmation(t)

	reply := f.send(t, "no")
	assert.Equal(t, StepCancelled, reply.Step)
	assert.Empty(t, f.committer.reqs)
}

func TestConfirmationGibberishReprompts(t *testing.T) {
	f := newFixture()
	f.advanceToConfirmation(t)

	reply := f.send(t, "maybe")
	assert.Equal(t, StepConfirmation, reply.Step)
	assert.Contains(t, reply.Text, "\"yes\" to confirm")
	assert.Empty(t, f.committer.reqs)
}

func TestSlotConflictReturnsToTimeSelection(t *testing.T) {
	f := newFixture()
	f.advanceToConfirmation(t)

	// The 10:00 slot disappears between summary and commit.
	f.committer.err = booking.ErrSlotConflict
	f.availability.out = []schedule.StaffSlots{
		{
			Staff: schedule.Staff{ID: "staff-1", Name: "Anna"},
			Slots: []schedule.Slot{slotAt(9, 0, 60)},
		},
	}

	reply := f.send(t, "yes")
	assert.Equal(t, StepTimeSelection, reply.Step)
	assert.Contains(t, reply.Text, "just taken")
	assert.Contains(t, reply.Text, "1. 9:00 AM")
	assert.NotContains(t, reply.Text, "2. ")

	// Selection was cleared; picking the remaining time proceeds normally.
	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Empty(t, sess.Time)
	assert.Empty(t, sess.StaffID)

	f.committer.err = nil
	reply = f.send(t, "9am")
	assert.Equal(t, StepStaffSelection, reply.Step)
}

func TestSlotConflictWithEmptyDayReturnsToDateSelection(t *testing.T) {
	f := newFixture()
	f.advanceToConfirmation(t)

	f.committer.err = booking.ErrSlotConflict
	f.availability.out = nil

	reply := f.send(t, "yes")
	assert.Equal(t, StepDateSelection, reply.Step)
	assert.Contains(t, reply.Text, "no other open times")
}

func TestExpiredSessionTreatedAsNew(t *testing.T) {
	f := newFixture()
	f.send(t, "book")
	f.send(t, "1")

	// Jump past the TTL.
	f.engine.now = func() time.Time { return fixedNow.Add(time.Hour) }

	reply := f.send(t, "2")
	// "2" is not a booking trigger for a fresh conversation.
	assert.Equal(t, StepIdle, reply.Step)
	assert.Equal(t, msgGreeting, reply.Text)

	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStoreErrorLeavesSessionUntouched(t *testing.T) {
	f := newFixture()
	f.send(t, "book")

	f.offerings.err = errors.New("db down")
	reply := f.send(t, "1")
	assert.Equal(t, StepServiceSelection, reply.Step)
	assert.Equal(t, msgTryAgainLater, reply.Text)

	// Retrying the same message after recovery works.
	f.offerings.err = nil
	reply = f.send(t, "1")
	assert.Equal(t, StepDateSelection, reply.Step)
}

func TestCommitErrorKeepsConfirmationStep(t *testing.T) {
	f := newFixture()
	f.advanceToConfirmation(t)

	f.committer.err = errors.New("insert failed")
	reply := f.send(t, "yes")
	assert.Equal(t, StepConfirmation, reply.Step)
	assert.Equal(t, msgTryAgainLater, reply.Text)

	// The session survives, so "yes" can be retried.
	f.committer.err = nil
	reply = f.send(t, "yes")
	assert.Equal(t, StepCompleted, reply.Step)
}

func TestNoOfferingsConfigured(t *testing.T) {
	f := newFixture()
	f.offerings.offerings = nil

	reply := f.send(t, "book")
	assert.Equal(t, StepIdle, reply.Step)
	assert.Equal(t, msgNoOfferings, reply.Text)

	sess, err := f.sessions.Get(context.Background(), testTenant, testPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionsAreIndependentPerCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.send(t, "book")
	f.engine.HandleMessage(ctx, testTenant, "+15559999999", "book")

	f.send(t, "1")

	other, err := f.sessions.Get(ctx, testTenant, "+15559999999")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, StepServiceSelection, other.Step)

	mine, err := f.sessions.Get(ctx, testTenant, testPhone)
	require.NoError(t, err)
	assert.Equal(t, StepDateSelection, mine.Step)
}
