package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/booking"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/catalog"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/schedule"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/pkg/logging"
)

// OfferingSource lists the tenant's bookable services.
type OfferingSource interface {
	ListActiveOfferings(ctx context.Context, tenantID string) ([]catalog.Offering, error)
}

// AvailabilitySource resolves open slots per staff member for a date.
type AvailabilitySource interface {
	StaffAvailability(ctx context.Context, tenantID, serviceID string, date timeutil.Date, durationMinutes int) ([]schedule.StaffSlots, error)
}

// Committer is the guarded booking write path.
type Committer interface {
	Commit(ctx context.Context, req booking.CommitRequest) (*booking.Booking, error)
}

// EngineMetrics counts inbound messages by step and outcome.
type EngineMetrics interface {
	ObserveInbound(step, outcome string)
}

// Reply is what the transport layer sends back to the customer.
type Reply struct {
	Text string `json:"text"`
	Step Step   `json:"step"`
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Sessions     SessionStore
	Offerings    OfferingSource
	Availability AvailabilitySource
	Committer    Committer
	Metrics      EngineMetrics
	Logger       *logging.Logger
	Location     *time.Location
	SessionTTL   time.Duration
	WindowDays   int
}

// Engine is the per-customer booking state machine. Messages for one
// (tenant, phone) key arrive serially from the transport, so no locking is
// needed within a session; sessions for different customers are independent.
type Engine struct {
	sessions     SessionStore
	offerings    OfferingSource
	availability AvailabilitySource
	committer    Committer
	metrics      EngineMetrics
	logger       *logging.Logger
	loc          *time.Location
	sessionTTL   time.Duration
	windowDays   int
	now          func() time.Time
}

// NewEngine constructs the booking conversation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Sessions == nil {
		panic("conversation: session store required")
	}
	if cfg.Offerings == nil {
		panic("conversation: offering source required")
	}
	if cfg.Availability == nil {
		panic("conversation: availability source required")
	}
	if cfg.Committer == nil {
		panic("conversation: committer required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Engine{
		sessions:     cfg.Sessions,
		offerings:    cfg.Offerings,
		availability: cfg.Availability,
		committer:    cfg.Committer,
		metrics:      cfg.Metrics,
		logger:       logger,
		loc:          loc,
		sessionTTL:   ttl,
		windowDays:   windowDays,
		now:          time.Now,
	}
}

// HandleMessage advances the customer's session with one inbound message and
// returns the reply. It never returns an error: internal failures become a
// retry-later reply and leave the stored session untouched, so resending the
// same message is safe.
func (e *Engine) HandleMessage(ctx context.Context, tenantID, phone, text string) Reply {
	input := strings.TrimSpace(text)

	sess, err := e.sessions.Get(ctx, tenantID, phone)
	if err != nil {
		e.logger.Error("session load failed", "tenant_id", tenantID, "phone", phone, "error", err)
		e.observe(StepIdle, "store_error")
		return Reply{Text: msgTryAgainLater, Step: StepIdle}
	}

	if sess != nil && sess.Expired(e.sessionTTL, e.now()) {
		if err := e.sessions.Delete(ctx, tenantID, phone); err != nil {
			e.logger.Warn("expired session cleanup failed", "tenant_id", tenantID, "phone", phone, "error", err)
		}
		sess = nil
	}

	if sess == nil {
		return e.handleIdle(ctx, tenantID, phone, input)
	}

	if isCancellation(input) {
		if err := e.sessions.Delete(ctx, tenantID, phone); err != nil {
			e.logger.Error("session delete failed", "tenant_id", tenantID, "phone", phone, "error", err)
			e.observe(sess.Step, "store_error")
			return Reply{Text: msgTryAgainLater, Step: sess.Step}
		}
		e.observe(sess.Step, "cancelled")
		return Reply{Text: msgCancelled, Step: StepCancelled}
	}

	switch sess.Step {
	case StepServiceSelection:
		return e.handleServiceSelection(ctx, sess, input)
	case StepDateSelection:
		return e.handleDateSelection(ctx, sess, input)
	case StepTimeSelection:
		return e.handleTimeSelection(ctx, sess, input)
	case StepStaffSelection:
		return e.handleStaffSelection(ctx, sess, input)
	case StepConfirmation:
		return e.handleConfirmation(ctx, sess, input)
	default:
		// Unknown step, likely from an older session format. Reset.
		if err := e.sessions.Delete(ctx, tenantID, phone); err != nil {
			e.logger.Error("session reset failed", "tenant_id", tenantID, "phone", phone, "error", err)
			return Reply{Text: msgTryAgainLater, Step: sess.Step}
		}
		return e.handleIdle(ctx, tenantID, phone, input)
	}
}

// handleIdle starts a session on a booking trigger; anything else is a
// greeting and creates nothing.
func (e *Engine) handleIdle(ctx context.Context, tenantID, phone, input string) Reply {
	if !isBookingIntent(input) {
		e.observe(StepIdle, "greeting")
		return Reply{Text: msgGreeting, Step: StepIdle}
	}

	offerings, err := e.offerings.ListActiveOfferings(ctx, tenantID)
	if err != nil {
		e.logger.Error("offerings lookup failed", "tenant_id", tenantID, "error", err)
		e.observe(StepIdle, "store_error")
		return Reply{Text: msgTryAgainLater, Step: StepIdle}
	}
	if len(offerings) == 0 {
		e.observe(StepIdle, "no_offerings")
		return Reply{Text: msgNoOfferings, Step: StepIdle}
	}

	now := e.now()
	sess := &Session{
		TenantID:  tenantID,
		Phone:     phone,
		Step:      StepServiceSelection,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.sessions.Put(ctx, sess); err != nil {
		e.logger.Error("session create failed", "tenant_id", tenantID, "phone", phone, "error", err)
		e.observe(StepIdle, "store_error")
		return Reply{Text: msgTryAgainLater, Step: StepIdle}
	}

	e.observe(StepIdle, "booking_started")
	return Reply{Text: buildServiceList(offerings, false), Step: StepServiceSelection}
}

func (e *Engine) handleServiceSelection(ctx context.Context, sess *Session, input string) Reply {
	offerings, err := e.offerings.ListActiveOfferings(ctx, sess.TenantID)
	if err != nil {
		e.logger.Error("offerings lookup failed", "tenant_id", sess.TenantID, "error", err)
		e.observe(sess.Step, "store_error")
		return Reply{Text: msgTryAgainLater, Step: sess.Step}
	}
	if len(offerings) == 0 {
		e.observe(sess.Step, "no_offerings")
		return Reply{Text: msgNoOfferings, Step: sess.Step}
	}

	names := make([]string, len(offerings))
	for i, o := range offerings {
		names[i] = o.Name
	}
	res := matchSelection(input, names)
	if !res.OK {
		e.observe(sess.Step, "no_match")
		return Reply{Text: buildServiceList(offerings, true), Step: sess.Step}
	}

	chosen := offerings[res.Index]
	sess.ServiceID = chosen.ID
	sess.ServiceName = chosen.Name
	sess.PriceCents = chosen.PriceCents
	sess.DurationMinutes = chosen.DurationMinutes
	sess.OfferedDates = e.upcomingDates()
	sess.Step = StepDateSelection
	if reply, ok := e.save(ctx, sess, StepServiceSelection); !ok {
		return reply
	}

	e.observe(StepServiceSelection, "matched")
	return Reply{Text: buildDateList(sess.OfferedDates, false), Step: StepDateSelection}
}

func (e *Engine) handleDateSelection(ctx context.Context, sess *Session, input string) Reply {
	today := e.today()
	res := matchDate(input, sess.OfferedDates, today)
	if !res.OK {
		e.observe(sess.Step, "no_match")
		return Reply{Text: buildDateList(sess.OfferedDates, true), Step: sess.Step}
	}
	date := sess.OfferedDates[res.Index]
	if date.Before(today) {
		e.observe(sess.Step, "no_match")
		return Reply{Text: buildDateList(sess.OfferedDates, true), Step: sess.Step}
	}

	avail, err := e.availability.StaffAvailability(ctx, sess.TenantID, sess.ServiceID, date, sess.DurationMinutes)
	if err != nil {
		e.logger.Error("availability lookup failed",
			"tenant_id", sess.TenantID, "service_id", sess.ServiceID, "date", date.String(), "error", err)
		e.observe(sess.Step, "store_error")
		return Reply{Text: msgTryAgainLater, Step: sess.Step}
	}
	if len(avail) == 0 {
		// Business outcome, not an error: stay on date selection so the
		// customer can answer with another date.
		e.observe(sess.Step, "no_availability")
		return Reply{Text: buildNoAvailability(date, sess.OfferedDates), Step: sess.Step}
	}

	sess.Date = date
	sess.OfferedStaff = snapshotStaffSlots(avail)
	sess.Step = StepTimeSelection
	if reply, ok := e.save(ctx, sess, StepDateSelection); !ok {
		return reply
	}

	e.observe(StepDateSelection, "matched")
	return Reply{Text: buildTimeList(sess.OfferedTimesUnion(), date, false), Step: StepTimeSelection}
}

func (e *Engine) handleTimeSelection(ctx context.Context, sess *Session, input string) Reply {
	candidates := sess.CandidateTimes()
	canonical, ok := resolveTimeInput(input, candidates)
	if !ok {
		// A well-formed but unavailable time gets the same answer as
		// garbage: the offered list is the only source of truth.
		e.observe(sess.Step, "no_match")
		return Reply{Text: buildTimeList(sess.OfferedTimesUnion(), sess.Date, true), Step: sess.Step}
	}

	sess.Time = canonical
	sess.Step = StepStaffSelection
	if reply, ok := e.save(ctx, sess, StepTimeSelection); !ok {
		return reply
	}

	e.observe(StepTimeSelection, "matched")
	return Reply{
		Text: buildStaffList(sess.StaffAtTime(canonical), e.timeLabel(canonical), false),
		Step: StepStaffSelection,
	}
}

func (e *Engine) handleStaffSelection(ctx context.Context, sess *Session, input string) Reply {
	staff := sess.StaffAtTime(sess.Time)
	names := make([]string, len(staff))
	for i, st := range staff {
		names[i] = st.Name
	}
	res := matchSelection(input, names)
	if !res.OK {
		e.observe(sess.Step, "no_match")
		return Reply{Text: buildStaffList(staff, e.timeLabel(sess.Time), true), Step: sess.Step}
	}

	sess.StaffID = staff[res.Index].ID
	sess.StaffName = staff[res.Index].Name
	sess.Step = StepConfirmation
	if reply, ok := e.save(ctx, sess, StepStaffSelection); !ok {
		return reply
	}

	e.observe(StepStaffSelection, "matched")
	return Reply{Text: buildSummary(sess, e.timeLabel(sess.Time), false), Step: StepConfirmation}
}

func (e *Engine) handleConfirmation(ctx context.Context, sess *Session, input string) Reply {
	switch {
	case isAffirmative(input):
		return e.commit(ctx, sess)
	case isNegative(input):
		if err := e.sessions.Delete(ctx, sess.TenantID, sess.Phone); err != nil {
			e.logger.Error("session delete failed", "tenant_id", sess.TenantID, "phone", sess.Phone, "error", err)
			e.observe(sess.Step, "store_error")
			return Reply{Text: msgTryAgainLater, Step: sess.Step}
		}
		e.observe(sess.Step, "cancelled")
		return Reply{Text: msgCancelled, Step: StepCancelled}
	default:
		e.observe(sess.Step, "no_match")
		return Reply{Text: buildSummary(sess, e.timeLabel(sess.Time), true), Step: sess.Step}
	}
}

// commit runs the guarded write. On a slot conflict the customer goes back to
// time selection with a re-fetched list; on success the session is fully
// cleared so the next "book" starts from scratch.
func (e *Engine) commit(ctx context.Context, sess *Session) Reply {
	chosenTime, err := timeutil.ParseTimeOfDay(sess.Time)
	if err != nil {
		// Corrupt session; reset rather than loop forever.
		e.logger.Error("session carries invalid time", "tenant_id", sess.TenantID, "phone", sess.Phone, "time", sess.Time)
		_ = e.sessions.Delete(ctx, sess.TenantID, sess.Phone)
		e.observe(sess.Step, "store_error")
		return Reply{Text: msgTryAgainLater, Step: StepIdle}
	}

	b, err := e.committer.Commit(ctx, booking.CommitRequest{
		TenantID:        sess.TenantID,
		CustomerPhone:   sess.Phone,
		ServiceID:       sess.ServiceID,
		StaffID:         sess.StaffID,
		Date:            sess.Date,
		Time:            chosenTime,
		DurationMinutes: sess.DurationMinutes,
		AmountCents:     sess.PriceCents,
		Location:        e.loc,
	})
	if errors.Is(err, booking.ErrSlotConflict) {
		return e.recoverFromConflict(ctx, sess)
	}
	if err != nil {
		e.logger.Error("booking commit failed", "tenant_id", sess.TenantID, "phone", sess.Phone, "error", err)
		e.observe(sess.Step, "store_error")
		return Reply{Text: msgTryAgainLater, Step: sess.Step}
	}

	timeLabel := e.timeLabel(sess.Time)
	if err := e.sessions.Delete(ctx, sess.TenantID, sess.Phone); err != nil {
		// The booking exists; the stale session will age out via TTL.
		e.logger.Error("session cleanup after commit failed", "tenant_id", sess.TenantID, "phone", sess.Phone, "error", err)
	}

	e.observe(StepConfirmation, "committed")
	return Reply{Text: buildBookingConfirmed(b, sess, timeLabel), Step: StepCompleted}
}

// recoverFromConflict re-fetches availability after a commit-time conflict and
// moves the customer back to time selection, or date selection when the whole
// day emptied out.
func (e *Engine) recoverFromConflict(ctx context.Context, sess *Session) Reply {
	takenLabel := e.timeLabel(sess.Time)

	avail, err := e.availability.StaffAvailability(ctx, sess.TenantID, sess.ServiceID, sess.Date, sess.DurationMinutes)
	if err != nil {
		e.logger.Error("availability refresh after conflict failed",
			"tenant_id", sess.TenantID, "service_id", sess.ServiceID, "error", err)
		e.observe(sess.Step, "store_error")
		return Reply{Text: msgTryAgainLater, Step: sess.Step}
	}

	sess.ClearSelection()
	if len(avail) == 0 {
		sess.OfferedStaff = nil
		sess.Step = StepDateSelection
		if reply, ok := e.save(ctx, sess, StepConfirmation); !ok {
			return reply
		}
		e.observe(StepConfirmation, "slot_conflict")
		return Reply{Text: buildSlotTakenNoTimes(takenLabel, sess.OfferedDates), Step: StepDateSelection}
	}

	sess.OfferedStaff = snapshotStaffSlots(avail)
	sess.Step = StepTimeSelection
	if reply, ok := e.save(ctx, sess, StepConfirmation); !ok {
		return reply
	}
	e.observe(StepConfirmation, "slot_conflict")
	return Reply{Text: buildSlotTaken(takenLabel, sess.OfferedTimesUnion()), Step: StepTimeSelection}
}

// save persists a transitioned session, refreshing UpdatedAt. On failure the
// stored session is unchanged, so the reply reports the step the customer is
// still at and the same input remains valid on retry.
func (e *Engine) save(ctx context.Context, sess *Session, failStep Step) (Reply, bool) {
	sess.UpdatedAt = e.now()
	if err := e.sessions.Put(ctx, sess); err != nil {
		e.logger.Error("session save failed", "tenant_id", sess.TenantID, "phone", sess.Phone, "error", err)
		e.observe(failStep, "store_error")
		return Reply{Text: msgTryAgainLater, Step: failStep}, false
	}
	return Reply{}, true
}

func (e *Engine) today() timeutil.Date {
	return timeutil.DateOf(e.now().In(e.loc))
}

func (e *Engine) upcomingDates() []timeutil.Date {
	today := e.today()
	dates := make([]timeutil.Date, e.windowDays)
	for i := 0; i < e.windowDays; i++ {
		dates[i] = today.AddDays(i)
	}
	return dates
}

func (e *Engine) timeLabel(canonical string) string {
	t, err := timeutil.ParseTimeOfDay(canonical)
	if err != nil {
		return canonical
	}
	return t.Label()
}

func (e *Engine) observe(step Step, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveInbound(string(step), outcome)
	}
}

// snapshotStaffSlots freezes resolver output into the session for matching at
// the next steps. The commit guard never trusts this snapshot; it re-reads
// live availability.
func snapshotStaffSlots(avail []schedule.StaffSlots) []OfferedStaff {
	out := make([]OfferedStaff, len(avail))
	for i, ss := range avail {
		times := make([]OfferedTime, len(ss.Slots))
		for j, slot := range ss.Slots {
			times[j] = OfferedTime{Canonical: slot.Canonical(), Label: slot.Label}
		}
		out[i] = OfferedStaff{ID: ss.Staff.ID, Name: ss.Staff.Name, Times: times}
	}
	return out
}
