package conversation

import (
	"fmt"
	"strings"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/booking"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/catalog"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

const (
	msgGreeting = "Hi! 👋 Reply \"book\" whenever you'd like to set up an appointment."

	msgTryAgainLater = "Sorry, we're temporarily unable to process your request. Please try again in a moment."

	msgCancelled = "No problem, your booking request has been cancelled. Reply \"book\" anytime to start again."

	msgNoOfferings = "We don't have any services open for online booking right now. Please check back soon!"
)

func formatPrice(cents int) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100.0)
}

// buildServiceList formats the tenant's offerings as a numbered menu.
func buildServiceList(offerings []catalog.Offering, errHint bool) string {
	var sb strings.Builder
	if errHint {
		sb.WriteString("Sorry, I didn't recognize that service. Here are our services:\n\n")
	} else {
		sb.WriteString("Great! Here are our services:\n\n")
	}
	for i, o := range offerings {
		sb.WriteString(fmt.Sprintf("%d. %s — %s (%d min)\n", i+1, o.Name, formatPrice(o.PriceCents), o.DurationMinutes))
	}
	sb.WriteString("\nReply with the number or name of the service you'd like.")
	return sb.String()
}

// buildDateList formats the upcoming bookable dates as a numbered menu.
func buildDateList(dates []timeutil.Date, errHint bool) string {
	var sb strings.Builder
	if errHint {
		sb.WriteString("Sorry, I couldn't match that to an available date. Please pick one of these:\n\n")
	} else {
		sb.WriteString("Which day works for you?\n\n")
	}
	for i, d := range dates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, d.Label()))
	}
	sb.WriteString("\nReply with the number, a date, \"today\" or \"tomorrow\".")
	return sb.String()
}

// buildTimeList formats the open times for the chosen date.
func buildTimeList(times []OfferedTime, date timeutil.Date, errHint bool) string {
	var sb strings.Builder
	if errHint {
		sb.WriteString("Sorry, that time isn't available. Here are the open times:\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Here are the available times for %s:\n\n", date.Label()))
	}
	for i, t := range times {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, t.Label))
	}
	sb.WriteString("\nReply with the number or time you'd like.")
	return sb.String()
}

// buildNoAvailability tells the customer the chosen date has no open slots
// and invites another date, keeping the state explicit.
func buildNoAvailability(date timeutil.Date, dates []timeutil.Date) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Unfortunately there are no open times on %s. 😔\n\nPlease pick another day:\n\n", date.Label()))
	for i, d := range dates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, d.Label()))
	}
	sb.WriteString("\nReply with the number, a date, \"today\" or \"tomorrow\".")
	return sb.String()
}

// buildStaffList formats the staff available at the chosen time.
func buildStaffList(staff []OfferedStaff, timeLabel string, errHint bool) string {
	var sb strings.Builder
	if errHint {
		sb.WriteString("Sorry, I didn't recognize that name. Who would you like?\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Who would you like for %s?\n\n", timeLabel))
	}
	for i, st := range staff {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, st.Name))
	}
	sb.WriteString("\nReply with the number or name.")
	return sb.String()
}

// buildSummary formats the confirmation summary for the collected selections.
func buildSummary(sess *Session, timeLabel string, errHint bool) string {
	var sb strings.Builder
	if errHint {
		sb.WriteString("Please reply \"yes\" to confirm or \"no\" to cancel.\n\n")
	} else {
		sb.WriteString("Here's your booking:\n\n")
	}
	sb.WriteString(fmt.Sprintf("💇 %s — %s (%d min)\n", sess.ServiceName, formatPrice(sess.PriceCents), sess.DurationMinutes))
	sb.WriteString(fmt.Sprintf("📅 %s at %s\n", sess.Date.Label(), timeLabel))
	sb.WriteString(fmt.Sprintf("🧑 %s\n", sess.StaffName))
	sb.WriteString("\nReply \"yes\" to confirm or \"no\" to cancel.")
	return sb.String()
}

// buildBookingConfirmed formats the completion message with the booking id.
func buildBookingConfirmed(b *booking.Booking, sess *Session, timeLabel string) string {
	return fmt.Sprintf(
		"You're booked! 🎉\n\n💇 %s\n📅 %s at %s\n🧑 %s\n\nBooking reference: %s\n\nReply \"book\" anytime for a new appointment.",
		sess.ServiceName, sess.Date.Label(), timeLabel, sess.StaffName, b.ID,
	)
}

// buildSlotTaken explains a commit-time conflict and presents fresh times.
func buildSlotTaken(timeLabel string, times []OfferedTime) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I'm sorry, the %s slot was just taken. Here are the current open times:\n\n", timeLabel))
	for i, t := range times {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, t.Label))
	}
	sb.WriteString("\nReply with the number or time you'd like.")
	return sb.String()
}

// buildSlotTakenNoTimes explains a conflict that emptied the whole day.
func buildSlotTakenNoTimes(timeLabel string, dates []timeutil.Date) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I'm sorry, the %s slot was just taken and there are no other open times that day. 😔\n\nPlease pick another day:\n\n", timeLabel))
	for i, d := range dates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, d.Label()))
	}
	sb.WriteString("\nReply with the number, a date, \"today\" or \"tomorrow\".")
	return sb.String()
}
