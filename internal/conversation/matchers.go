package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/timeutil"
)

// MatchResult is the outcome of one matcher strategy: either a resolved index
// into the presented list, or no match. Matchers run left-to-right and the
// first hit wins.
type MatchResult struct {
	Index int
	OK    bool
}

// Matched wraps a resolved list index.
func Matched(i int) MatchResult { return MatchResult{Index: i, OK: true} }

// Unmatched is the no-match result.
var Unmatched = MatchResult{Index: -1}

type nameMatcher func(input string, names []string) MatchResult

// selectionMatchers is the priority order for picking from a numbered,
// named list: exact numeric index, exact name, then substring.
var selectionMatchers = []nameMatcher{
	matchByNumber,
	matchByExactName,
	matchBySubstring,
}

// matchSelection resolves free text against a presented list of names.
func matchSelection(input string, names []string) MatchResult {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || len(names) == 0 {
		return Unmatched
	}
	for _, m := range selectionMatchers {
		if res := m(input, names); res.OK {
			return res
		}
	}
	return Unmatched
}

var numberRE = regexp.MustCompile(`^(\d{1,3})$`)

func matchByNumber(input string, names []string) MatchResult {
	m := numberRE.FindStringSubmatch(input)
	if m == nil {
		return Unmatched
	}
	n, _ := strconv.Atoi(m[1])
	if n < 1 || n > len(names) {
		return Unmatched
	}
	return Matched(n - 1)
}

func matchByExactName(input string, names []string) MatchResult {
	for i, name := range names {
		if strings.EqualFold(input, name) {
			return Matched(i)
		}
	}
	return Unmatched
}

func matchBySubstring(input string, names []string) MatchResult {
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), input) {
			return Matched(i)
		}
	}
	return Unmatched
}

var (
	isoDateRE = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numDateRE = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}))?$`)
)

// matchDate resolves input against the offered date list by numeric index,
// relative words, or an explicit date. Dates outside the offered window
// (including past dates) never match.
func matchDate(input string, dates []timeutil.Date, today timeutil.Date) MatchResult {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || len(dates) == 0 {
		return Unmatched
	}

	if m := numberRE.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= len(dates) {
			return Matched(n - 1)
		}
		return Unmatched
	}

	switch input {
	case "today":
		return findDate(today, dates)
	case "tomorrow":
		return findDate(today.AddDays(1), dates)
	}

	if m := isoDateRE.FindStringSubmatch(input); m != nil {
		if d, err := timeutil.ParseDate(input); err == nil {
			return findDate(d, dates)
		}
		return Unmatched
	}

	// "M/D" or "M/D/YYYY", month first.
	if m := numDateRE.FindStringSubmatch(input); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return Unmatched
		}
		year := today.Year
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		d := timeutil.Date{Year: year, Month: time.Month(month), Day: day}
		if m[3] == "" && d.Before(today) {
			d = timeutil.Date{Year: year + 1, Month: time.Month(month), Day: day}
		}
		return findDate(d, dates)
	}

	return Unmatched
}

func findDate(d timeutil.Date, dates []timeutil.Date) MatchResult {
	for i, offered := range dates {
		if offered.Equal(d) {
			return Matched(i)
		}
	}
	return Unmatched
}

// resolveTimeInput accepts either a numeric index into the offered time list
// or any text the time normalizer can canonicalize against it. The index path
// mirrors how dates and services are picked; everything else goes through the
// normalizer, which only ever returns an offered value.
func resolveTimeInput(input string, candidates []string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if m := numberRE.FindStringSubmatch(trimmed); m != nil {
		if n, _ := strconv.Atoi(m[1]); n >= 1 && n <= len(candidates) {
			// Ambiguity rule: a small number is a list index first. A bare
			// hour reading only applies when the number exceeds the list.
			return candidates[n-1], true
		}
	}
	return timeutil.NormalizeTime(trimmed, candidates)
}

// Intent keywords. Matching is deliberately loose: any message containing a
// booking word starts the flow, any containing a cancel word aborts it.
var (
	bookingWords = []string{"book", "appointment", "reserve"}
	cancelWords  = []string{"cancel", "stop", "quit", "never mind", "nevermind"}
	yesWords     = []string{"yes", "y", "yeah", "yep", "confirm", "ok", "okay", "sure"}
	noWords      = []string{"no", "n", "nope"}
)

func isBookingIntent(input string) bool {
	lower := strings.ToLower(input)
	for _, w := range bookingWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func isCancellation(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, w := range cancelWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func isAffirmative(input string) bool {
	return matchesToken(input, yesWords)
}

func isNegative(input string) bool {
	return matchesToken(input, noWords)
}

func matchesToken(input string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, w := range words {
		if lower == w {
			return true
		}
	}
	return false
}
