package timeutil

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	meridiemRE = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)$`)
	clockRE    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	bareHourRE = regexp.MustCompile(`^(\d{1,2})$`)
)

// NormalizeTime canonicalizes free-form user text against a list of offered
// canonical "HH:MM" values. The matching rules run in a fixed order and the
// first rule that resolves to an offered candidate wins:
//
//  1. exact string equality, case-insensitive and colon-optional
//     ("0900" and "09:00" both match "09:00")
//  2. 12-hour with am/pm suffix, converted to 24-hour (12am=00:00, 12pm=12:00)
//  3. 24-hour H:MM with no suffix
//  4. bare hour — tried as a 24-hour hour first, then as 12-hour AM
//
// The result is always one of the candidates; text that resolves to a
// well-formed time that is not offered returns ("", false) the same as
// malformed input, so the caller re-prompts either way.
func NormalizeTime(text string, candidates []string) (string, bool) {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" || len(candidates) == 0 {
		return "", false
	}

	// Rule 1: exact canonical match, with or without the colon.
	stripped := strings.ReplaceAll(input, ":", "")
	for _, c := range candidates {
		if input == c || stripped == strings.ReplaceAll(c, ":", "") {
			return c, true
		}
	}

	// Rule 2: 12-hour with explicit meridiem.
	if m := meridiemRE.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour >= 1 && hour <= 12 && minute <= 59 {
			pm := strings.HasPrefix(m[3], "p")
			if pm && hour != 12 {
				hour += 12
			} else if !pm && hour == 12 {
				hour = 0
			}
			if c, ok := findCandidate(TimeOfDay{Hour: hour, Minute: minute}, candidates); ok {
				return c, true
			}
		}
		// Meridiem was explicit; do not reinterpret under later rules.
		return "", false
	}

	// Rule 3: 24-hour with minutes, no suffix.
	if m := clockRE.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			if c, ok := findCandidate(TimeOfDay{Hour: hour, Minute: minute}, candidates); ok {
				return c, true
			}
		}
		return "", false
	}

	// Rule 4: bare hour. The 24-hour reading wins when both readings are
	// offered; the 12-hour AM reading is only a fallback.
	if m := bareHourRE.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour <= 23 {
			if c, ok := findCandidate(TimeOfDay{Hour: hour}, candidates); ok {
				return c, true
			}
		}
		if hour >= 1 && hour <= 12 {
			amHour := hour
			if amHour == 12 {
				amHour = 0
			}
			if c, ok := findCandidate(TimeOfDay{Hour: amHour}, candidates); ok {
				return c, true
			}
		}
	}

	return "", false
}

func findCandidate(t TimeOfDay, candidates []string) (string, bool) {
	want := t.String()
	for _, c := range candidates {
		if c == want {
			return c, true
		}
	}
	return "", false
}
