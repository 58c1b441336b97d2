// internal/domain/recall/policy.go
package recall

import (
	"strings"
	"time"
)

// DateLayout is the layout used for persisted overdue letter dates.
const DateLayout = "2006-01-02"

// Gaps between recall letters. These are literal business rules, not configuration.
const (
	SecondLetterGap = 7 // days after the first letter before the second one
	FinalLetterGap  = 3 // days between the second letter and every final-tier letter
)

// Decide returns the recall tier due on today for a loan that has already received
// count letters, the last of them on lastLetter. hasLastLetter reports whether
// lastLetter is known; without it no follow-up letter is ever due.
// Rules are evaluated in order and the first match wins.
func Decide(count int, lastLetter time.Time, hasLastLetter bool, today time.Time) Tier {
	switch {
	case count < 0:
		return TierNone
	case count == 0:
		return Tier1
	case !hasLastLetter:
		return TierNone
	case count == 1:
		if daysDue(lastLetter, today, SecondLetterGap) {
			return Tier2
		}
	case count == 2:
		if daysDue(lastLetter, today, FinalLetterGap) {
			return Tier3
		}
	default:
		if daysDue(lastLetter, today, FinalLetterGap) {
			return Tier3
		}
	}
	return TierNone
}

// DecideFromString is Decide for a last letter date in its persisted text form.
// An empty or unparsable date fails closed: no follow-up letter is sent.
func DecideFromString(count int, lastLetter string, today time.Time) Tier {
	last, ok := ParseLetterDate(lastLetter)
	return Decide(count, last, ok, today)
}

// DecideState is Decide over a persisted recall state.
func DecideState(state State, today time.Time) Tier {
	return DecideFromString(state.Count, state.LastLetterDate, today)
}

// letterDateLayouts are the accepted persisted forms of a letter date. The whole
// value must match one of them.
var letterDateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseLetterDate parses a persisted letter date. Only the calendar date part is used.
func ParseLetterDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range letterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOnly strips the clock and location from t, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysDue(last, today time.Time, gap int) bool {
	due := DateOnly(last).AddDate(0, 0, gap)
	return !DateOnly(today).Before(due)
}
