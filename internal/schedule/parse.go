package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnparseableDate is returned when no supported date format matches.
	ErrUnparseableDate = errors.New("schedule: could not understand the day, provide a date like 2025-11-15 or a weekday name")

	// ErrUnparseableSlot is returned when no supported time format matches.
	ErrUnparseableSlot = errors.New("schedule: could not understand the time slot, expected a format like 10:00 AM - 11:00 AM")
)

// longDateLayouts covers day-month-year and month-day-year inputs with full or
// abbreviated month names, with and without a comma after the day.
var longDateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"2 January, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseDate converts a free-form day expression into a calendar date in clinic
// time. In priority order it accepts an ISO date (YYYY-MM-DD), a long-form
// date ("15 November 2025", "November 15, 2025"), or a bare weekday name
// resolved to the next occurrence on or after reference — reference itself
// when it already falls on that weekday.
func ParseDate(input string, reference time.Time) (time.Time, error) {
	raw := collapseSpaces(strings.TrimSpace(input))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnparseableDate)
	}
	loc := ClinicLocation()

	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}

	// Go month parsing is case-sensitive, so normalize word casing first.
	titled := titleWords(raw)
	for _, layout := range longDateLayouts {
		if t, err := time.ParseInLocation(layout, titled, loc); err == nil {
			return t, nil
		}
	}

	if wd, ok := weekdaysByName[strings.ToLower(raw)]; ok {
		return nextWeekday(wd, reference), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, input)
}

// nextWeekday returns the next date falling on the target weekday, counting
// the reference date itself as a 0-day offset rather than wrapping a week.
func nextWeekday(target time.Weekday, reference time.Time) time.Time {
	loc := ClinicLocation()
	ref := reference.In(loc)
	y, m, d := ref.Date()
	base := time.Date(y, m, d, 0, 0, 0, 0, loc)
	ahead := (int(target) - int(base.Weekday()) + 7) % 7
	return base.AddDate(0, 0, ahead)
}

// ParseSlot converts a free-form time expression into a Slot. A range
// ("10:00 AM - 11:00 AM") keeps both endpoints; a single time ("4 PM",
// "4:00 PM", "16:00") becomes a one-hour block starting at that time.
// Membership in the canonical slot list is the caller's concern, not the
// parser's.
func ParseSlot(input string) (Slot, error) {
	raw := collapseSpaces(strings.TrimSpace(input))
	if raw == "" {
		return Slot{}, fmt.Errorf("%w: empty input", ErrUnparseableSlot)
	}

	if strings.Contains(raw, "-") {
		parts := strings.SplitN(raw, "-", 2)
		start, err := parseClock(parts[0])
		if err != nil {
			return Slot{}, fmt.Errorf("%w: %q", ErrUnparseableSlot, input)
		}
		end, err := parseClock(parts[1])
		if err != nil {
			return Slot{}, fmt.Errorf("%w: %q", ErrUnparseableSlot, input)
		}
		return Slot{StartMinute: start, EndMinute: end}, nil
	}

	start, err := parseClock(raw)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnparseableSlot, input)
	}
	return Slot{StartMinute: start, EndMinute: start + 60}, nil
}

var clockLayouts = []string{"3:04 PM", "3 PM", "15:04"}

// parseClock parses a single clock expression into minutes since midnight,
// tolerating case variance and missing or repeated internal whitespace around
// the meridiem marker.
func parseClock(raw string) (int, error) {
	s := strings.ToUpper(collapseSpaces(strings.TrimSpace(raw)))
	// "4PM" -> "4 PM"
	for _, mer := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, mer) && !strings.HasSuffix(s, " "+mer) {
			s = strings.TrimSuffix(s, mer)
			s = strings.TrimSpace(s) + " " + mer
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized clock value %q", raw)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
