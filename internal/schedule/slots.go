package schedule

import (
	"fmt"
	"time"
)

// Slot is a one-hour bookable window within a working day. Start and End are
// minutes since midnight in clinic-local time.
type Slot struct {
	StartMinute int
	EndMinute   int
}

// canonicalSlots is the fixed daily slot sequence: a morning block
// (10 AM - 2 PM) and an evening block (4 PM - 8 PM). Order here is
// presentation order.
var canonicalSlots = []Slot{
	{StartMinute: 10 * 60, EndMinute: 11 * 60},
	{StartMinute: 11 * 60, EndMinute: 12 * 60},
	{StartMinute: 12 * 60, EndMinute: 13 * 60},
	{StartMinute: 13 * 60, EndMinute: 14 * 60},
	{StartMinute: 16 * 60, EndMinute: 17 * 60},
	{StartMinute: 17 * 60, EndMinute: 18 * 60},
	{StartMinute: 18 * 60, EndMinute: 19 * 60},
	{StartMinute: 19 * 60, EndMinute: 20 * 60},
}

// CanonicalSlots returns the daily slot sequence in canonical order.
func CanonicalSlots() []Slot {
	out := make([]Slot, len(canonicalSlots))
	copy(out, canonicalSlots)
	return out
}

// CanonicalSlotStrings returns the formatted canonical slots in order.
func CanonicalSlotStrings() []string {
	out := make([]string, len(canonicalSlots))
	for i, s := range canonicalSlots {
		out[i] = s.String()
	}
	return out
}

// IsCanonical reports whether the slot exactly matches one of the daily slots.
func IsCanonical(s Slot) bool {
	for _, c := range canonicalSlots {
		if c == s {
			return true
		}
	}
	return false
}

// String formats the slot in the canonical "hh:mm AM - hh:mm PM" form, with a
// zero-padded 12-hour clock. This is the exact form stored on appointments.
func (s Slot) String() string {
	return formatClock(s.StartMinute) + " - " + formatClock(s.EndMinute)
}

// At anchors the slot to a calendar date, producing clinic-local start and end
// timestamps.
func (s Slot) At(date time.Time) (start, end time.Time) {
	loc := ClinicLocation()
	y, m, d := date.Date()
	start = time.Date(y, m, d, 0, s.StartMinute, 0, 0, loc)
	end = time.Date(y, m, d, 0, s.EndMinute, 0, 0, loc)
	return start, end
}

func formatClock(minute int) string {
	h := minute / 60
	m := minute % 60
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, m, meridiem)
}
