// Package schedule holds the clinic's static weekly schedule: which branch the
// doctor practices at on each weekday, and the canonical daily time slots.
package schedule

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"
)

// Branch identifies one of the two clinic locations.
type Branch string

const (
	BranchSialkot Branch = "sialkot"
	BranchLahore  Branch = "lahore"
)

// HolidayWeekday is the one weekday with no branch open.
const HolidayWeekday = time.Sunday

// ErrUnknownBranch is returned when an input names neither clinic location.
var ErrUnknownBranch = errors.New("schedule: clinic services are only available in Sialkot and Lahore")

// branchByWeekday is the closed weekday mapping. Every weekday except Sunday
// belongs to exactly one branch.
var branchByWeekday = map[time.Weekday]Branch{
	time.Monday:    BranchSialkot,
	time.Tuesday:   BranchSialkot,
	time.Wednesday: BranchSialkot,
	time.Thursday:  BranchLahore,
	time.Friday:    BranchLahore,
	time.Saturday:  BranchLahore,
}

// ParseBranch resolves free-form branch input to a known Branch.
func ParseBranch(input string) (Branch, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case string(BranchSialkot):
		return BranchSialkot, nil
	case string(BranchLahore):
		return BranchLahore, nil
	default:
		return "", ErrUnknownBranch
	}
}

// Title returns the display form of the branch name ("Sialkot", "Lahore").
func (b Branch) Title() string {
	if b == "" {
		return ""
	}
	return strings.ToUpper(string(b[:1])) + string(b[1:])
}

// WeekdayBranch returns the branch open on the given weekday. The second
// return is false on the holiday.
func WeekdayBranch(day time.Weekday) (Branch, bool) {
	b, ok := branchByWeekday[day]
	return b, ok
}

// BranchWeekdays returns the weekdays on which the branch is open, in calendar order.
func BranchWeekdays(b Branch) []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if branchByWeekday[d] == b {
			days = append(days, d)
		}
	}
	return days
}

// AlternateBranch returns the other clinic location. With exactly two branches
// this is a fixed pairing.
func AlternateBranch(b Branch) Branch {
	if b == BranchSialkot {
		return BranchLahore
	}
	return BranchSialkot
}

// clinicTimezone is the fixed IANA zone both branches operate in.
const clinicTimezone = "Asia/Karachi"

// ClinicLocation returns the clinic's *time.Location, falling back to UTC if
// the zone database is unavailable.
func ClinicLocation() *time.Location {
	loc, err := time.LoadLocation(clinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
