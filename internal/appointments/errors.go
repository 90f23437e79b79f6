package appointments

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Waleed-coder079/clinic-receptionist/internal/schedule"
)

var (
	// ErrAppointmentNotFound is returned when no record matches the lookup.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrSlotTaken is returned when the requested (branch, date, slot) is
	// already booked, including when the store reports a uniqueness violation
	// on insert.
	ErrSlotTaken = errors.New("appointments: slot already booked, please pick another slot")

	// ErrMissingCancelKey is returned when a cancellation carries neither an
	// appointment id nor a patient name with a date.
	ErrMissingCancelKey = errors.New("appointments: provide an appointment id, or a patient name together with a date")

	// ErrMissingPatientName is returned when a booking has no patient name.
	ErrMissingPatientName = errors.New("appointments: patient name is required")
)

// ClinicClosedError reports a booking or availability request on the holiday.
type ClinicClosedError struct {
	Date time.Time
}

func (e *ClinicClosedError) Error() string {
	return fmt.Sprintf("appointments: the doctor is on leave on %s (%s), please pick another day",
		e.Date.Weekday(), e.Date.Format("2006-01-02"))
}

// WrongBranchError reports that the doctor practices at the other branch on
// the requested weekday, so the caller can redirect the patient.
type WrongBranchError struct {
	Requested schedule.Branch
	Alternate schedule.Branch
	Date      time.Time
}

func (e *WrongBranchError) Error() string {
	return fmt.Sprintf("appointments: the doctor is not in %s on %s, but is available in %s that day",
		e.Requested.Title(), e.Date.Weekday(), e.Alternate.Title())
}

// InvalidSlotError reports a parseable time that matches no canonical slot.
type InvalidSlotError struct {
	Input string
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("appointments: %q is not a bookable slot, valid slots are: %s",
		e.Input, strings.Join(schedule.CanonicalSlotStrings(), ", "))
}

// IsInputError reports whether the error is user-correctable bad input rather
// than a scheduling conflict or infrastructure failure.
func IsInputError(err error) bool {
	var invalidSlot *InvalidSlotError
	return errors.Is(err, schedule.ErrUnknownBranch) ||
		errors.Is(err, schedule.ErrUnparseableDate) ||
		errors.Is(err, schedule.ErrUnparseableSlot) ||
		errors.Is(err, ErrMissingCancelKey) ||
		errors.Is(err, ErrMissingPatientName) ||
		errors.As(err, &invalidSlot)
}

// IsDomainConflict reports whether the error is a scheduling conflict with an
// actionable alternative (other branch, other slot, other day).
func IsDomainConflict(err error) bool {
	var closed *ClinicClosedError
	var wrongBranch *WrongBranchError
	return errors.Is(err, ErrSlotTaken) ||
		errors.As(err, &closed) ||
		errors.As(err, &wrongBranch)
}
