// Package appointments implements the clinic's scheduling engine: availability
// computation, the booking and cancellation workflows, and the appointment
// directory, backed by a durable record store and mirrored best-effort into an
// external calendar.
package appointments

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Waleed-coder079/clinic-receptionist/internal/schedule"
)

// Appointment is one booked consultation. Calendar fields stay empty until the
// sync routine has mirrored the booking into the external calendar.
type Appointment struct {
	ID              string          `json:"id"`
	PatientName     string          `json:"patient_name"`
	Branch          schedule.Branch `json:"branch"`
	Date            string          `json:"date"` // ISO YYYY-MM-DD
	Slot            string          `json:"slot"` // canonical "hh:mm AM - hh:mm PM" form
	Notes           string          `json:"notes,omitempty"`
	CalendarEventID string          `json:"calendar_event_id,omitempty"`
	CalendarLink    string          `json:"calendar_link,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Doctor describes the practicing doctor, included in confirmations.
type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	FeeRupees int    `json:"fee_rupees"`
}

// ClinicDoctor is the single doctor both branches schedule for.
var ClinicDoctor = Doctor{
	Name:      "Dr. Sarah Khan",
	Specialty: "Cardiologist",
	FeeRupees: 2500,
}

// newAppointmentID generates a unique APT-prefixed id.
func newAppointmentID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return "APT-" + suffix
}

// BookingRequest carries the raw strings the conversational front end
// extracted from the patient.
type BookingRequest struct {
	PatientName string `json:"patient_name"`
	City        string `json:"city"`
	Day         string `json:"day"`
	Slot        string `json:"slot"`
	Notes       string `json:"notes,omitempty"`
}

// CancelRequest identifies the appointment to cancel, either by id or by
// patient name plus day.
type CancelRequest struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	PatientName   string `json:"patient_name,omitempty"`
	Day           string `json:"day,omitempty"`
}

// AvailabilityStatus classifies what a (branch, date) pair offers.
type AvailabilityStatus string

const (
	// StatusOpen means the branch is open and at least one slot is free.
	StatusOpen AvailabilityStatus = "open"
	// StatusClosed means the date falls on the clinic holiday.
	StatusClosed AvailabilityStatus = "closed"
	// StatusOtherBranch means the doctor practices at the alternate branch
	// that weekday.
	StatusOtherBranch AvailabilityStatus = "other_branch"
	// StatusFullyBooked means the branch is open but every slot is taken.
	StatusFullyBooked AvailabilityStatus = "fully_booked"
)

// Availability is the derived view of bookable slots for a (branch, date)
// pair. Slots preserves canonical order and is only populated for StatusOpen.
type Availability struct {
	Status    AvailabilityStatus `json:"status"`
	Branch    schedule.Branch    `json:"branch"`
	Date      string             `json:"date"`
	Weekday   string             `json:"weekday"`
	Alternate schedule.Branch    `json:"alternate_branch,omitempty"`
	Slots     []string           `json:"slots,omitempty"`
}
