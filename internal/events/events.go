// Package events carries the boundary events between the booking engine and
// the calendar sync routine through a transactional outbox, so calendar
// mirroring never sits inline with a booking or cancellation.
package events

// Event types consumed by the calendar sync routine.
const (
	TypeAppointmentCreated   = "appointment.created"
	TypeAppointmentCancelled = "appointment.cancelled"
)

// AppointmentCreated asks the sync routine to mirror a fresh booking into the
// external calendar. Timestamps are RFC3339 with the clinic's fixed offset.
type AppointmentCreated struct {
	AppointmentID string `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	City          string `json:"city"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// AppointmentCancelled asks the sync routine to drop the mirrored calendar
// event. Emitted only for appointments that had a calendar event attached.
type AppointmentCancelled struct {
	AppointmentID   string `json:"appointment_id"`
	CalendarEventID string `json:"calendar_event_id"`
}
