package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Waleed-coder079/clinic-receptionist/internal/appointments"
	"github.com/Waleed-coder079/clinic-receptionist/internal/events"
	"github.com/Waleed-coder079/clinic-receptionist/internal/observability/metrics"
	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

// recordStore is the slice of the appointment repository the syncer needs.
type recordStore interface {
	UpdateCalendarFields(ctx context.Context, id, eventID, link string) error
}

// Syncer consumes appointment boundary events from the outbox and mirrors
// them into the calendar. Handle errors leave the event pending, so an
// unreachable calendar service is retried on later passes without ever having
// blocked the booking or cancellation that produced the event.
type Syncer struct {
	client  *Client
	store   recordStore
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
}

// NewSyncer builds the outbox delivery handler for calendar sync.
func NewSyncer(client *Client, store recordStore, logger *logging.Logger, m *metrics.SchedulingMetrics) *Syncer {
	if client == nil {
		panic("calendar: client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Syncer{client: client, store: store, logger: logger, metrics: m}
}

// Handle dispatches one outbox entry.
func (s *Syncer) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeAppointmentCreated:
		return s.handleCreated(ctx, entry)
	case events.TypeAppointmentCancelled:
		return s.handleCancelled(ctx, entry)
	default:
		// Unknown types are acknowledged, not retried forever.
		s.logger.Warn("skipping unknown outbox event type", "type", entry.Type, "event_id", entry.ID)
		return nil
	}
}

func (s *Syncer) handleCreated(ctx context.Context, entry events.OutboxEntry) error {
	var payload events.AppointmentCreated
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		// A malformed payload will never deliver; log and acknowledge.
		s.logger.Error("dropping malformed appointment.created event", "error", err, "event_id", entry.ID)
		return nil
	}

	event, err := s.client.CreateEvent(ctx, CreateEventRequest{
		PatientName: payload.PatientName,
		City:        payload.City,
		StartTime:   payload.StartTime,
		EndTime:     payload.EndTime,
	})
	if err != nil {
		s.metrics.ObserveCalendarSync(entry.Type, "error")
		return fmt.Errorf("calendar: sync create for %s: %w", payload.AppointmentID, err)
	}

	if err := s.store.UpdateCalendarFields(ctx, payload.AppointmentID, event.EventID, event.HTMLLink); err != nil {
		// The appointment may have been cancelled between booking and sync;
		// the created event is then stale and the cancel path owns cleanup.
		if errors.Is(err, appointments.ErrAppointmentNotFound) {
			s.logger.Warn("appointment gone before calendar sync completed",
				"appointment_id", payload.AppointmentID, "event_id", entry.ID)
			s.metrics.ObserveCalendarSync(entry.Type, "stale")
			return nil
		}
		s.metrics.ObserveCalendarSync(entry.Type, "error")
		return fmt.Errorf("calendar: persist event fields for %s: %w", payload.AppointmentID, err)
	}

	s.metrics.ObserveCalendarSync(entry.Type, "ok")
	s.logger.Info("calendar event created",
		"appointment_id", payload.AppointmentID, "calendar_event_id", event.EventID)
	return nil
}

func (s *Syncer) handleCancelled(ctx context.Context, entry events.OutboxEntry) error {
	var payload events.AppointmentCancelled
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		s.logger.Error("dropping malformed appointment.cancelled event", "error", err, "event_id", entry.ID)
		return nil
	}

	if err := s.client.DeleteEvent(ctx, payload.CalendarEventID); err != nil {
		s.metrics.ObserveCalendarSync(entry.Type, "error")
		return fmt.Errorf("calendar: sync delete for %s: %w", payload.AppointmentID, err)
	}

	s.metrics.ObserveCalendarSync(entry.Type, "ok")
	s.logger.Info("calendar event deleted",
		"appointment_id", payload.AppointmentID, "calendar_event_id", payload.CalendarEventID)
	return nil
}
