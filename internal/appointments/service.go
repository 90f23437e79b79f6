package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Waleed-coder079/clinic-receptionist/internal/events"
	"github.com/Waleed-coder079/clinic-receptionist/internal/observability/metrics"
	"github.com/Waleed-coder079/clinic-receptionist/internal/schedule"
	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.appointments")

// EventAppender records boundary events for the calendar sync routine.
type EventAppender interface {
	Append(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

// Clock supplies the current time; injected so tests control "today".
type Clock func() time.Time

// Service runs the booking and cancellation workflows against the record
// store, with best-effort calendar synchronization through the event outbox.
type Service struct {
	repo    Repository
	events  EventAppender
	cache   *AvailabilityCache
	clock   Clock
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithEvents wires the outbox that feeds the calendar sync routine.
func WithEvents(appender EventAppender) Option {
	return func(s *Service) { s.events = appender }
}

// WithCache wires the availability read-through cache.
func WithCache(cache *AvailabilityCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithClock overrides the reference clock.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithMetrics wires scheduling counters.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the scheduling service.
func NewService(repo Repository, logger *logging.Logger, opts ...Option) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		clock:  func() time.Time { return time.Now().In(schedule.ClinicLocation()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClinicNow returns the current clinic-local date and time in the spoken form
// the front end reads back to patients.
func (s *Service) ClinicNow() string {
	return s.clock().In(schedule.ClinicLocation()).Format("Monday, January 2, 2006 at 3:04 PM")
}

// Book validates the request, reserves the slot in the record store, and
// enqueues best-effort calendar synchronization. The returned appointment is
// confirmed regardless of calendar sync outcome.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.book")
	defer span.End()

	patient := strings.TrimSpace(req.PatientName)
	if patient == "" {
		return nil, ErrMissingPatientName
	}

	branch, err := schedule.ParseBranch(req.City)
	if err != nil {
		return nil, err
	}
	date, err := schedule.ParseDate(req.Day, s.clock())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.branch", string(branch)),
		attribute.String("clinic.date", date.Format("2006-01-02")),
	)

	open, ok := schedule.WeekdayBranch(date.Weekday())
	if !ok {
		return nil, &ClinicClosedError{Date: date}
	}
	if open != branch {
		return nil, &WrongBranchError{Requested: branch, Alternate: schedule.AlternateBranch(branch), Date: date}
	}

	slot, err := schedule.ParseSlot(req.Slot)
	if err != nil {
		return nil, err
	}
	if !schedule.IsCanonical(slot) {
		return nil, &InvalidSlotError{Input: req.Slot}
	}

	dateStr := date.Format("2006-01-02")

	// Conflict check and insert form one logical reservation step; the
	// store's unique constraint on (branch, date, slot) catches the race
	// between the two.
	existing, err := s.repo.ListByBranchDate(ctx, string(branch), dateStr)
	if err != nil {
		s.observeBooking("persistence_error")
		return nil, fmt.Errorf("appointments: failed to check existing bookings, retry later: %w", err)
	}
	for _, a := range existing {
		if a.Slot == slot.String() {
			s.observeBooking("slot_taken")
			return nil, ErrSlotTaken
		}
	}

	appt := &Appointment{
		ID:          newAppointmentID(),
		PatientName: patient,
		Branch:      branch,
		Date:        dateStr,
		Slot:        slot.String(),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := s.repo.Insert(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.observeBooking("slot_taken")
			return nil, ErrSlotTaken
		}
		span.RecordError(err)
		s.observeBooking("persistence_error")
		return nil, fmt.Errorf("appointments: failed to save booking, retry later: %w", err)
	}

	s.cache.Invalidate(ctx, string(branch), dateStr)
	s.enqueueCreated(ctx, appt, date, slot)
	s.observeBooking("confirmed")
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"branch", appt.Branch,
		"date", appt.Date,
		"slot", appt.Slot,
	)
	return appt, nil
}

// enqueueCreated records the appointment-created boundary event. Failure is a
// sync warning only: the booking stays confirmed and the calendar fields stay
// empty until a later pass.
func (s *Service) enqueueCreated(ctx context.Context, appt *Appointment, date time.Time, slot schedule.Slot) {
	if s.events == nil {
		return
	}
	start, end := slot.At(date)
	payload := events.AppointmentCreated{
		AppointmentID: appt.ID,
		PatientName:   appt.PatientName,
		City:          appt.Branch.Title(),
		StartTime:     start.Format(time.RFC3339),
		EndTime:       end.Format(time.RFC3339),
	}
	if _, err := s.events.Append(ctx, events.TypeAppointmentCreated, payload); err != nil {
		s.logger.Warn("calendar sync enqueue failed, booking remains confirmed",
			"error", err, "appointment_id", appt.ID)
	}
}

// Cancel locates the appointment by id or by patient name and date, enqueues
// best-effort deletion of its calendar event, and removes the durable record.
// The record delete decides the reported outcome.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.cancel")
	defer span.End()

	id := strings.TrimSpace(req.AppointmentID)
	patient := strings.TrimSpace(req.PatientName)
	day := strings.TrimSpace(req.Day)

	var appt *Appointment
	var err error
	switch {
	case id != "":
		appt, err = s.repo.GetByID(ctx, id)
	case patient != "" && day != "":
		var date time.Time
		date, err = schedule.ParseDate(day, s.clock())
		if err != nil {
			return nil, err
		}
		appt, err = s.repo.FindByPatientAndDate(ctx, patient, date.Format("2006-01-02"))
	default:
		return nil, ErrMissingCancelKey
	}
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.observeCancellation("not_found")
			return nil, ErrAppointmentNotFound
		}
		s.observeCancellation("persistence_error")
		return nil, fmt.Errorf("appointments: failed to look up appointment, retry later: %w", err)
	}

	// Enqueue the calendar delete before removing the record so the event
	// outlives the row it refers to.
	if appt.CalendarEventID != "" {
		s.enqueueCancelled(ctx, appt)
	}

	deleted, err := s.repo.Delete(ctx, appt.ID)
	if err != nil {
		span.RecordError(err)
		s.observeCancellation("persistence_error")
		return nil, fmt.Errorf("appointments: failed to cancel appointment, retry later: %w", err)
	}
	if !deleted {
		s.observeCancellation("not_found")
		return nil, ErrAppointmentNotFound
	}

	s.cache.Invalidate(ctx, string(appt.Branch), appt.Date)
	s.observeCancellation("cancelled")
	s.logger.Info("appointment cancelled",
		"appointment_id", appt.ID,
		"branch", appt.Branch,
		"date", appt.Date,
		"slot", appt.Slot,
	)
	return appt, nil
}

func (s *Service) enqueueCancelled(ctx context.Context, appt *Appointment) {
	if s.events == nil {
		return
	}
	payload := events.AppointmentCancelled{
		AppointmentID:   appt.ID,
		CalendarEventID: appt.CalendarEventID,
	}
	if _, err := s.events.Append(ctx, events.TypeAppointmentCancelled, payload); err != nil {
		s.logger.Warn("calendar delete enqueue failed, cancellation proceeds",
			"error", err, "appointment_id", appt.ID)
	}
}

// Availability computes the bookable slots for a branch and day, reading
// through the cache when one is wired. Closed and wrong-branch days come back
// as statuses, not errors, so the caller can redirect the patient.
func (s *Service) Availability(ctx context.Context, cityInput, dayInput string) (*Availability, error) {
	ctx, span := tracer.Start(ctx, "appointments.availability")
	defer span.End()

	branch, err := schedule.ParseBranch(cityInput)
	if err != nil {
		return nil, err
	}
	date, err := schedule.ParseDate(dayInput, s.clock())
	if err != nil {
		return nil, err
	}

	view := &Availability{
		Branch:  branch,
		Date:    date.Format("2006-01-02"),
		Weekday: date.Weekday().String(),
	}

	open, ok := schedule.WeekdayBranch(date.Weekday())
	if !ok {
		view.Status = StatusClosed
		return view, nil
	}
	if open != branch {
		view.Status = StatusOtherBranch
		view.Alternate = open
		return view, nil
	}

	free, err := s.freeSlots(ctx, string(branch), view.Date)
	if err != nil {
		return nil, fmt.Errorf("appointments: failed to load bookings, retry later: %w", err)
	}
	if len(free) == 0 {
		view.Status = StatusFullyBooked
		return view, nil
	}
	view.Status = StatusOpen
	view.Slots = free
	return view, nil
}

// freeSlots subtracts booked slots from the canonical list, preserving
// canonical order.
func (s *Service) freeSlots(ctx context.Context, branch, date string) ([]string, error) {
	if cached, ok := s.cache.Get(ctx, branch, date); ok {
		return cached, nil
	}

	booked, err := s.repo.ListByBranchDate(ctx, branch, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		taken[a.Slot] = true
	}

	free := make([]string, 0, 8)
	for _, slot := range schedule.CanonicalSlotStrings() {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	s.cache.Set(ctx, branch, date, free)
	return free, nil
}

// List returns every appointment in creation order.
func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.list")
	defer span.End()

	appts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: failed to list appointments, retry later: %w", err)
	}
	return appts, nil
}

func (s *Service) observeBooking(outcome string) {
	s.metrics.ObserveBooking(outcome)
}

func (s *Service) observeCancellation(outcome string) {
	s.metrics.ObserveCancellation(outcome)
}
