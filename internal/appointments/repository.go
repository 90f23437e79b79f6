package appointments

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Repository is the durable record store for appointments. Implementations
// must enforce uniqueness on (branch, date, slot) and surface a violation as
// ErrSlotTaken so a lost reservation race reads as a booking conflict, not a
// generic persistence failure.
type Repository interface {
	Insert(ctx context.Context, appt *Appointment) error
	ListByBranchDate(ctx context.Context, branch, date string) ([]*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	FindByPatientAndDate(ctx context.Context, patientName, date string) (*Appointment, error)
	UpdateCalendarFields(ctx context.Context, id, eventID, link string) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*Appointment, error)
}

// InMemoryRepository keeps appointments in memory, preserving creation order.
// It backs tests and local runs without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts []*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Insert stores a copy of the appointment, rejecting branch/date/slot
// duplicates the way the database unique constraint would.
func (r *InMemoryRepository) Insert(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appts {
		if existing.Branch == appt.Branch && existing.Date == appt.Date && existing.Slot == appt.Slot {
			return ErrSlotTaken
		}
	}
	stored := *appt
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.appts = append(r.appts, &stored)
	return nil
}

// ListByBranchDate returns the bookings for one branch and date in creation order.
func (r *InMemoryRepository) ListByBranchDate(ctx context.Context, branch, date string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Appointment
	for _, a := range r.appts {
		if string(a.Branch) == branch && a.Date == date {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetByID returns the appointment with the given id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

// FindByPatientAndDate returns the first appointment matching the
// case-insensitive patient name and exact date.
func (r *InMemoryRepository) FindByPatientAndDate(ctx context.Context, patientName, date string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appts {
		if strings.EqualFold(a.PatientName, patientName) && a.Date == date {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

// UpdateCalendarFields attaches the external calendar event to the record.
func (r *InMemoryRepository) UpdateCalendarFields(ctx context.Context, id, eventID, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.ID == id {
			a.CalendarEventID = eventID
			a.CalendarLink = link
			return nil
		}
	}
	return ErrAppointmentNotFound
}

// Delete removes the appointment, reporting whether a record existed.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.appts {
		if a.ID == id {
			r.appts = append(r.appts[:i], r.appts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// List returns all appointments in creation order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appointment, 0, len(r.appts))
	for _, a := range r.appts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
