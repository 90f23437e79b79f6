package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Waleed-coder079/clinic-receptionist/internal/events"
	"github.com/Waleed-coder079/clinic-receptionist/internal/schedule"
	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

// fixedClock anchors "today" to Monday 2025-11-10 in clinic time.
func fixedClock() time.Time {
	return time.Date(2025, time.November, 10, 9, 0, 0, 0, schedule.ClinicLocation())
}

type capturingAppender struct {
	types    []string
	payloads []json.RawMessage
	err      error
}

func (a *capturingAppender) Append(ctx context.Context, eventType string, payload any) (uuid.UUID, error) {
	if a.err != nil {
		return uuid.Nil, a.err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}
	a.types = append(a.types, eventType)
	a.payloads = append(a.payloads, data)
	return uuid.New(), nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewService(repo, logging.New("error"), opts...), repo
}

func TestBookConfirmsAndEnqueuesCalendarSync(t *testing.T) {
	appender := &capturingAppender{}
	svc, _ := newTestService(t, WithEvents(appender))

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "Sialkot",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
		Notes:       "chest pain follow-up",
	})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if appt.ID == "" || appt.ID[:4] != "APT-" {
		t.Fatalf("unexpected appointment id %q", appt.ID)
	}
	if appt.Branch != schedule.BranchSialkot || appt.Date != "2025-11-11" || appt.Slot != "10:00 AM - 11:00 AM" {
		t.Fatalf("unexpected appointment fields: %+v", appt)
	}
	if appt.CalendarEventID != "" || appt.CalendarLink != "" {
		t.Fatalf("calendar fields must stay empty until sync: %+v", appt)
	}

	if len(appender.types) != 1 || appender.types[0] != events.TypeAppointmentCreated {
		t.Fatalf("expected one appointment.created event, got %v", appender.types)
	}
	var payload events.AppointmentCreated
	if err := json.Unmarshal(appender.payloads[0], &payload); err != nil {
		t.Fatalf("unmarshal event payload: %v", err)
	}
	if payload.AppointmentID != appt.ID || payload.City != "Sialkot" {
		t.Fatalf("unexpected event payload: %+v", payload)
	}
	if payload.StartTime != "2025-11-11T10:00:00+05:00" || payload.EndTime != "2025-11-11T11:00:00+05:00" {
		t.Fatalf("timestamps must carry the clinic offset: %+v", payload)
	}
}

func TestBookTwiceYieldsSlotTaken(t *testing.T) {
	svc, _ := newTestService(t)
	req := BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "11:00 AM - 12:00 PM",
	}

	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	req.PatientName = "Sana Tariq"
	_, err := svc.Book(context.Background(), req)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if !IsDomainConflict(err) {
		t.Fatal("slot-taken must classify as a domain conflict")
	}
}

func TestBookOnSundayNeverReachesPersistence(t *testing.T) {
	svc, repo := newTestService(t)

	// 2025-11-16 is a Sunday.
	_, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "lahore",
		Day:         "2025-11-16",
		Slot:        "10:00 AM - 11:00 AM",
	})
	var closed *ClinicClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("expected ClinicClosedError, got %v", err)
	}
	if all, _ := repo.List(context.Background()); len(all) != 0 {
		t.Fatalf("holiday booking must not persist, found %d records", len(all))
	}
}

func TestBookWrongBranchNamesAlternateAndDoesNotPersist(t *testing.T) {
	svc, repo := newTestService(t)

	// 2025-11-11 is a Tuesday: Sialkot day, Lahore requested.
	_, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "lahore",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
	})
	var wrongBranch *WrongBranchError
	if !errors.As(err, &wrongBranch) {
		t.Fatalf("expected WrongBranchError, got %v", err)
	}
	if wrongBranch.Alternate != schedule.BranchSialkot {
		t.Fatalf("expected Sialkot as alternate, got %s", wrongBranch.Alternate)
	}
	if all, _ := repo.List(context.Background()); len(all) != 0 {
		t.Fatal("wrong-branch booking must not persist a record")
	}
}

func TestBookValidationFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  BookingRequest
		want func(error) bool
	}{
		{
			name: "unsupported branch",
			req:  BookingRequest{PatientName: "A", City: "karachi", Day: "2025-11-11", Slot: "4 PM"},
			want: func(err error) bool { return errors.Is(err, schedule.ErrUnknownBranch) },
		},
		{
			name: "unparseable date",
			req:  BookingRequest{PatientName: "A", City: "sialkot", Day: "someday", Slot: "4 PM"},
			want: func(err error) bool { return errors.Is(err, schedule.ErrUnparseableDate) },
		},
		{
			name: "unparseable slot",
			req:  BookingRequest{PatientName: "A", City: "sialkot", Day: "2025-11-11", Slot: "late evening"},
			want: func(err error) bool { return errors.Is(err, schedule.ErrUnparseableSlot) },
		},
		{
			name: "non-canonical slot",
			req:  BookingRequest{PatientName: "A", City: "sialkot", Day: "2025-11-11", Slot: "3:00 PM"},
			want: func(err error) bool {
				var invalid *InvalidSlotError
				return errors.As(err, &invalid)
			},
		},
		{
			name: "missing patient name",
			req:  BookingRequest{City: "sialkot", Day: "2025-11-11", Slot: "4 PM"},
			want: func(err error) bool { return errors.Is(err, ErrMissingPatientName) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(ctx, tc.req)
			if err == nil || !tc.want(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if !IsInputError(err) {
				t.Fatalf("%v must classify as an input error", err)
			}
		})
	}
}

func TestBookAcceptsWeekdayNameAndSingleTime(t *testing.T) {
	svc, _ := newTestService(t)

	// Clock is Monday 2025-11-10; "wednesday" is 2025-11-12, a Sialkot day.
	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Sana Tariq",
		City:        "Sialkot",
		Day:         "wednesday",
		Slot:        "4 PM",
	})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if appt.Date != "2025-11-12" {
		t.Fatalf("expected 2025-11-12, got %s", appt.Date)
	}
	if appt.Slot != "04:00 PM - 05:00 PM" {
		t.Fatalf("expected canonical slot form, got %q", appt.Slot)
	}
}

func TestBookSurvivesOutboxFailure(t *testing.T) {
	appender := &capturingAppender{err: errors.New("outbox down")}
	svc, repo := newTestService(t, WithEvents(appender))

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
	})
	if err != nil {
		t.Fatalf("booking must not fail on sync enqueue problems: %v", err)
	}
	if got, gerr := repo.GetByID(context.Background(), appt.ID); gerr != nil || got == nil {
		t.Fatalf("appointment must be persisted: %v", gerr)
	}
}

func TestCancelByID(t *testing.T) {
	svc, repo := newTestService(t)
	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
	})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	got, err := svc.Cancel(context.Background(), CancelRequest{AppointmentID: appt.ID})
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if got.ID != appt.ID {
		t.Fatalf("expected snapshot of %s, got %s", appt.ID, got.ID)
	}
	if _, err := repo.GetByID(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatal("record must be deleted after cancellation")
	}
}

func TestCancelByPatientAndDateIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
	}); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	got, err := svc.Cancel(context.Background(), CancelRequest{PatientName: "ali raza", Day: "2025-11-11"})
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if got.PatientName != "Ali Raza" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestCancelEnqueuesCalendarDeleteOnlyWhenEventExists(t *testing.T) {
	appender := &capturingAppender{}
	svc, repo := newTestService(t, WithEvents(appender))

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
	})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}
	if err := repo.UpdateCalendarFields(context.Background(), appt.ID, "evt-1", "https://calendar/evt-1"); err != nil {
		t.Fatalf("attach calendar event: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), CancelRequest{AppointmentID: appt.ID}); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	if len(appender.types) != 2 || appender.types[1] != events.TypeAppointmentCancelled {
		t.Fatalf("expected appointment.cancelled event, got %v", appender.types)
	}
	var payload events.AppointmentCancelled
	if err := json.Unmarshal(appender.payloads[1], &payload); err != nil {
		t.Fatalf("unmarshal cancelled payload: %v", err)
	}
	if payload.CalendarEventID != "evt-1" {
		t.Fatalf("unexpected cancelled payload: %+v", payload)
	}
}

func TestCancelWithoutCalendarEventSkipsDeleteEvent(t *testing.T) {
	appender := &capturingAppender{}
	svc, _ := newTestService(t, WithEvents(appender))

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "10:00 AM - 11:00 AM",
	})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), CancelRequest{AppointmentID: appt.ID}); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	for _, typ := range appender.types {
		if typ == events.TypeAppointmentCancelled {
			t.Fatal("no calendar delete should be enqueued without a calendar event id")
		}
	}
}

func TestCancelNonexistentReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Cancel(context.Background(), CancelRequest{AppointmentID: "APT-MISSING"})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestCancelRequiresIDOrPatientAndDate(t *testing.T) {
	svc, _ := newTestService(t)
	for _, req := range []CancelRequest{
		{},
		{PatientName: "Ali Raza"},
		{Day: "2025-11-11"},
	} {
		if _, err := svc.Cancel(context.Background(), req); !errors.Is(err, ErrMissingCancelKey) {
			t.Fatalf("Cancel(%+v): expected ErrMissingCancelKey, got %v", req, err)
		}
	}
}

func TestAvailabilityStatuses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	closed, err := svc.Availability(ctx, "lahore", "2025-11-16")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if closed.Status != StatusClosed {
		t.Fatalf("Sunday must be closed, got %s", closed.Status)
	}

	redirect, err := svc.Availability(ctx, "lahore", "2025-11-11")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if redirect.Status != StatusOtherBranch || redirect.Alternate != schedule.BranchSialkot {
		t.Fatalf("Tuesday in Lahore must redirect to Sialkot, got %+v", redirect)
	}

	open, err := svc.Availability(ctx, "sialkot", "2025-11-11")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if open.Status != StatusOpen || len(open.Slots) != 8 {
		t.Fatalf("expected 8 free slots, got %+v", open)
	}
}

func TestAvailabilityShrinksAfterBookingOrderPreserved(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, BookingRequest{
		PatientName: "Ali Raza",
		City:        "sialkot",
		Day:         "2025-11-11",
		Slot:        "12:00 PM - 01:00 PM",
	}); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	view, err := svc.Availability(ctx, "sialkot", "2025-11-11")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(view.Slots) != 7 {
		t.Fatalf("expected 7 free slots, got %d", len(view.Slots))
	}
	canonical := schedule.CanonicalSlotStrings()
	want := append(append([]string{}, canonical[:2]...), canonical[3:]...)
	for i := range want {
		if view.Slots[i] != want[i] {
			t.Fatalf("order not preserved at %d: got %q want %q", i, view.Slots[i], want[i])
		}
	}
}

func TestAvailabilityFullyBookedDistinctFromClosed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, slot := range schedule.CanonicalSlotStrings() {
		if _, err := svc.Book(ctx, BookingRequest{
			PatientName: "Patient",
			City:        "sialkot",
			Day:         "2025-11-11",
			Slot:        slot,
			Notes:       "",
		}); err != nil {
			t.Fatalf("booking %d failed: %v", i, err)
		}
	}

	view, err := svc.Availability(ctx, "sialkot", "2025-11-11")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if view.Status != StatusFullyBooked {
		t.Fatalf("expected fully_booked, got %s", view.Status)
	}
	if len(view.Slots) != 0 {
		t.Fatalf("fully booked view must carry no slots: %+v", view.Slots)
	}
}

func TestListPreservesCreationOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Book(ctx, BookingRequest{PatientName: "Ali Raza", City: "sialkot", Day: "2025-11-11", Slot: "10:00 AM - 11:00 AM"})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}
	second, err := svc.Book(ctx, BookingRequest{PatientName: "Sana Tariq", City: "lahore", Day: "2025-11-13", Slot: "04:00 PM - 05:00 PM"})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Fatalf("unexpected directory order: %+v", all)
	}
}

func TestClinicNowFormatsClinicLocalTime(t *testing.T) {
	svc, _ := newTestService(t)
	if got := svc.ClinicNow(); got != "Monday, November 10, 2025 at 9:00 AM" {
		t.Fatalf("ClinicNow() = %q", got)
	}
}
