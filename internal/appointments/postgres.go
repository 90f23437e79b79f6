package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Waleed-coder079/clinic-receptionist/internal/schedule"
)

// uniqueViolation is the Postgres error code raised by the
// (branch, date, slot) unique constraint.
const uniqueViolation = "23505"

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, patient_name, branch, date, slot, notes,
		COALESCE(calendar_event_id, ''), COALESCE(calendar_link, ''), created_at`

// Insert persists a new appointment. A uniqueness violation on
// (branch, date, slot) is reported as ErrSlotTaken.
func (r *PostgresRepository) Insert(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_name, branch, date, slot, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.PatientName,
		string(appt.Branch),
		appt.Date,
		appt.Slot,
		appt.Notes,
	).Scan(&appt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// ListByBranchDate returns the bookings for one branch and date in creation order.
func (r *PostgresRepository) ListByBranchDate(ctx context.Context, branch, date string) ([]*Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE branch = $1 AND date = $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, branch, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: select by branch and date failed: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE id = $1
	`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select by id failed: %w", err)
	}
	return appt, nil
}

// FindByPatientAndDate returns the earliest-created appointment matching the
// case-insensitive patient name and exact date.
func (r *PostgresRepository) FindByPatientAndDate(ctx context.Context, patientName, date string) (*Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE lower(patient_name) = lower($1) AND date = $2
		ORDER BY created_at
		LIMIT 1
	`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, patientName, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select by patient and date failed: %w", err)
	}
	return appt, nil
}

// UpdateCalendarFields attaches the external calendar event to the record.
func (r *PostgresRepository) UpdateCalendarFields(ctx context.Context, id, eventID, link string) error {
	query := `
		UPDATE appointments
		SET calendar_event_id = NULLIF($2, ''), calendar_link = NULLIF($3, '')
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, id, eventID, link)
	if err != nil {
		return fmt.Errorf("appointments: update calendar fields failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// Delete removes the record, reporting whether a row existed.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("appointments: delete failed: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// List returns every appointment in creation order.
func (r *PostgresRepository) List(ctx context.Context) ([]*Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("appointments: select all failed: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var branch string
	var date time.Time
	if err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&branch,
		&date,
		&appt.Slot,
		&appt.Notes,
		&appt.CalendarEventID,
		&appt.CalendarLink,
		&appt.CreatedAt,
	); err != nil {
		return nil, err
	}
	appt.Branch = schedule.Branch(branch)
	appt.Date = date.Format("2006-01-02")
	return &appt, nil
}
