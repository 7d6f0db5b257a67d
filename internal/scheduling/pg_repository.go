package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var apptID *uuid.UUID

	err := row.Scan(
		&s.ID,
		&s.OfficerID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&apptID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.AppointmentID = apptID
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.CitizenID,
		&a.OfficerID,
		&a.ServiceID,
		&a.SlotID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Purpose,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

const slotColumns = `id, officer_id, date, start_time, end_time, status, appointment_id, created_at, updated_at`

const appointmentColumns = `id, citizen_id, officer_id, service_id, slot_id, date, start_time, end_time, purpose, status, created_at, updated_at`

// Interface methods

func (r *PgRepository) CreateSlots(ctx context.Context, slots []Slot) ([]Slot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	created := make([]Slot, 0, len(slots))
	for _, s := range slots {
		row := tx.QueryRow(ctx, `
			INSERT INTO slots (officer_id, date, start_time, end_time, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			RETURNING `+slotColumns+`
		`, s.OfficerID, s.Date, s.StartTime, s.EndTime, s.Status)

		out, err := scanSlot(row)
		if err != nil {
			return nil, fmt.Errorf("insert slot %s %s: %w", FormatDate(s.Date), s.StartTime, err)
		}
		created = append(created, *out)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return created, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id int64) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, f SlotFilter) ([]Slot, int, error) {
	var conds []string
	var args []any

	add := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.OfficerID != nil {
		add("officer_id = $%d", *f.OfficerID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.DateFrom != nil {
		add("date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("date <= $%d", *f.DateTo)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM slots`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count slots: %w", err)
	}

	query := `SELECT ` + slotColumns + ` FROM slots` + where + ` ORDER BY date ASC, start_time ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		page := f.Page
		if page < 1 {
			page = 1
		}
		args = append(args, (page-1)*f.Limit)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) ListSlotRangesForDate(ctx context.Context, officerID uuid.UUID, date time.Time, statuses []SlotStatus) ([]TimeRange, error) {
	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM slots
		WHERE officer_id = $1 AND date = $2 AND status = ANY($3)
		ORDER BY start_time ASC
	`, officerID, date, vals)
	if err != nil {
		return nil, fmt.Errorf("list slot ranges: %w", err)
	}
	defer rows.Close()

	var ranges []TimeRange
	for rows.Next() {
		var tr TimeRange
		if err := rows.Scan(&tr.Start, &tr.End); err != nil {
			return nil, err
		}
		ranges = append(ranges, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ranges, nil
}

func (r *PgRepository) UpdateSlot(ctx context.Context, s *Slot) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET date = $2,
		    start_time = $3,
		    end_time = $4,
		    status = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, s.ID, s.Date, s.StartTime, s.EndTime, s.Status)

	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotStatus(ctx context.Context, id int64, from, to SlotStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
	`, id, to, from)
	if err != nil {
		return false, fmt.Errorf("update slot status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) DeleteOpenSlotsForDate(ctx context.Context, officerID uuid.UUID, date time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM slots
		WHERE officer_id = $1
		  AND date = $2
		  AND status = $3
		  AND appointment_id IS NULL
	`, officerID, date, SlotAvailable)
	if err != nil {
		return 0, fmt.Errorf("delete open slots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgRepository) CountBookedSlotsForDate(ctx context.Context, officerID uuid.UUID, date time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM slots
		WHERE officer_id = $1 AND date = $2 AND status = $3
	`, officerID, date, SlotBooked).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count booked slots: %w", err)
	}
	return n, nil
}

// BookSlot is the concurrency-critical write. The conditional update flips
// the slot only if it is still available; a zero row count means another
// transaction won the race and the whole unit rolls back untouched.
func (r *PgRepository) BookSlot(ctx context.Context, slotID int64, appt Appointment) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE slots
		SET status = $2,
		    appointment_id = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = $4
	`, slotID, SlotBooked, appt.ID, SlotAvailable)
	if err != nil {
		return nil, fmt.Errorf("reserve slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check slot exists: %w", err)
		}
		if !exists {
			return nil, ErrSlotNotFound
		}
		return nil, ErrSlotUnavailable
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, citizen_id, officer_id, service_id, slot_id, date, start_time, end_time, purpose, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.CitizenID, appt.OfficerID, appt.ServiceID, appt.SlotID, appt.Date, appt.StartTime, appt.EndTime, appt.Purpose, appt.Status)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}

	return created, nil
}

// CancelBooking is the mirror of BookSlot: flip the appointment off its live
// status and release the linked slot in the same transaction.
func (r *PgRepository) CancelBooking(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ($3, $4)
		RETURNING `+appointmentColumns+`
	`, appointmentID, AppointmentCancelled, AppointmentPending, AppointmentConfirmed)

	cancelled, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Appointment exists but is terminal, or is truly absent;
			// the service layer has already distinguished the two, so
			// landing here means we lost a race to another cancel.
			return nil, conflictf("appointment_not_cancellable", "appointment can no longer be cancelled")
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE slots
		SET status = $2,
		    appointment_id = NULL,
		    updated_at = now()
		WHERE appointment_id = $1
		  AND status = $3
	`, appointmentID, SlotAvailable, SlotBooked)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}

	return cancelled, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, int, error) {
	var conds []string
	var args []any

	add := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.OfficerID != nil {
		add("officer_id = $%d", *f.OfficerID)
	}
	if f.CitizenID != nil {
		add("citizen_id = $%d", *f.CitizenID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.DateFrom != nil {
		add("date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("date <= $%d", *f.DateTo)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments` + where + ` ORDER BY date DESC, start_time ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}
