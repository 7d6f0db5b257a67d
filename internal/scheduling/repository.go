package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SlotFilter narrows a slot listing. Nil fields are ignored. Date bounds are
// inclusive. Page starts at 1.
type SlotFilter struct {
	OfficerID *uuid.UUID
	Status    *SlotStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Limit     int
}

// AppointmentFilter narrows an appointment listing. Nil fields are ignored.
type AppointmentFilter struct {
	OfficerID *uuid.UUID
	CitizenID *uuid.UUID
	Status    *AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// Repository contains all persistence needed by the scheduling services.
//
// BookSlot and CancelBooking are the two atomic pairs: each couples a
// conditional slot status flip with an appointment write inside one
// transaction, and fails without persisting anything when the status
// precondition does not hold.
type Repository interface {
	// Slots
	CreateSlots(ctx context.Context, slots []Slot) ([]Slot, error)
	GetSlotByID(ctx context.Context, id int64) (*Slot, error)
	// ListSlots orders by date ascending, then start time ascending, and
	// returns the total matching count for pagination.
	ListSlots(ctx context.Context, f SlotFilter) ([]Slot, int, error)
	// ListSlotRangesForDate returns the officer's windows on one date in
	// the given statuses, for overlap checks.
	ListSlotRangesForDate(ctx context.Context, officerID uuid.UUID, date time.Time, statuses []SlotStatus) ([]TimeRange, error)
	UpdateSlot(ctx context.Context, s *Slot) (*Slot, error)
	// UpdateSlotStatus flips status only when the slot currently has the
	// expected status; reports whether the flip happened.
	UpdateSlotStatus(ctx context.Context, id int64, from, to SlotStatus) (bool, error)
	DeleteSlot(ctx context.Context, id int64) error
	// DeleteOpenSlotsForDate removes the officer's available, unlinked
	// slots on one date and returns how many were removed.
	DeleteOpenSlotsForDate(ctx context.Context, officerID uuid.UUID, date time.Time) (int, error)
	CountBookedSlotsForDate(ctx context.Context, officerID uuid.UUID, date time.Time) (int, error)

	// Atomic booking pair
	BookSlot(ctx context.Context, slotID int64, appt Appointment) (*Appointment, error)
	CancelBooking(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error)

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	// ListAppointments orders by date descending, then start time
	// ascending, and returns the total matching count.
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, int, error)
}
