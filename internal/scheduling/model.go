package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotCancelled SlotStatus = "cancelled"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Slot is a single bookable time window owned by one officer on one date.
// Times are wall-clock "HH:MM" strings on the slot's date.
type Slot struct {
	ID            int64
	OfficerID     uuid.UUID
	Date          time.Time // date only, midnight UTC
	StartTime     string
	EndTime       string
	Status        SlotStatus
	AppointmentID *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Appointment records a citizen's booking of a slot. Date and times are
// copied from the slot at booking time and never re-derived afterwards.
type Appointment struct {
	ID        uuid.UUID
	CitizenID uuid.UUID
	OfficerID uuid.UUID
	ServiceID uuid.UUID
	SlotID    int64
	Date      time.Time
	StartTime string
	EndTime   string
	Purpose   string
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidSlotStatus reports whether s is one of the known slot states.
func ValidSlotStatus(s SlotStatus) bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotCancelled:
		return true
	}
	return false
}

// ValidAppointmentStatus reports whether s is one of the known appointment states.
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}
