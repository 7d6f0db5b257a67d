package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/directory"
	redisclient "github.com/civisched/appointment-scheduling/internal/redis"
)

const maxPurposeLength = 500

// Actor identifies who is performing a booking-side operation.
type Actor struct {
	ID      uuid.UUID
	Officer bool
}

// BookingService owns the two atomic state changes of the system: reserving
// a slot together with creating its appointment, and the mirror-image
// cancellation. All validation happens before the transactional write; the
// only failure possible during the write is losing the race on the slot,
// which surfaces as a conflict with nothing persisted.
type BookingService struct {
	repo     Repository
	dir      directory.Directory
	notifier redisclient.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo Repository, dir directory.Directory, notifier redisclient.Notifier, logger zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		dir:      dir,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateAppointmentParams struct {
	ServiceID uuid.UUID
	SlotID    int64
	Purpose   string
}

// CreateAppointment books a slot for a verified citizen with the officer
// assigned to the citizen's division. Exactly one of any set of concurrent
// calls targeting the same slot succeeds; the rest observe a conflict.
func (s *BookingService) CreateAppointment(ctx context.Context, citizenID uuid.UUID, p CreateAppointmentParams) (*Appointment, error) {
	purpose := strings.TrimSpace(p.Purpose)
	if purpose == "" {
		return nil, badRequestf("purpose_required", "purpose must not be empty")
	}
	if len(purpose) > maxPurposeLength {
		return nil, badRequestf("purpose_too_long", "purpose exceeds %d characters", maxPurposeLength)
	}

	citizen, err := s.dir.GetCitizen(ctx, citizenID)
	if err != nil {
		if errors.Is(err, directory.ErrCitizenNotFound) {
			return nil, notFoundf("citizen_not_found", "citizen not found")
		}
		return nil, err
	}
	if !citizen.Verified {
		return nil, forbiddenf("citizen_not_verified", "citizen identity is not verified")
	}
	if citizen.DivisionID == nil {
		return nil, badRequestf("no_division", "citizen has no division assignment")
	}

	service, err := s.dir.GetService(ctx, p.ServiceID)
	if err != nil {
		if errors.Is(err, directory.ErrServiceNotFound) {
			return nil, notFoundf("service_not_found", "service not found")
		}
		return nil, err
	}
	if !service.Enabled {
		return nil, badRequestf("service_disabled", "service %s is not currently bookable", service.Name)
	}

	division, err := s.dir.GetDivision(ctx, *citizen.DivisionID)
	if err != nil {
		if errors.Is(err, directory.ErrDivisionNotFound) {
			return nil, notFoundf("division_not_found", "division not found")
		}
		return nil, err
	}
	if division.AssignedOfficerID == nil {
		return nil, notFoundf("division_unassigned", "division %s has no assigned officer", division.Name)
	}
	officerID := *division.AssignedOfficerID

	slot, err := s.repo.GetSlotByID(ctx, p.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.OfficerID != officerID {
		return nil, badRequestf("wrong_officer", "slot does not belong to your division's officer")
	}
	if slot.Status != SlotAvailable {
		return nil, ErrSlotUnavailable
	}
	if slot.Date.Before(DateOnly(s.now())) {
		return nil, badRequestf("past_date", "slot date %s is in the past", FormatDate(slot.Date))
	}

	appt := Appointment{
		ID:        uuid.New(),
		CitizenID: citizenID,
		OfficerID: officerID,
		ServiceID: p.ServiceID,
		SlotID:    slot.ID,
		Date:      slot.Date,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Purpose:   purpose,
		Status:    AppointmentConfirmed,
	}

	created, err := s.repo.BookSlot(ctx, slot.ID, appt)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, redisclient.EventAppointmentBooked, created)

	return created, nil
}

// CancelAppointment releases a live appointment and returns its slot to the
// available pool in one transaction.
func (s *BookingService) CancelAppointment(ctx context.Context, actor Actor, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !actorOwns(actor, appt) {
		return nil, ErrAppointmentNotFound
	}

	switch appt.Status {
	case AppointmentCancelled:
		return nil, badRequestf("already_cancelled", "appointment is already cancelled")
	case AppointmentCompleted:
		return nil, badRequestf("appointment_completed", "completed appointments cannot be cancelled")
	}

	cancelled, err := s.repo.CancelBooking(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, redisclient.EventAppointmentCancelled, cancelled)

	return cancelled, nil
}

// CompleteAppointment marks an officer's confirmed appointment as done,
// which blocks any later cancellation.
func (s *BookingService) CompleteAppointment(ctx context.Context, officerID, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.OfficerID != officerID {
		return nil, ErrAppointmentNotFound
	}
	if !AppointmentCanTransition(appt.Status, AppointmentCompleted) {
		return nil, badRequestf("not_completable", "appointment in status %s cannot be completed", appt.Status)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appointmentID, appt.Status, AppointmentCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, conflictf("appointment_state_changed", "appointment changed state, retry")
		}
		return nil, err
	}
	return updated, nil
}

// notify is best-effort: the state change has committed, so a publish
// failure is logged and swallowed.
func (s *BookingService) notify(ctx context.Context, eventType string, appt *Appointment) {
	if s.notifier == nil {
		return
	}

	ev := redisclient.Event{
		Type:          eventType,
		AppointmentID: appt.ID.String(),
		CitizenID:     appt.CitizenID.String(),
		OfficerID:     appt.OfficerID.String(),
		ServiceID:     appt.ServiceID.String(),
		Date:          FormatDate(appt.Date),
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
	}

	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", eventType).
			Str("appointment_id", appt.ID.String()).
			Msg("notification publish failed")
	}
}

func actorOwns(actor Actor, appt *Appointment) bool {
	if actor.Officer {
		return appt.OfficerID == actor.ID
	}
	return appt.CitizenID == actor.ID
}
