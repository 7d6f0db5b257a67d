package scheduling

import (
	"context"

	"github.com/google/uuid"
)

const (
	DefaultAppointmentLimit = 50
	MaxAppointmentLimit     = 100
)

// QueryService is the read-only appointment retrieval path. It takes no
// locks and never mutates.
type QueryService struct {
	repo Repository
}

func NewQueryService(repo Repository) *QueryService {
	return &QueryService{repo: repo}
}

type OfficerAppointmentsQuery struct {
	DateFrom  string
	DateTo    string
	Status    string
	CitizenID *uuid.UUID
	Limit     int
	Offset    int
}

// ForOfficer returns a filtered page of the officer's appointments plus the
// total count, ordered by date descending then start time ascending.
func (s *QueryService) ForOfficer(ctx context.Context, officerID uuid.UUID, q OfficerAppointmentsQuery) ([]Appointment, int, error) {
	f := AppointmentFilter{
		OfficerID: &officerID,
		CitizenID: q.CitizenID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if f.Limit <= 0 {
		f.Limit = DefaultAppointmentLimit
	}
	if f.Limit > MaxAppointmentLimit {
		f.Limit = MaxAppointmentLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	if q.Status != "" {
		st := AppointmentStatus(q.Status)
		if !ValidAppointmentStatus(st) {
			return nil, 0, badRequestf("invalid_status", "unknown appointment status %q", q.Status)
		}
		f.Status = &st
	}
	var err error
	if f.DateFrom, f.DateTo, err = parseDateBounds(q.DateFrom, q.DateTo); err != nil {
		return nil, 0, err
	}

	return s.repo.ListAppointments(ctx, f)
}

// ForCitizen returns all of one citizen's appointments, newest first. A
// single citizen's volume is small enough that no paging is needed.
func (s *QueryService) ForCitizen(ctx context.Context, citizenID uuid.UUID) ([]Appointment, error) {
	appts, _, err := s.repo.ListAppointments(ctx, AppointmentFilter{CitizenID: &citizenID})
	return appts, err
}
