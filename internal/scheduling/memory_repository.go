package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository with the same
// conditional-write semantics as the Postgres implementation. It backs the
// unit tests, which exercise the booking race against it directly.
type MemoryRepository struct {
	mu           sync.Mutex
	nextSlotID   int64
	slots        map[int64]*Slot
	appointments map[uuid.UUID]*Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextSlotID:   1,
		slots:        make(map[int64]*Slot),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (r *MemoryRepository) CreateSlots(_ context.Context, slots []Slot) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	created := make([]Slot, 0, len(slots))
	for _, s := range slots {
		s.ID = r.nextSlotID
		r.nextSlotID++
		s.CreatedAt = now
		s.UpdatedAt = now
		cp := s
		r.slots[s.ID] = &cp
		created = append(created, s)
	}
	return created, nil
}

func (r *MemoryRepository) GetSlotByID(_ context.Context, id int64) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func slotMatches(s *Slot, f SlotFilter) bool {
	if f.OfficerID != nil && s.OfficerID != *f.OfficerID {
		return false
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && s.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && s.Date.After(*f.DateTo) {
		return false
	}
	return true
}

func (r *MemoryRepository) ListSlots(_ context.Context, f SlotFilter) ([]Slot, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []Slot
	for _, s := range r.slots {
		if slotMatches(s, f) {
			all = append(all, *s)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].StartTime < all[j].StartTime
	})

	total := len(all)
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.Limit
		if start > total {
			start = total
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (r *MemoryRepository) ListSlotRangesForDate(_ context.Context, officerID uuid.UUID, date time.Time, statuses []SlotStatus) ([]TimeRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[SlotStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var ranges []TimeRange
	for _, s := range r.slots {
		if s.OfficerID == officerID && s.Date.Equal(date) && want[s.Status] {
			ranges = append(ranges, TimeRange{Start: s.StartTime, End: s.EndTime})
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return ranges, nil
}

func (r *MemoryRepository) UpdateSlot(_ context.Context, s *Slot) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.slots[s.ID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cur.Date = s.Date
	cur.StartTime = s.StartTime
	cur.EndTime = s.EndTime
	cur.Status = s.Status
	cur.UpdatedAt = time.Now()
	cp := *cur
	return &cp, nil
}

func (r *MemoryRepository) UpdateSlotStatus(_ context.Context, id int64, from, to SlotStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) DeleteSlot(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}

func (r *MemoryRepository) DeleteOpenSlotsForDate(_ context.Context, officerID uuid.UUID, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, s := range r.slots {
		if s.OfficerID == officerID && s.Date.Equal(date) && s.Status == SlotAvailable && s.AppointmentID == nil {
			delete(r.slots, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryRepository) CountBookedSlotsForDate(_ context.Context, officerID uuid.UUID, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.slots {
		if s.OfficerID == officerID && s.Date.Equal(date) && s.Status == SlotBooked {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) BookSlot(_ context.Context, slotID int64, appt Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if s.Status != SlotAvailable {
		return nil, ErrSlotUnavailable
	}

	now := time.Now()
	apptID := appt.ID
	s.Status = SlotBooked
	s.AppointmentID = &apptID
	s.UpdatedAt = now

	appt.CreatedAt = now
	appt.UpdatedAt = now
	cp := appt
	r.appointments[appt.ID] = &cp

	out := appt
	return &out, nil
}

func (r *MemoryRepository) CancelBooking(_ context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[appointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != AppointmentPending && a.Status != AppointmentConfirmed {
		return nil, conflictf("appointment_not_cancellable", "appointment can no longer be cancelled")
	}

	now := time.Now()
	a.Status = AppointmentCancelled
	a.UpdatedAt = now

	for _, s := range r.slots {
		if s.AppointmentID != nil && *s.AppointmentID == appointmentID && s.Status == SlotBooked {
			s.Status = SlotAvailable
			s.AppointmentID = nil
			s.UpdatedAt = now
		}
	}

	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func appointmentMatches(a *Appointment, f AppointmentFilter) bool {
	if f.OfficerID != nil && a.OfficerID != *f.OfficerID {
		return false
	}
	if f.CitizenID != nil && a.CitizenID != *f.CitizenID {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && a.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && a.Date.After(*f.DateTo) {
		return false
	}
	return true
}

func (r *MemoryRepository) ListAppointments(_ context.Context, f AppointmentFilter) ([]Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []Appointment
	for _, a := range r.appointments {
		if appointmentMatches(a, f) {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].StartTime < all[j].StartTime
	})

	total := len(all)
	if f.Limit > 0 {
		start := f.Offset
		if start > total {
			start = total
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		all = all[start:end]
	}
	return all, total, nil
}
