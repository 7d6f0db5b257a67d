package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/civisched/appointment-scheduling/internal/directory"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// DeleteMode controls how a date-scoped bulk delete treats booked slots.
type DeleteMode string

const (
	DeleteSkipBooked   DeleteMode = "skipBooked"
	DeleteFailOnBooked DeleteMode = "failOnBooked"
)

// DeleteReport is the outcome of a date-scoped bulk delete.
type DeleteReport struct {
	Deleted int
	Booked  int
}

// BulkStatusReport counts per-item outcomes of a bulk status update.
type BulkStatusReport struct {
	Updated int
	Skipped int
}

// AvailabilityService owns the slot lifecycle: batch creation from a time
// window, listing, patching, and deletion.
type AvailabilityService struct {
	repo Repository
	dir  directory.Directory
	now  func() time.Time
}

func NewAvailabilityService(repo Repository, dir directory.Directory) *AvailabilityService {
	return &AvailabilityService{
		repo: repo,
		dir:  dir,
		now:  time.Now,
	}
}

func (s *AvailabilityService) today() time.Time {
	return DateOnly(s.now())
}

type CreateAvailabilityParams struct {
	Date     string
	Start    string
	End      string
	Duration int // minutes; 0 means DefaultSlotMinutes
}

// CreateAvailability splits the requested window into slots, rejects the
// window if any generated slot intersects the officer's existing available
// windows on that date, and persists the batch.
func (s *AvailabilityService) CreateAvailability(ctx context.Context, officerID uuid.UUID, p CreateAvailabilityParams) ([]Slot, error) {
	officer, err := s.dir.GetOfficer(ctx, officerID)
	if err != nil {
		if errors.Is(err, directory.ErrOfficerNotFound) {
			return nil, notFoundf("officer_not_found", "officer not found")
		}
		return nil, err
	}
	if !officer.Active {
		return nil, forbiddenf("officer_inactive", "officer account is inactive")
	}

	date, err := ParseDate(p.Date)
	if err != nil {
		return nil, err
	}
	if date.Before(s.today()) {
		return nil, badRequestf("past_date", "date %s is in the past", p.Date)
	}

	duration := p.Duration
	if duration == 0 {
		duration = DefaultSlotMinutes
	}

	ranges, err := GenerateSlots(p.Start, p.End, duration)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, badRequestf("window_too_short", "window %s-%s fits no %d-minute slot", p.Start, p.End, duration)
	}

	existing, err := s.repo.ListSlotRangesForDate(ctx, officerID, date, []SlotStatus{SlotAvailable})
	if err != nil {
		return nil, err
	}
	for _, r := range ranges {
		if conflict, ok := FindOverlap(r, existing); ok {
			return nil, conflictf("availability_overlap", "window overlaps existing availability %s", conflict)
		}
	}

	slots := make([]Slot, 0, len(ranges))
	for _, r := range ranges {
		slots = append(slots, Slot{
			OfficerID: officerID,
			Date:      date,
			StartTime: r.Start,
			EndTime:   r.End,
			Status:    SlotAvailable,
		})
	}

	return s.repo.CreateSlots(ctx, slots)
}

type ListAvailabilityParams struct {
	Status   string
	DateFrom string
	DateTo   string
	Page     int
	Limit    int
}

// ListAvailability returns the officer's own slots, date ascending then
// start time ascending, with the total count for paging.
func (s *AvailabilityService) ListAvailability(ctx context.Context, officerID uuid.UUID, p ListAvailabilityParams) ([]Slot, int, error) {
	f := SlotFilter{
		OfficerID: &officerID,
		Page:      p.Page,
		Limit:     NormalizeLimit(p.Limit),
	}
	if f.Page < 1 {
		f.Page = 1
	}

	if p.Status != "" {
		st := SlotStatus(p.Status)
		if !ValidSlotStatus(st) {
			return nil, 0, badRequestf("invalid_status", "unknown slot status %q", p.Status)
		}
		f.Status = &st
	}
	var err error
	if f.DateFrom, f.DateTo, err = parseDateBounds(p.DateFrom, p.DateTo); err != nil {
		return nil, 0, err
	}

	return s.repo.ListSlots(ctx, f)
}

type SlotPatch struct {
	Date   *string
	Start  *string
	End    *string
	Status *string
}

// UpdateSlot applies a partial update to one owned slot. Booked slots are
// immutable here; they change only through the booking engine.
func (s *AvailabilityService) UpdateSlot(ctx context.Context, officerID uuid.UUID, slotID int64, patch SlotPatch) (*Slot, error) {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.OfficerID != officerID {
		return nil, ErrSlotNotFound
	}
	if slot.Status == SlotBooked {
		return nil, conflictf("slot_booked", "cannot modify a booked slot; cancel its appointment first")
	}

	if patch.Date != nil {
		d, err := ParseDate(*patch.Date)
		if err != nil {
			return nil, err
		}
		slot.Date = d
	}
	if patch.Start != nil {
		slot.StartTime = *patch.Start
	}
	if patch.End != nil {
		slot.EndTime = *patch.End
	}
	if patch.Status != nil {
		st := SlotStatus(*patch.Status)
		if !ValidSlotStatus(st) {
			return nil, badRequestf("invalid_status", "unknown slot status %q", *patch.Status)
		}
		if st == SlotBooked {
			return nil, badRequestf("invalid_status", "slots become booked only through appointments")
		}
		if st != slot.Status && !SlotCanTransition(slot.Status, st) {
			return nil, badRequestf("invalid_transition", "slot cannot move from %s to %s", slot.Status, st)
		}
		slot.Status = st
	}

	startMin, err := ParseClock(slot.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(slot.EndTime)
	if err != nil {
		return nil, err
	}
	if startMin >= endMin {
		return nil, ErrInvalidRange
	}
	if slot.Date.Before(s.today()) {
		return nil, badRequestf("past_date", "date %s is in the past", FormatDate(slot.Date))
	}

	return s.repo.UpdateSlot(ctx, slot)
}

// DeleteSlot removes one owned slot unless it is booked.
func (s *AvailabilityService) DeleteSlot(ctx context.Context, officerID uuid.UUID, slotID int64) error {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.OfficerID != officerID {
		return ErrSlotNotFound
	}
	if slot.Status == SlotBooked {
		return badRequestf("slot_booked", "cannot delete a booked slot")
	}
	return s.repo.DeleteSlot(ctx, slotID)
}

// DeleteSlotsForDate removes the officer's available, unlinked slots on one
// date. With DeleteFailOnBooked the whole operation aborts when any booked
// slot exists that day; with DeleteSkipBooked those slots are left in place
// and counted in the report.
func (s *AvailabilityService) DeleteSlotsForDate(ctx context.Context, officerID uuid.UUID, dateStr string, mode DeleteMode) (DeleteReport, error) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return DeleteReport{}, err
	}
	switch mode {
	case "":
		mode = DeleteSkipBooked
	case DeleteSkipBooked, DeleteFailOnBooked:
	default:
		return DeleteReport{}, badRequestf("invalid_mode", "unknown delete mode %q", mode)
	}

	booked, err := s.repo.CountBookedSlotsForDate(ctx, officerID, date)
	if err != nil {
		return DeleteReport{}, err
	}
	if mode == DeleteFailOnBooked && booked > 0 {
		return DeleteReport{}, conflictf("booked_slots_exist", "%d booked slots exist on %s", booked, dateStr)
	}

	deleted, err := s.repo.DeleteOpenSlotsForDate(ctx, officerID, date)
	if err != nil {
		return DeleteReport{}, err
	}

	return DeleteReport{Deleted: deleted, Booked: booked}, nil
}

type BookableParams struct {
	OfficerID *uuid.UUID
	DateFrom  string
	DateTo    string
	Page      int
	Limit     int
}

// ListBookable is the public read path: available slots from today onward.
func (s *AvailabilityService) ListBookable(ctx context.Context, p BookableParams) ([]Slot, int, error) {
	status := SlotAvailable
	f := SlotFilter{
		OfficerID: p.OfficerID,
		Status:    &status,
		Page:      p.Page,
		Limit:     NormalizeLimit(p.Limit),
	}
	if f.Page < 1 {
		f.Page = 1
	}

	var err error
	if f.DateFrom, f.DateTo, err = parseDateBounds(p.DateFrom, p.DateTo); err != nil {
		return nil, 0, err
	}

	// Past availability is never bookable.
	today := s.today()
	if f.DateFrom == nil || f.DateFrom.Before(today) {
		f.DateFrom = &today
	}

	return s.repo.ListSlots(ctx, f)
}

// BulkUpdateStatus sets many owned slots to the target status, skipping
// items that are missing, foreign, booked, or mid-transition, and reports
// the split rather than failing the batch.
func (s *AvailabilityService) BulkUpdateStatus(ctx context.Context, officerID uuid.UUID, slotIDs []int64, target SlotStatus) (BulkStatusReport, error) {
	if !ValidSlotStatus(target) || target == SlotBooked {
		return BulkStatusReport{}, badRequestf("invalid_status", "bulk update target must be available or cancelled")
	}

	var report BulkStatusReport
	for _, id := range slotIDs {
		slot, err := s.repo.GetSlotByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				report.Skipped++
				continue
			}
			return report, err
		}
		if slot.OfficerID != officerID || slot.Status == SlotBooked || !SlotCanTransition(slot.Status, target) {
			report.Skipped++
			continue
		}
		ok, err := s.repo.UpdateSlotStatus(ctx, id, slot.Status, target)
		if err != nil {
			return report, err
		}
		if ok {
			report.Updated++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

// NormalizeLimit clamps a page size to [1, MaxPageLimit], defaulting when
// unset.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

func parseDateBounds(from, to string) (*time.Time, *time.Time, error) {
	var lo, hi *time.Time
	if from != "" {
		d, err := ParseDate(from)
		if err != nil {
			return nil, nil, err
		}
		lo = &d
	}
	if to != "" {
		d, err := ParseDate(to)
		if err != nil {
			return nil, nil, err
		}
		hi = &d
	}
	return lo, hi, nil
}
