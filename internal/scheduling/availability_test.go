package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/civisched/appointment-scheduling/internal/directory"
)

type AvailabilitySuite struct {
	suite.Suite
	repo      *MemoryRepository
	dir       *directory.MemoryDirectory
	service   *AvailabilityService
	officerID uuid.UUID
	today     time.Time
	tomorrow  time.Time
}

func TestAvailabilitySuite(t *testing.T) {
	suite.Run(t, new(AvailabilitySuite))
}

func (s *AvailabilitySuite) SetupTest() {
	s.repo = NewMemoryRepository()
	s.dir = directory.NewMemoryDirectory()
	s.service = NewAvailabilityService(s.repo, s.dir)

	s.today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s.tomorrow = s.today.AddDate(0, 0, 1)
	s.service.now = func() time.Time { return s.today.Add(8 * time.Hour) }

	s.officerID = uuid.New()
	s.dir.PutOfficer(directory.Officer{ID: s.officerID, Name: "Officer One", Active: true})
}

func (s *AvailabilitySuite) createBatch(date, start, end string, duration int) []Slot {
	slots, err := s.service.CreateAvailability(context.Background(), s.officerID, CreateAvailabilityParams{
		Date:     date,
		Start:    start,
		End:      end,
		Duration: duration,
	})
	s.Require().NoError(err)
	return slots
}

func (s *AvailabilitySuite) TestCreateAvailability() {
	s.Run("generates the full batch", func() {
		slots := s.createBatch(FormatDate(s.tomorrow), "09:00", "12:00", 30)
		s.Len(slots, 6)
		s.Equal("09:00", slots[0].StartTime)
		s.Equal("12:00", slots[5].EndTime)
		for _, slot := range slots {
			s.Equal(SlotAvailable, slot.Status)
			s.Equal(s.officerID, slot.OfficerID)
			s.Nil(slot.AppointmentID)
		}
	})

	s.Run("default duration is thirty minutes", func() {
		slots := s.createBatch(FormatDate(s.tomorrow.AddDate(0, 0, 1)), "09:00", "10:00", 0)
		s.Len(slots, 2)
	})

	s.Run("rejects unknown officer", func() {
		_, err := s.service.CreateAvailability(context.Background(), uuid.New(), CreateAvailabilityParams{
			Date: FormatDate(s.tomorrow), Start: "09:00", End: "10:00",
		})
		s.requireKind(err, KindNotFound)
	})

	s.Run("rejects inactive officer", func() {
		inactive := uuid.New()
		s.dir.PutOfficer(directory.Officer{ID: inactive, Name: "Gone", Active: false})
		_, err := s.service.CreateAvailability(context.Background(), inactive, CreateAvailabilityParams{
			Date: FormatDate(s.tomorrow), Start: "09:00", End: "10:00",
		})
		s.requireKind(err, KindForbidden)
	})

	s.Run("rejects past date", func() {
		_, err := s.service.CreateAvailability(context.Background(), s.officerID, CreateAvailabilityParams{
			Date: FormatDate(s.today.AddDate(0, 0, -1)), Start: "09:00", End: "10:00",
		})
		s.requireKind(err, KindBadRequest)
	})

	s.Run("today is not past", func() {
		slots := s.createBatch(FormatDate(s.today), "09:00", "10:00", 30)
		s.Len(slots, 2)
	})
}

func (s *AvailabilitySuite) TestOverlapRejection() {
	date := FormatDate(s.tomorrow)
	s.createBatch(date, "10:00", "11:00", 30)

	s.Run("overlapping window conflicts", func() {
		_, err := s.service.CreateAvailability(context.Background(), s.officerID, CreateAvailabilityParams{
			Date: date, Start: "10:30", End: "11:30",
		})
		s.requireKind(err, KindConflict)
	})

	s.Run("touching window is accepted", func() {
		slots := s.createBatch(date, "11:00", "12:00", 30)
		s.Len(slots, 2)
	})

	s.Run("another officer is unaffected", func() {
		other := uuid.New()
		s.dir.PutOfficer(directory.Officer{ID: other, Name: "Officer Two", Active: true})
		slots, err := s.service.CreateAvailability(context.Background(), other, CreateAvailabilityParams{
			Date: date, Start: "10:00", End: "11:00",
		})
		s.NoError(err)
		s.Len(slots, 2)
	})
}

func (s *AvailabilitySuite) TestUpdateSlot() {
	slots := s.createBatch(FormatDate(s.tomorrow), "09:00", "10:00", 30)
	slotID := slots[0].ID

	s.Run("patches times", func() {
		start, end := "13:00", "13:30"
		updated, err := s.service.UpdateSlot(context.Background(), s.officerID, slotID, SlotPatch{Start: &start, End: &end})
		s.Require().NoError(err)
		s.Equal("13:00", updated.StartTime)
		s.Equal("13:30", updated.EndTime)
	})

	s.Run("rejects inverted range", func() {
		start, end := "14:00", "13:00"
		_, err := s.service.UpdateSlot(context.Background(), s.officerID, slotID, SlotPatch{Start: &start, End: &end})
		s.ErrorIs(err, ErrInvalidRange)
	})

	s.Run("cancels and restores", func() {
		status := string(SlotCancelled)
		updated, err := s.service.UpdateSlot(context.Background(), s.officerID, slotID, SlotPatch{Status: &status})
		s.Require().NoError(err)
		s.Equal(SlotCancelled, updated.Status)

		status = string(SlotAvailable)
		updated, err = s.service.UpdateSlot(context.Background(), s.officerID, slotID, SlotPatch{Status: &status})
		s.Require().NoError(err)
		s.Equal(SlotAvailable, updated.Status)
	})

	s.Run("never books directly", func() {
		status := string(SlotBooked)
		_, err := s.service.UpdateSlot(context.Background(), s.officerID, slotID, SlotPatch{Status: &status})
		s.requireKind(err, KindBadRequest)
	})

	s.Run("foreign slot reads as absent", func() {
		other := uuid.New()
		start := "15:00"
		_, err := s.service.UpdateSlot(context.Background(), other, slotID, SlotPatch{Start: &start})
		s.ErrorIs(err, ErrSlotNotFound)
	})

	s.Run("booked slot is immutable", func() {
		booked := s.bookSlot(slots[1].ID)
		start := "15:00"
		_, err := s.service.UpdateSlot(context.Background(), s.officerID, booked, SlotPatch{Start: &start})
		s.requireKind(err, KindConflict)
	})
}

func (s *AvailabilitySuite) TestDeleteSlot() {
	slots := s.createBatch(FormatDate(s.tomorrow), "09:00", "10:00", 30)

	s.Run("deletes an open slot", func() {
		s.NoError(s.service.DeleteSlot(context.Background(), s.officerID, slots[0].ID))
		_, err := s.repo.GetSlotByID(context.Background(), slots[0].ID)
		s.ErrorIs(err, ErrSlotNotFound)
	})

	s.Run("refuses a booked slot", func() {
		booked := s.bookSlot(slots[1].ID)
		err := s.service.DeleteSlot(context.Background(), s.officerID, booked)
		s.requireKind(err, KindBadRequest)
	})
}

func (s *AvailabilitySuite) TestDeleteSlotsForDate() {
	date := FormatDate(s.tomorrow)
	slots := s.createBatch(date, "09:00", "12:30", 30) // 7 slots
	s.bookSlot(slots[0].ID)
	s.bookSlot(slots[1].ID)

	s.Run("failOnBooked aborts entirely", func() {
		_, err := s.service.DeleteSlotsForDate(context.Background(), s.officerID, date, DeleteFailOnBooked)
		s.requireKind(err, KindConflict)

		_, total, err := s.repo.ListSlots(context.Background(), SlotFilter{OfficerID: &s.officerID})
		s.Require().NoError(err)
		s.Equal(7, total)
	})

	s.Run("skipBooked deletes the rest", func() {
		report, err := s.service.DeleteSlotsForDate(context.Background(), s.officerID, date, DeleteSkipBooked)
		s.Require().NoError(err)
		s.Equal(5, report.Deleted)
		s.Equal(2, report.Booked)

		_, total, err := s.repo.ListSlots(context.Background(), SlotFilter{OfficerID: &s.officerID})
		s.Require().NoError(err)
		s.Equal(2, total)
	})

	s.Run("unknown mode is rejected", func() {
		_, err := s.service.DeleteSlotsForDate(context.Background(), s.officerID, date, DeleteMode("purge"))
		s.requireKind(err, KindBadRequest)
	})
}

func (s *AvailabilitySuite) TestListBookable() {
	yesterday := s.today.AddDate(0, 0, -1)
	_, err := s.repo.CreateSlots(context.Background(), []Slot{
		{OfficerID: s.officerID, Date: yesterday, StartTime: "09:00", EndTime: "09:30", Status: SlotAvailable},
	})
	s.Require().NoError(err)
	s.createBatch(FormatDate(s.tomorrow), "09:00", "10:00", 30)

	slots, total, err := s.service.ListBookable(context.Background(), BookableParams{})
	s.Require().NoError(err)
	s.Equal(2, total)
	for _, slot := range slots {
		s.False(slot.Date.Before(s.today))
	}
}

func (s *AvailabilitySuite) TestBulkUpdateStatus() {
	slots := s.createBatch(FormatDate(s.tomorrow), "09:00", "11:00", 30) // 4 slots
	booked := s.bookSlot(slots[3].ID)

	ids := []int64{slots[0].ID, slots[1].ID, booked, 99999}
	report, err := s.service.BulkUpdateStatus(context.Background(), s.officerID, ids, SlotCancelled)
	s.Require().NoError(err)
	s.Equal(2, report.Updated)
	s.Equal(2, report.Skipped)

	_, err = s.service.BulkUpdateStatus(context.Background(), s.officerID, ids, SlotBooked)
	s.requireKind(err, KindBadRequest)
}

// bookSlot flips a slot to booked through the repository, simulating the
// booking engine.
func (s *AvailabilitySuite) bookSlot(slotID int64) int64 {
	slot, err := s.repo.GetSlotByID(context.Background(), slotID)
	s.Require().NoError(err)

	_, err = s.repo.BookSlot(context.Background(), slotID, Appointment{
		ID:        uuid.New(),
		CitizenID: uuid.New(),
		OfficerID: slot.OfficerID,
		ServiceID: uuid.New(),
		SlotID:    slotID,
		Date:      slot.Date,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Purpose:   "test booking",
		Status:    AppointmentConfirmed,
	})
	s.Require().NoError(err)
	return slotID
}

func (s *AvailabilitySuite) requireKind(err error, kind Kind) {
	s.Require().Error(err)
	var derr *Error
	s.Require().ErrorAs(err, &derr)
	s.Equal(kind, derr.Kind)
}
