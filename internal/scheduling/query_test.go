package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAppointments(t *testing.T, repo *MemoryRepository, officerID uuid.UUID) (citizenA, citizenB uuid.UUID) {
	t.Helper()

	citizenA = uuid.New()
	citizenB = uuid.New()
	serviceID := uuid.New()

	type row struct {
		citizen uuid.UUID
		date    time.Time
		start   string
		status  AppointmentStatus
	}
	day := func(offset int) time.Time {
		return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	rows := []row{
		{citizenA, day(0), "09:00", AppointmentConfirmed},
		{citizenA, day(0), "10:00", AppointmentCancelled},
		{citizenB, day(1), "09:30", AppointmentConfirmed},
		{citizenA, day(2), "11:00", AppointmentCompleted},
		{citizenB, day(3), "14:00", AppointmentConfirmed},
	}

	for _, r := range rows {
		slots, err := repo.CreateSlots(context.Background(), []Slot{{
			OfficerID: officerID,
			Date:      r.date,
			StartTime: r.start,
			EndTime:   r.start, // end is irrelevant to query ordering
			Status:    SlotAvailable,
		}})
		require.NoError(t, err)

		appt, err := repo.BookSlot(context.Background(), slots[0].ID, Appointment{
			ID:        uuid.New(),
			CitizenID: r.citizen,
			OfficerID: officerID,
			ServiceID: serviceID,
			SlotID:    slots[0].ID,
			Date:      r.date,
			StartTime: r.start,
			EndTime:   r.start,
			Purpose:   "seeded",
			Status:    AppointmentConfirmed,
		})
		require.NoError(t, err)

		switch r.status {
		case AppointmentCancelled:
			_, err = repo.CancelBooking(context.Background(), appt.ID)
			require.NoError(t, err)
		case AppointmentCompleted:
			_, err = repo.UpdateAppointmentStatus(context.Background(), appt.ID, AppointmentConfirmed, AppointmentCompleted)
			require.NoError(t, err)
		}
	}
	return citizenA, citizenB
}

func TestForOfficerOrdering(t *testing.T) {
	repo := NewMemoryRepository()
	officerID := uuid.New()
	seedAppointments(t, repo, officerID)
	svc := NewQueryService(repo)

	appts, total, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, appts, 5)

	// Newest date first, start time ascending within a date.
	for i := 1; i < len(appts); i++ {
		prev, cur := appts[i-1], appts[i]
		if prev.Date.Equal(cur.Date) {
			assert.LessOrEqual(t, prev.StartTime, cur.StartTime)
		} else {
			assert.True(t, prev.Date.After(cur.Date))
		}
	}
	assert.Equal(t, "14:00", appts[0].StartTime)
}

func TestForOfficerFilters(t *testing.T) {
	repo := NewMemoryRepository()
	officerID := uuid.New()
	citizenA, _ := seedAppointments(t, repo, officerID)
	svc := NewQueryService(repo)

	t.Run("by status", func(t *testing.T) {
		appts, total, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Status: "confirmed"})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		for _, a := range appts {
			assert.Equal(t, AppointmentConfirmed, a.Status)
		}
	})

	t.Run("by citizen", func(t *testing.T) {
		_, total, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{CitizenID: &citizenA})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("by date window", func(t *testing.T) {
		_, total, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{
			DateFrom: "2026-03-11",
			DateTo:   "2026-03-12",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, _, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Status: "tentative"})
		require.Error(t, err)
		var derr *Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, KindBadRequest, derr.Kind)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, _, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{DateFrom: "11-03-2026"})
		require.Error(t, err)
	})

	t.Run("other officer sees nothing", func(t *testing.T) {
		appts, total, err := svc.ForOfficer(context.Background(), uuid.New(), OfficerAppointmentsQuery{})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, appts)
	})
}

func TestForOfficerPaging(t *testing.T) {
	repo := NewMemoryRepository()
	officerID := uuid.New()
	seedAppointments(t, repo, officerID)
	svc := NewQueryService(repo)

	page1, total, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)

	page2, _, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)

	tail, _, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	past, _, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Limit: 2, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, past)

	clamped, _, err := svc.ForOfficer(context.Background(), officerID, OfficerAppointmentsQuery{Limit: 5000, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, clamped, 5)
}

func TestForCitizen(t *testing.T) {
	repo := NewMemoryRepository()
	officerID := uuid.New()
	citizenA, citizenB := seedAppointments(t, repo, officerID)
	svc := NewQueryService(repo)

	apptsA, err := svc.ForCitizen(context.Background(), citizenA)
	require.NoError(t, err)
	require.Len(t, apptsA, 3)
	for _, a := range apptsA {
		assert.Equal(t, citizenA, a.CitizenID)
	}
	// Newest first.
	assert.True(t, apptsA[0].Date.After(apptsA[2].Date))

	apptsB, err := svc.ForCitizen(context.Background(), citizenB)
	require.NoError(t, err)
	assert.Len(t, apptsB, 2)

	none, err := svc.ForCitizen(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
