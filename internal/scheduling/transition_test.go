package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotTransitions(t *testing.T) {
	assert.True(t, SlotCanTransition(SlotAvailable, SlotBooked))
	assert.True(t, SlotCanTransition(SlotAvailable, SlotCancelled))
	assert.True(t, SlotCanTransition(SlotBooked, SlotAvailable))
	assert.True(t, SlotCanTransition(SlotCancelled, SlotAvailable))

	// A booked slot never cancels directly; its appointment must be
	// cancelled first, which releases it to available.
	assert.False(t, SlotCanTransition(SlotBooked, SlotCancelled))
	assert.False(t, SlotCanTransition(SlotCancelled, SlotBooked))
}

func TestAppointmentTransitions(t *testing.T) {
	assert.True(t, AppointmentCanTransition(AppointmentPending, AppointmentConfirmed))
	assert.True(t, AppointmentCanTransition(AppointmentPending, AppointmentCancelled))
	assert.True(t, AppointmentCanTransition(AppointmentConfirmed, AppointmentCompleted))
	assert.True(t, AppointmentCanTransition(AppointmentConfirmed, AppointmentCancelled))

	// Terminal states stay terminal.
	assert.False(t, AppointmentCanTransition(AppointmentCompleted, AppointmentCancelled))
	assert.False(t, AppointmentCanTransition(AppointmentCancelled, AppointmentConfirmed))
	assert.False(t, AppointmentCanTransition(AppointmentCancelled, AppointmentCancelled))
}
