package scheduling

// Legal status transitions, kept in one place so call sites ask instead of
// re-implementing the rules.
//
// A booked slot never transitions anywhere except back to available, and
// only through cancellation of its linked appointment.
var slotTransitions = map[SlotStatus]map[SlotStatus]bool{
	SlotAvailable: {
		SlotBooked:    true,
		SlotCancelled: true,
	},
	SlotBooked: {
		SlotAvailable: true,
	},
	SlotCancelled: {
		SlotAvailable: true,
	},
}

var appointmentTransitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	AppointmentPending: {
		AppointmentConfirmed: true,
		AppointmentCancelled: true,
	},
	AppointmentConfirmed: {
		AppointmentCompleted: true,
		AppointmentCancelled: true,
	},
	// completed and cancelled are terminal
	AppointmentCompleted: {},
	AppointmentCancelled: {},
}

// SlotCanTransition reports whether a slot may move from one status to another.
func SlotCanTransition(from, to SlotStatus) bool {
	return slotTransitions[from][to]
}

// AppointmentCanTransition reports whether an appointment may move from one
// status to another.
func AppointmentCanTransition(from, to AppointmentStatus) bool {
	return appointmentTransitions[from][to]
}
