package scheduling

import "fmt"

// Kind classifies a domain failure so the transport layer can map it to a
// status code without inspecting individual error values.
type Kind string

const (
	KindBadRequest Kind = "bad_request"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
)

// Error carries a machine-readable code alongside the human message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches two domain errors by code, so wrapped returns of the shared
// sentinels below still compare with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func badRequestf(code, format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func forbiddenf(code, format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflictf(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Shared sentinels. Byte-for-byte codes are part of the API contract.
var (
	ErrInvalidRange    = &Error{Kind: KindBadRequest, Code: "invalid_range", Message: "start time must be before end time"}
	ErrInvalidDuration = &Error{Kind: KindBadRequest, Code: "invalid_duration", Message: "slot duration must be between 5 and 120 minutes"}

	ErrSlotNotFound        = &Error{Kind: KindNotFound, Code: "slot_not_found", Message: "slot not found"}
	ErrAppointmentNotFound = &Error{Kind: KindNotFound, Code: "appointment_not_found", Message: "appointment not found"}

	// ErrSlotUnavailable is the race loser's result: another request booked
	// the slot between validation and the conditional write.
	ErrSlotUnavailable = &Error{Kind: KindConflict, Code: "slot_unavailable", Message: "slot no longer available"}
)
