package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civisched/appointment-scheduling/internal/auth"
	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

func (h *Handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
		return
	}
	if req.SlotID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a positive integer")
		return
	}

	appt, err := h.booking.CreateAppointment(r.Context(), claims.ActorID, scheduling.CreateAppointmentParams{
		ServiceID: serviceID,
		SlotID:    req.SlotID,
		Purpose:   req.Purpose,
	})
	if err != nil {
		if errors.Is(err, scheduling.ErrSlotUnavailable) {
			h.metrics.ObserveBooking("conflict")
		} else {
			h.metrics.ObserveBooking("rejected")
		}
		writeDomainError(w, err)
		return
	}

	h.metrics.ObserveBooking("booked")
	writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
}

func (h *Handlers) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	apptID, ok := appointmentIDParam(w, r)
	if !ok {
		return
	}

	actor := scheduling.Actor{
		ID:      claims.ActorID,
		Officer: claims.Role == auth.RoleOfficer,
	}

	appt, err := h.booking.CancelAppointment(r.Context(), actor, apptID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
}

func (h *Handlers) completeAppointment(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	apptID, ok := appointmentIDParam(w, r)
	if !ok {
		return
	}

	appt, err := h.booking.CompleteAppointment(r.Context(), claims.ActorID, apptID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
}

func (h *Handlers) listMyAppointments(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	appts, err := h.query.ForCitizen(r.Context(), claims.ActorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) listOfficerAppointments(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	query := scheduling.OfficerAppointmentsQuery{
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Status:   q.Get("status"),
		Limit:    queryInt(q.Get("limit"), 0),
		Offset:   queryInt(q.Get("offset"), 0),
	}
	if query.Limit <= 0 {
		query.Limit = scheduling.DefaultAppointmentLimit
	}
	if query.Limit > scheduling.MaxAppointmentLimit {
		query.Limit = scheduling.MaxAppointmentLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	if raw := q.Get("citizenId"); raw != "" {
		citizenID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_citizen_id", "citizenId must be a valid UUID")
			return
		}
		query.CitizenID = &citizenID
	}

	appts, total, err := h.query.ForOfficer(r.Context(), claims.ActorID, query)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appts)),
		Limit:        query.Limit,
		Offset:       query.Offset,
		Total:        total,
	}
	for _, a := range appts {
		resp.Appointments = append(resp.Appointments, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func appointmentIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
