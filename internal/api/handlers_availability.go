package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/directory"
	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

// Handlers bundles the three scheduling services behind the HTTP surface.
type Handlers struct {
	availability *scheduling.AvailabilityService
	booking      *scheduling.BookingService
	query        *scheduling.QueryService
	dir          directory.Directory
	metrics      *Metrics
	logger       zerolog.Logger
}

func NewHandlers(
	availability *scheduling.AvailabilityService,
	booking *scheduling.BookingService,
	query *scheduling.QueryService,
	dir directory.Directory,
	metrics *Metrics,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		availability: availability,
		booking:      booking,
		query:        query,
		dir:          dir,
		metrics:      metrics,
		logger:       logger,
	}
}

func (h *Handlers) createAvailability(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	slots, err := h.availability.CreateAvailability(r.Context(), claims.ActorID, scheduling.CreateAvailabilityParams{
		Date:     req.Date,
		Start:    req.Start,
		End:      req.End,
		Duration: req.Duration,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := CreateAvailabilityResponse{
		Slots: make([]SlotResponse, 0, len(slots)),
		Count: len(slots),
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, toSlotResponse(s))
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) listMyAvailability(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	params := scheduling.ListAvailabilityParams{
		Status:   q.Get("status"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Page:     queryInt(q.Get("page"), 1),
		Limit:    queryInt(q.Get("limit"), 0),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	params.Limit = scheduling.NormalizeLimit(params.Limit)

	slots, total, err := h.availability.ListAvailability(r.Context(), claims.ActorID, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSlotList(slots, params.Page, params.Limit, total))
}

func (h *Handlers) updateSlot(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	slotID, ok := slotIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	slot, err := h.availability.UpdateSlot(r.Context(), claims.ActorID, slotID, scheduling.SlotPatch{
		Date:   req.Date,
		Start:  req.Start,
		End:    req.End,
		Status: req.Status,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSlotResponse(*slot))
}

func (h *Handlers) deleteSlot(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	slotID, ok := slotIDParam(w, r)
	if !ok {
		return
	}

	if err := h.availability.DeleteSlot(r.Context(), claims.ActorID, slotID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteSlotsForDate(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	date := chi.URLParam(r, "date")
	mode := scheduling.DeleteMode(r.URL.Query().Get("mode"))

	report, err := h.availability.DeleteSlotsForDate(r.Context(), claims.ActorID, date, mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteForDateResponse{
		Deleted: report.Deleted,
		Booked:  report.Booked,
	})
}

func (h *Handlers) bulkUpdateSlotStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req BulkSlotStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if len(req.SlotIDs) == 0 {
		writeError(w, http.StatusBadRequest, "empty_batch", "slot_ids must not be empty")
		return
	}

	report, err := h.availability.BulkUpdateStatus(r.Context(), claims.ActorID, req.SlotIDs, scheduling.SlotStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BulkSlotStatusResponse{
		Updated: report.Updated,
		Skipped: report.Skipped,
	})
}

func (h *Handlers) listBookableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := scheduling.BookableParams{
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Page:     queryInt(q.Get("page"), 1),
		Limit:    queryInt(q.Get("limit"), 0),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	params.Limit = scheduling.NormalizeLimit(params.Limit)

	if raw := q.Get("officerId"); raw != "" {
		officerID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_officer_id", "officerId must be a valid UUID")
			return
		}
		params.OfficerID = &officerID
	}

	slots, total, err := h.availability.ListBookable(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSlotList(slots, params.Page, params.Limit, total))
}

func (h *Handlers) reloadDirectory(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.Reload(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("directory reload failed")
		writeError(w, http.StatusInternalServerError, "reload_failed", "could not reload reference data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func slotIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
