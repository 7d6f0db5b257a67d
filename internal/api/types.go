package api

import (
	"github.com/google/uuid"

	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

type CreateAvailabilityRequest struct {
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration,omitempty"`
}

type CreateAvailabilityResponse struct {
	Slots []SlotResponse `json:"slots"`
	Count int            `json:"count"`
}

type UpdateSlotRequest struct {
	Date   *string `json:"date,omitempty"`
	Start  *string `json:"start,omitempty"`
	End    *string `json:"end,omitempty"`
	Status *string `json:"status,omitempty"`
}

type BulkSlotStatusRequest struct {
	SlotIDs []int64 `json:"slot_ids"`
	Status  string  `json:"status"`
}

type CreateAppointmentRequest struct {
	ServiceID string `json:"service_id"`
	SlotID    int64  `json:"slot_id"`
	Purpose   string `json:"purpose"`
}

type SlotResponse struct {
	ID            int64      `json:"id"`
	OfficerID     uuid.UUID  `json:"officer_id"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
}

type SlotListResponse struct {
	Slots      []SlotResponse `json:"slots"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	CitizenID uuid.UUID `json:"citizen_id"`
	OfficerID uuid.UUID `json:"officer_id"`
	ServiceID uuid.UUID `json:"service_id"`
	SlotID    int64     `json:"slot_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Purpose   string    `json:"purpose"`
	Status    string    `json:"status"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	Total        int                   `json:"total"`
}

type DeleteForDateResponse struct {
	Deleted int `json:"deleted"`
	Booked  int `json:"booked"`
}

type BulkSlotStatusResponse struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponse(s scheduling.Slot) SlotResponse {
	return SlotResponse{
		ID:            s.ID,
		OfficerID:     s.OfficerID,
		Date:          scheduling.FormatDate(s.Date),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Status:        string(s.Status),
		AppointmentID: s.AppointmentID,
	}
}

func toSlotList(slots []scheduling.Slot, page, limit, total int) SlotListResponse {
	out := SlotListResponse{
		Slots: make([]SlotResponse, 0, len(slots)),
		Page:  page,
		Limit: limit,
		Total: total,
	}
	if limit > 0 {
		out.TotalPages = (total + limit - 1) / limit
	}
	for _, s := range slots {
		out.Slots = append(out.Slots, toSlotResponse(s))
	}
	return out
}

func toAppointmentResponse(a scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		CitizenID: a.CitizenID,
		OfficerID: a.OfficerID,
		ServiceID: a.ServiceID,
		SlotID:    a.SlotID,
		Date:      scheduling.FormatDate(a.Date),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Purpose:   a.Purpose,
		Status:    string(a.Status),
	}
}
