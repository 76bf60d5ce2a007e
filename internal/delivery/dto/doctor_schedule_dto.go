package dto

import (
	"time"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type CheckAvailabilityRequest struct {
	DoctorName      string `json:"doctor_name" validate:"required"`
	AppointmentDate string `json:"appointment_date" validate:"required"`
	AppointmentTime string `json:"appointment_time" validate:"required"`
}

type SetAvailabilityRequest struct {
	Availability entity.AvailabilityGrid `json:"availability" validate:"required"`
}

// Response DTOs

type DayAvailabilityResponse struct {
	Date           string   `json:"date"`
	DayName        string   `json:"day_name"`
	AvailableTimes []string `json:"available_times"`
}

type CheckAvailabilityResponse struct {
	Available bool `json:"available"`
}

type DoctorScheduleResponse struct {
	DoctorID     uuid.UUID               `json:"doctor_id"`
	DoctorName   string                  `json:"doctor_name"`
	Availability entity.AvailabilityGrid `json:"availability"`
	Version      int64                   `json:"version"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

type SlotRefResponse struct {
	Day  string `json:"day"`
	Slot string `json:"slot"`
}

type ReconcileResponse struct {
	DoctorID   uuid.UUID         `json:"doctor_id"`
	Occupied   int               `json:"occupied"`
	Freed      int               `json:"freed"`
	Overbooked []SlotRefResponse `json:"overbooked"`
	Orphaned   []SlotRefResponse `json:"orphaned"`
	Version    int64             `json:"version"`
}

type ReconcileSummaryResponse struct {
	Doctors int                 `json:"doctors"`
	Failed  int                 `json:"failed"`
	Results []ReconcileResponse `json:"results"`
}
