package dto

import (
	"time"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type CreateDoctorRequest struct {
	Name          string                  `json:"name" validate:"required,min=2,max=255"`
	Specialty     string                  `json:"specialty" validate:"required,max=100"`
	ClinicAddress string                  `json:"clinic_address" validate:"required"`
	Contact       string                  `json:"contact" validate:"max=50"`
	Availability  entity.AvailabilityGrid `json:"availability"`
}

// Response DTOs

// DoctorSummaryResponse is one row of the doctor listing
type DoctorSummaryResponse struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type DoctorResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Specialty     string    `json:"specialty"`
	ClinicAddress string    `json:"clinic_address"`
	Contact       string    `json:"contact"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
