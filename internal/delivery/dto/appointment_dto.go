package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	PatientID       string `json:"patient_id" validate:"required,max=100"`
	DoctorID        string `json:"doctor_id" validate:"omitempty,uuid"`
	DoctorName      string `json:"doctor_name" validate:"required_without=DoctorID,max=255"`
	AppointmentDate string `json:"appointment_date" validate:"required"`
	AppointmentTime string `json:"appointment_time" validate:"required,max=50"`
	ClinicLocation  string `json:"clinic_location"`
	DoctorContact   string `json:"doctor_contact" validate:"max=50"`
}

// CancelAppointmentRequest cancels AppointmentID, or the patient's earliest scheduled
// appointment when it is empty
type CancelAppointmentRequest struct {
	PatientID     string `json:"patient_id" validate:"required,max=100"`
	AppointmentID string `json:"appointment_id" validate:"omitempty,uuid"`
}

type RescheduleAppointmentRequest struct {
	PatientID          string `json:"patient_id" validate:"required,max=100"`
	AppointmentID      string `json:"appointment_id" validate:"omitempty,uuid"`
	NewAppointmentDate string `json:"new_appointment_date" validate:"required"`
	NewAppointmentTime string `json:"new_appointment_time" validate:"required,max=50"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       string    `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentDate string    `json:"appointment_date"`
	DayName         string    `json:"day_name"`
	AppointmentTime string    `json:"appointment_time"`
	Status          string    `json:"status"`
	ClinicLocation  string    `json:"clinic_location"`
	DoctorContact   string    `json:"doctor_contact"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

// MessageResponse and ErrorResponse are the bare shapes of the chat-facing endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
