package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"medminion/internal/delivery/dto"
	"medminion/internal/usecase"
	"medminion/pkg/response"
	"medminion/pkg/validator"
)

const (
	msgBooked            = "Your appointment is successfully booked!"
	msgRescheduled       = "Appointment rescheduled."
	msgCanceled          = "Appointment canceled successfully."
	msgSlotFull          = "The selected time slot is already full."
	msgSlotNotAvailable  = "The selected time slot is not available."
	msgInvalidDate       = "Invalid appointment date. Use YYYY-MM-DD within the booking window."
	msgOutsideWindow     = "The appointment date is outside the booking window."
	msgNoScheduled       = "No scheduled appointments found."
	msgAppointmentAbsent = "Appointment not found."
	msgInvalidBody       = "Invalid request body"
)

// LegacyHandler serves the bare JSON surface the chat front end talks to
type LegacyHandler struct {
	directoryUsecase    usecase.DoctorDirectoryUsecase
	availabilityUsecase usecase.AvailabilityUsecase
	appointmentUsecase  usecase.AppointmentUsecase
	validator           *validator.CustomValidator
}

func NewLegacyHandler(
	directoryUsecase usecase.DoctorDirectoryUsecase,
	availabilityUsecase usecase.AvailabilityUsecase,
	appointmentUsecase usecase.AppointmentUsecase,
	validator *validator.CustomValidator,
) *LegacyHandler {
	return &LegacyHandler{
		directoryUsecase:    directoryUsecase,
		availabilityUsecase: availabilityUsecase,
		appointmentUsecase:  appointmentUsecase,
		validator:           validator,
	}
}

func (h *LegacyHandler) FetchDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.directoryUsecase.ListDepartments(r.Context())
	if err != nil {
		response.Failure(w, http.StatusInternalServerError, "Failed to fetch departments.")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(departments))
}

func (h *LegacyHandler) FetchLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.directoryUsecase.ListLocations(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		response.Failure(w, http.StatusInternalServerError, "Failed to fetch locations.")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(locations))
}

func (h *LegacyHandler) FetchDoctors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	doctors, err := h.directoryUsecase.ListDoctors(r.Context(), query.Get("department"), query.Get("location"))
	if err != nil {
		response.Failure(w, http.StatusInternalServerError, "Failed to fetch doctors.")
		return
	}
	response.JSON(w, http.StatusOK, nonNil(doctors))
}

func (h *LegacyHandler) FetchDoctorAvailability(w http.ResponseWriter, r *http.Request) {
	days, err := h.availabilityUsecase.GetDoctorAvailability(r.Context(), r.URL.Query().Get("doctor_name"))
	if err != nil {
		h.fail(w, err, "Doctor schedule not found or no availability field", "Failed to fetch doctor availability.")
		return
	}
	response.JSON(w, http.StatusOK, days)
}

func (h *LegacyHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := dto.CheckAvailabilityRequest{
		DoctorName:      query.Get("doctor_name"),
		AppointmentDate: query.Get("appointment_date"),
		AppointmentTime: query.Get("appointment_time"),
	}
	if err := h.validator.Validate(&req); err != nil {
		response.Failure(w, http.StatusBadRequest, h.validator.Describe(err))
		return
	}

	res, err := h.availabilityUsecase.CheckAvailability(r.Context(), &req)
	if err != nil {
		h.fail(w, err, "Doctor not found.", "Failed to check availability.")
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *LegacyHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.appointmentUsecase.BookAppointment(r.Context(), &req); err != nil {
		h.fail(w, err, "Doctor schedule not found or the day is not available.", "Failed to book appointment.")
		return
	}
	response.Message(w, http.StatusOK, msgBooked)
}

func (h *LegacyHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.RescheduleAppointmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.appointmentUsecase.RescheduleAppointment(r.Context(), &req); err != nil {
		h.fail(w, err, "Doctor schedule not found or the day is not available.", "Failed to reschedule appointment.")
		return
	}
	response.Message(w, http.StatusOK, msgRescheduled)
}

func (h *LegacyHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelAppointmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.appointmentUsecase.CancelAppointment(r.Context(), &req); err != nil {
		h.fail(w, err, "Doctor schedule not found.", "Failed to cancel appointment.")
		return
	}
	response.Message(w, http.StatusOK, msgCanceled)
}

func (h *LegacyHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Failure(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		response.Failure(w, http.StatusBadRequest, h.validator.Describe(err))
		return false
	}
	return true
}

// fail writes {error}. doctorMissing is used when the doctor or its grid cannot be found.
func (h *LegacyHandler) fail(w http.ResponseWriter, err error, doctorMissing, fallback string) {
	status := statusOf(err)
	var message string
	switch {
	case errors.Is(err, usecase.ErrSlotFull):
		message = msgSlotFull
	case errors.Is(err, usecase.ErrSlotNotFound):
		message = msgSlotNotAvailable
	case errors.Is(err, usecase.ErrOutsideBookingWindow):
		message = msgOutsideWindow
	case errors.Is(err, usecase.ErrInvalidDate):
		message = msgInvalidDate
	case errors.Is(err, usecase.ErrDoctorNotFound), errors.Is(err, usecase.ErrNoAvailabilityData):
		message = doctorMissing
	case errors.Is(err, usecase.ErrNoScheduledAppointment):
		message = msgNoScheduled
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		message = msgAppointmentAbsent
	case status == http.StatusInternalServerError:
		message = fallback
	default:
		message = err.Error()
	}
	response.Failure(w, status, message)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
