package handler

import (
	"errors"
	"net/http"

	"medminion/internal/usecase"
	"medminion/pkg/response"
)

// statusOf maps usecase errors onto HTTP statuses. Anything unknown is a server error.
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidDate),
		errors.Is(err, usecase.ErrSlotNotFound),
		errors.Is(err, usecase.ErrSlotFull),
		errors.Is(err, usecase.ErrInvalidGrid):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrDoctorNotFound),
		errors.Is(err, usecase.ErrNoAvailabilityData),
		errors.Is(err, usecase.ErrNoScheduledAppointment),
		errors.Is(err, usecase.ErrAppointmentNotFound),
		errors.Is(err, usecase.ErrAuditLogNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrAppointmentNotScheduled),
		errors.Is(err, usecase.ErrConcurrentUpdate),
		errors.Is(err, usecase.ErrDoctorExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the envelope. Server errors never expose the underlying cause.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		response.InternalServerError(w, fallback)
		return
	}
	response.Error(w, status, err.Error(), nil)
}
