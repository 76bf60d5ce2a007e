package usecase

import (
	"errors"
	"fmt"

	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"
)

var (
	ErrDoctorNotFound          = errors.New("doctor not found")
	ErrNoAvailabilityData      = errors.New("doctor schedule has no availability")
	ErrInvalidDate             = errors.New("invalid appointment date")
	ErrOutsideBookingWindow    = fmt.Errorf("%w: outside the booking window", ErrInvalidDate)
	ErrNoScheduledAppointment  = errors.New("no scheduled appointments found")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrAppointmentNotScheduled = entity.ErrAppointmentNotScheduled
	ErrSlotNotFound            = entity.ErrSlotNotFound
	ErrSlotFull                = entity.ErrSlotFull
	ErrInvalidGrid             = entity.ErrInvalidGrid
	ErrConcurrentUpdate        = errors.New("the slot was modified concurrently, please retry")
	ErrDoctorExists            = errors.New("doctor already exists at this clinic")
	ErrAuditLogNotFound        = errors.New("audit log not found")

	// ErrStore marks any persistence failure
	ErrStore = errors.New("store operation failed")
)

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStore, err))
}

// gridWriteError keeps a lost compare-and-swap distinguishable from a store failure
func gridWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrentUpdate
	case errors.Is(err, service.ErrLockNotAcquired):
		return ErrConcurrentUpdate
	default:
		return storeError("update availability", err)
	}
}

// outcome labels an operation result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSlotFull):
		return "slot_full"
	case errors.Is(err, ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrNoScheduledAppointment),
		errors.Is(err, ErrAppointmentNotFound):
		return "not_found"
	case errors.Is(err, ErrAppointmentNotScheduled):
		return "not_scheduled"
	default:
		return "error"
	}
}
