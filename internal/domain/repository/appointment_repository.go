package repository

import (
	"context"
	"time"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error)
	// FindScheduledByPatientID orders by appointment date, slot label and creation time
	FindScheduledByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error)
	// FindScheduledByDoctorBetween returns scheduled appointments with from <= date <= to
	FindScheduledByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)
	// CancelAppointment cancels only a scheduled appointment; 0 affected rows means it was not scheduled
	CancelAppointment(ctx context.Context, id uuid.UUID) (int64, error)
	// DeleteScheduled removes only a scheduled appointment
	DeleteScheduled(ctx context.Context, id uuid.UUID) (int64, error)
}
