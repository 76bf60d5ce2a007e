package repository

import (
	"context"
	"errors"
	"time"

	"medminion/internal/domain/entity"
	domainRepo "medminion/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) domainRepo.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	return conn(ctx, r.db).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := conn(ctx, r.db).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := conn(ctx, r.db).
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC, appointment_time DESC, created_at DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindScheduledByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := conn(ctx, r.db).
		Where("patient_id = ? AND status = ?", patientID, entity.AppointmentStatusScheduled).
		Order("appointment_date ASC, appointment_time ASC, created_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindScheduledByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := conn(ctx, r.db).
		Where("doctor_id = ? AND status = ?", doctorID, entity.AppointmentStatusScheduled).
		Where("appointment_date >= ? AND appointment_date <= ?", from.Format(entity.DateLayout), to.Format(entity.DateLayout)).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// CancelAppointment atomically cancels an appointment ONLY if it is still scheduled.
// Returns affected rows: 1 = success, 0 = not scheduled anymore (prevents double-cancel race).
func (r *appointmentRepository) CancelAppointment(ctx context.Context, id uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusScheduled).
		Update("status", entity.AppointmentStatusCanceled)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) DeleteScheduled(ctx context.Context, id uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusScheduled).
		Delete(&entity.Appointment{})
	return result.RowsAffected, result.Error
}
