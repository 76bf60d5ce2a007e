package repository

import (
	"context"
	"errors"
	"time"

	"medminion/internal/domain/entity"
	domainRepo "medminion/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorScheduleRepository struct {
	db *gorm.DB
}

func NewDoctorScheduleRepository(db *gorm.DB) domainRepo.DoctorScheduleRepository {
	return &doctorScheduleRepository{db: db}
}

func (r *doctorScheduleRepository) Create(ctx context.Context, schedule *entity.DoctorSchedule) error {
	return conn(ctx, r.db).Create(schedule).Error
}

func (r *doctorScheduleRepository) FindByDoctorID(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error) {
	return r.first(conn(ctx, r.db).Where("doctor_id = ?", doctorID))
}

func (r *doctorScheduleRepository) FindByDoctorIDForUpdate(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error) {
	return r.first(conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doctor_id = ?", doctorID))
}

// FindByNamePattern uses the PostgreSQL case-insensitive regex operator
func (r *doctorScheduleRepository) FindByNamePattern(ctx context.Context, pattern string) (*entity.DoctorSchedule, error) {
	return r.first(conn(ctx, r.db).
		Where("doctor_name ~* ?", pattern).
		Order("doctor_name ASC"))
}

func (r *doctorScheduleRepository) FindAllDoctorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).Model(&entity.DoctorSchedule{}).
		Order("doctor_id ASC").
		Pluck("doctor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateAvailability is a compare-and-swap on the version column
func (r *doctorScheduleRepository) UpdateAvailability(ctx context.Context, schedule *entity.DoctorSchedule) error {
	now := time.Now()
	result := conn(ctx, r.db).Model(&entity.DoctorSchedule{}).
		Where("doctor_id = ? AND version = ?", schedule.DoctorID, schedule.Version).
		Updates(map[string]interface{}{
			"availability": schedule.Availability,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrVersionConflict
	}
	schedule.Version++
	schedule.UpdatedAt = now
	return nil
}

func (r *doctorScheduleRepository) first(query *gorm.DB) (*entity.DoctorSchedule, error) {
	var schedule entity.DoctorSchedule
	err := query.First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}
