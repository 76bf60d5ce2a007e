package repository

import (
	"context"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.DoctorSchedule) error
	FindByDoctorID(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error)
	// FindByDoctorIDForUpdate locks the schedule for the rest of the surrounding transaction
	FindByDoctorIDForUpdate(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error)
	// FindByNamePattern returns the first schedule, ordered by doctor name, whose name
	// matches the case-insensitive regular expression
	FindByNamePattern(ctx context.Context, pattern string) (*entity.DoctorSchedule, error)
	FindAllDoctorIDs(ctx context.Context) ([]uuid.UUID, error)
	// UpdateAvailability writes the grid only if the stored version still equals
	// schedule.Version, then bumps schedule.Version. Returns ErrVersionConflict otherwise.
	UpdateAvailability(ctx context.Context, schedule *entity.DoctorSchedule) error
}
