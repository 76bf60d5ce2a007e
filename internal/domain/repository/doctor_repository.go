package repository

import (
	"context"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *entity.Doctor) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	DistinctSpecialties(ctx context.Context) ([]string, error)
	DistinctLocations(ctx context.Context, specialty string) ([]string, error)
	FindBySpecialtyAndLocation(ctx context.Context, specialty, location string) ([]entity.Doctor, error)
}
