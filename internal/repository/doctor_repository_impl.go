package repository

import (
	"context"
	"errors"

	"medminion/internal/domain/entity"
	domainRepo "medminion/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) domainRepo.DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	return translateCreateError(conn(ctx, r.db).Create(doctor).Error)
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := conn(ctx, r.db).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) DistinctSpecialties(ctx context.Context) ([]string, error) {
	var specialties []string
	err := conn(ctx, r.db).Model(&entity.Doctor{}).
		Distinct("specialty").
		Order("specialty ASC").
		Pluck("specialty", &specialties).Error
	if err != nil {
		return nil, err
	}
	return specialties, nil
}

func (r *doctorRepository) DistinctLocations(ctx context.Context, specialty string) ([]string, error) {
	var locations []string
	err := conn(ctx, r.db).Model(&entity.Doctor{}).
		Where("specialty = ?", specialty).
		Distinct("clinic_address").
		Order("clinic_address ASC").
		Pluck("clinic_address", &locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *doctorRepository) FindBySpecialtyAndLocation(ctx context.Context, specialty, location string) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	err := conn(ctx, r.db).
		Where("specialty = ? AND clinic_address = ?", specialty, location).
		Order("name ASC").
		Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}
