package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"medminion/internal/converter"
	"medminion/internal/delivery/dto"
	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AvailabilityUsecase interface {
	// GetDoctorAvailability projects the doctor's grid onto today and the following days
	GetDoctorAvailability(ctx context.Context, doctorName string) ([]dto.DayAvailabilityResponse, error)
	// CheckAvailability reports false for unknown doctors, weekdays and slots
	CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error)
	GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorScheduleResponse, error)
}

type availabilityUsecase struct {
	log               *logrus.Logger
	scheduleRepo      repository.DoctorScheduleRepository
	resolver          DoctorResolver
	availabilityCache service.AvailabilityCache
	now               func() time.Time
	windowDays        int
}

func NewAvailabilityUsecase(
	log *logrus.Logger,
	scheduleRepo repository.DoctorScheduleRepository,
	resolver DoctorResolver,
	availabilityCache service.AvailabilityCache,
	now func() time.Time,
	windowDays int,
) AvailabilityUsecase {
	return &availabilityUsecase{
		log:               log,
		scheduleRepo:      scheduleRepo,
		resolver:          resolver,
		availabilityCache: availabilityCache,
		now:               now,
		windowDays:        windowDays,
	}
}

func (u *availabilityUsecase) GetDoctorAvailability(ctx context.Context, doctorName string) ([]dto.DayAvailabilityResponse, error) {
	doctor, err := u.resolver.Resolve(ctx, entity.DoctorRef{Name: doctorName})
	if err != nil {
		return nil, err
	}

	today := entity.StartOfDay(u.now())
	days, err := u.availabilityCache.Fetch(ctx, doctor.ID, today, func(ctx context.Context) ([]entity.DayAvailability, error) {
		schedule, err := u.scheduleRepo.FindByDoctorID(ctx, doctor.ID)
		if err != nil {
			u.log.Warnf("Failed to load schedule for doctor %s: %+v", doctor.ID, err)
			return nil, storeError("load schedule", err)
		}
		if schedule == nil {
			return nil, ErrDoctorNotFound
		}
		if !schedule.HasAvailability() {
			return nil, ErrNoAvailabilityData
		}
		return slices.Collect(schedule.Availability.Window(today, u.windowDays)), nil
	})
	if err != nil {
		return nil, err
	}

	return converter.DaysToResponses(days), nil
}

func (u *availabilityUsecase) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error) {
	date, err := entity.ParseDate(strings.TrimSpace(req.AppointmentDate))
	if err != nil {
		return nil, ErrInvalidDate
	}

	doctor, err := u.resolver.Resolve(ctx, entity.DoctorRef{Name: req.DoctorName})
	if errors.Is(err, ErrDoctorNotFound) {
		return &dto.CheckAvailabilityResponse{Available: false}, nil
	}
	if err != nil {
		return nil, err
	}

	schedule, err := u.scheduleRepo.FindByDoctorID(ctx, doctor.ID)
	if err != nil {
		u.log.Warnf("Failed to load schedule for doctor %s: %+v", doctor.ID, err)
		return nil, storeError("load schedule", err)
	}
	if schedule == nil {
		return &dto.CheckAvailabilityResponse{Available: false}, nil
	}

	available := schedule.Availability.IsBookable(entity.WeekdayName(date), req.AppointmentTime)
	return &dto.CheckAvailabilityResponse{Available: available}, nil
}

func (u *availabilityUsecase) GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorScheduleResponse, error) {
	schedule, err := u.scheduleRepo.FindByDoctorID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to load schedule for doctor %s: %+v", doctorID, err)
		return nil, storeError("load schedule", err)
	}
	if schedule == nil {
		return nil, ErrDoctorNotFound
	}
	return converter.ScheduleToResponse(schedule), nil
}
