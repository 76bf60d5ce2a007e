package usecase

import (
	"context"
	"errors"
	"time"

	"medminion/internal/converter"
	"medminion/internal/delivery/dto"
	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"
	"medminion/pkg/metrics"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const systemActor = "system"

type DoctorDirectoryUsecase interface {
	ListDepartments(ctx context.Context) ([]string, error)
	ListLocations(ctx context.Context, department string) ([]string, error)
	ListDoctors(ctx context.Context, department, location string) ([]dto.DoctorSummaryResponse, error)
	CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	SetAvailability(ctx context.Context, doctorID uuid.UUID, req *dto.SetAvailabilityRequest) (*dto.DoctorScheduleResponse, error)
}

type doctorDirectoryUsecase struct {
	log               *logrus.Logger
	metrics           *metrics.Metrics
	transactor        repository.Transactor
	doctorRepo        repository.DoctorRepository
	scheduleRepo      repository.DoctorScheduleRepository
	appointmentRepo   repository.AppointmentRepository
	slotLocker        service.SlotLocker
	auditService      service.AuditService
	availabilityCache service.AvailabilityCache
	resolver          DoctorResolver
	listings          *cache.Cache
	now               func() time.Time
	windowDays        int
}

func NewDoctorDirectoryUsecase(
	log *logrus.Logger,
	m *metrics.Metrics,
	transactor repository.Transactor,
	doctorRepo repository.DoctorRepository,
	scheduleRepo repository.DoctorScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
	slotLocker service.SlotLocker,
	auditService service.AuditService,
	availabilityCache service.AvailabilityCache,
	resolver DoctorResolver,
	listingTTL time.Duration,
	now func() time.Time,
	windowDays int,
) DoctorDirectoryUsecase {
	return &doctorDirectoryUsecase{
		log:               log,
		metrics:           m,
		transactor:        transactor,
		doctorRepo:        doctorRepo,
		scheduleRepo:      scheduleRepo,
		appointmentRepo:   appointmentRepo,
		slotLocker:        slotLocker,
		auditService:      auditService,
		availabilityCache: availabilityCache,
		resolver:          resolver,
		listings:          cache.New(listingTTL, 2*listingTTL),
		now:               now,
		windowDays:        windowDays,
	}
}

func (u *doctorDirectoryUsecase) ListDepartments(ctx context.Context) ([]string, error) {
	return cachedList(u.listings, "departments", func() ([]string, error) {
		departments, err := u.doctorRepo.DistinctSpecialties(ctx)
		if err != nil {
			u.log.Warnf("Failed to list departments: %+v", err)
			return nil, storeError("list departments", err)
		}
		return departments, nil
	})
}

func (u *doctorDirectoryUsecase) ListLocations(ctx context.Context, department string) ([]string, error) {
	return cachedList(u.listings, "locations:"+department, func() ([]string, error) {
		locations, err := u.doctorRepo.DistinctLocations(ctx, department)
		if err != nil {
			u.log.Warnf("Failed to list locations for %q: %+v", department, err)
			return nil, storeError("list locations", err)
		}
		return locations, nil
	})
}

func (u *doctorDirectoryUsecase) ListDoctors(ctx context.Context, department, location string) ([]dto.DoctorSummaryResponse, error) {
	return cachedList(u.listings, "doctors:"+department+"\x00"+location, func() ([]dto.DoctorSummaryResponse, error) {
		doctors, err := u.doctorRepo.FindBySpecialtyAndLocation(ctx, department, location)
		if err != nil {
			u.log.Warnf("Failed to list doctors for %q at %q: %+v", department, location, err)
			return nil, storeError("list doctors", err)
		}
		return converter.DoctorsToSummaries(doctors), nil
	})
}

func cachedList[T any](c *cache.Cache, key string, load func() ([]T, error)) ([]T, error) {
	if cached, found := c.Get(key); found {
		return cached.([]T), nil
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	c.SetDefault(key, items)
	return items, nil
}

// CreateDoctor adds the directory entry and its availability grid in one transaction
func (u *doctorDirectoryUsecase) CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	grid := req.Availability
	if grid == nil {
		grid = entity.AvailabilityGrid{}
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	doctor := &entity.Doctor{
		ID:            uuid.New(),
		Name:          req.Name,
		Specialty:     req.Specialty,
		ClinicAddress: req.ClinicAddress,
		Contact:       req.Contact,
	}
	schedule := &entity.DoctorSchedule{
		DoctorID:     doctor.ID,
		DoctorName:   doctor.Name,
		Availability: grid,
	}

	err := u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.doctorRepo.Create(ctx, doctor); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrDoctorExists
			}
			return storeError("create doctor", err)
		}
		if err := u.scheduleRepo.Create(ctx, schedule); err != nil {
			return storeError("create schedule", err)
		}
		if err := u.auditService.LogCreate(ctx, systemActor, entity.AuditActionDoctorCreate, entity.AuditEntityDoctor, doctor.ID.String(), doctor); err != nil {
			return storeError("audit doctor", err)
		}
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to create doctor %q: %+v", req.Name, err)
		return nil, err
	}

	u.listings.Flush()
	u.resolver.Forget()

	u.log.Infof("Doctor created: id=%s, name=%s", doctor.ID, doctor.Name)
	return converter.DoctorToResponse(doctor), nil
}

// SetAvailability replaces a doctor's grid. The submitted markers are re-derived
// from the scheduled appointments in the same transaction, under the locks of every
// old and new slot, so the grid never contradicts them.
func (u *doctorDirectoryUsecase) SetAvailability(ctx context.Context, doctorID uuid.UUID, req *dto.SetAvailabilityRequest) (*dto.DoctorScheduleResponse, error) {
	if err := req.Availability.Validate(); err != nil {
		return nil, err
	}

	current, err := u.scheduleRepo.FindByDoctorID(ctx, doctorID)
	if err != nil {
		return nil, storeError("load schedule", err)
	}
	if current == nil {
		return nil, ErrDoctorNotFound
	}

	keys := gridSlotKeys(doctorID, current.Availability, req.Availability)
	unlock, err := u.slotLocker.Lock(ctx, keys...)
	if err != nil {
		u.log.Warnf("Failed to lock slots of doctor %s: %+v", doctorID, err)
		if errors.Is(err, service.ErrLockNotAcquired) {
			return nil, ErrConcurrentUpdate
		}
		return nil, storeError("lock slots", err)
	}
	defer unlock()

	window := newBookingWindow(u.now(), u.windowDays)

	var (
		schedule *entity.DoctorSchedule
		result   entity.ReconcileResult
	)
	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := u.scheduleRepo.FindByDoctorIDForUpdate(ctx, doctorID)
		if err != nil {
			return storeError("load schedule", err)
		}
		if locked == nil {
			return ErrDoctorNotFound
		}
		schedule = locked
		if !coveredBy(keys, doctorID, schedule.Availability) {
			return ErrConcurrentUpdate
		}

		scheduled, err := scheduledCounts(ctx, u.appointmentRepo, doctorID, window)
		if err != nil {
			return err
		}

		old := schedule.Availability
		schedule.Availability = req.Availability.Clone()
		result = schedule.Availability.Reconcile(scheduled)
		if err := u.scheduleRepo.UpdateAvailability(ctx, schedule); err != nil {
			return gridWriteError(err)
		}
		if err := u.auditService.LogUpdate(ctx, systemActor, entity.AuditActionScheduleUpdate, entity.AuditEntityDoctorSchedule, doctorID.String(), old, schedule.Availability); err != nil {
			return storeError("audit schedule", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDoctorNotFound) {
			u.log.Warnf("Failed to set availability for doctor %s: %+v", doctorID, err)
		}
		return nil, err
	}
	u.availabilityCache.Invalidate(ctx, doctorID)
	reportReconcile(u.log, u.metrics, doctorID, result)

	u.log.Infof("Availability replaced for doctor %s: version=%d", doctorID, schedule.Version)
	return converter.ScheduleToResponse(schedule), nil
}
