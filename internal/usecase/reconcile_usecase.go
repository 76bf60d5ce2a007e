package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"medminion/internal/converter"
	"medminion/internal/delivery/dto"
	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"
	"medminion/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const reconcileConcurrency = 4

// ReconcileUsecase re-derives grid markers from the scheduled appointments inside the
// availability window. The grid is recurring while appointments are dated, so markers
// held by past appointments are only released here.
type ReconcileUsecase interface {
	ReconcileDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ReconcileResponse, error)
	ReconcileAll(ctx context.Context) (*dto.ReconcileSummaryResponse, error)
}

type reconcileUsecase struct {
	log               *logrus.Logger
	metrics           *metrics.Metrics
	transactor        repository.Transactor
	scheduleRepo      repository.DoctorScheduleRepository
	appointmentRepo   repository.AppointmentRepository
	slotLocker        service.SlotLocker
	availabilityCache service.AvailabilityCache
	auditService      service.AuditService
	now               func() time.Time
	windowDays        int
}

func NewReconcileUsecase(
	log *logrus.Logger,
	m *metrics.Metrics,
	transactor repository.Transactor,
	scheduleRepo repository.DoctorScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
	slotLocker service.SlotLocker,
	availabilityCache service.AvailabilityCache,
	auditService service.AuditService,
	now func() time.Time,
	windowDays int,
) ReconcileUsecase {
	return &reconcileUsecase{
		log:               log,
		metrics:           m,
		transactor:        transactor,
		scheduleRepo:      scheduleRepo,
		appointmentRepo:   appointmentRepo,
		slotLocker:        slotLocker,
		availabilityCache: availabilityCache,
		auditService:      auditService,
		now:               now,
		windowDays:        windowDays,
	}
}

func (u *reconcileUsecase) ReconcileDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ReconcileResponse, error) {
	current, err := u.scheduleRepo.FindByDoctorID(ctx, doctorID)
	if err != nil {
		return nil, storeError("load schedule", err)
	}
	if current == nil {
		return nil, ErrDoctorNotFound
	}

	keys := gridSlotKeys(doctorID, current.Availability)
	unlock, err := u.slotLocker.Lock(ctx, keys...)
	if err != nil {
		if errors.Is(err, service.ErrLockNotAcquired) {
			return nil, ErrConcurrentUpdate
		}
		return nil, storeError("lock slots", err)
	}
	defer unlock()

	window := newBookingWindow(u.now(), u.windowDays)

	var (
		result  entity.ReconcileResult
		version int64
	)
	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		schedule, err := u.scheduleRepo.FindByDoctorIDForUpdate(ctx, doctorID)
		if err != nil {
			return storeError("load schedule", err)
		}
		if schedule == nil {
			return ErrDoctorNotFound
		}
		if !coveredBy(keys, doctorID, schedule.Availability) {
			return ErrConcurrentUpdate
		}

		scheduled, err := scheduledCounts(ctx, u.appointmentRepo, doctorID, window)
		if err != nil {
			return err
		}

		before := schedule.Availability.Clone()
		result = schedule.Availability.Reconcile(scheduled)
		version = schedule.Version
		if !result.Changed() {
			return nil
		}

		if err := u.scheduleRepo.UpdateAvailability(ctx, schedule); err != nil {
			return gridWriteError(err)
		}
		version = schedule.Version
		if err := u.auditService.LogUpdate(ctx, systemActor, entity.AuditActionScheduleReconcile, entity.AuditEntityDoctorSchedule, doctorID.String(), before, schedule.Availability); err != nil {
			return storeError("audit reconcile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reportReconcile(u.log, u.metrics, doctorID, result)
	if result.Changed() {
		u.availabilityCache.Invalidate(ctx, doctorID)
		u.log.Infof("Reconciled doctor %s: occupied=%d, freed=%d", doctorID, result.Occupied, result.Freed)
	}

	return converter.ReconcileResultToResponse(doctorID, result, version), nil
}

// ReconcileAll reconciles every doctor. A failing doctor does not stop the others;
// the joined failures are returned next to the summary.
func (u *reconcileUsecase) ReconcileAll(ctx context.Context) (*dto.ReconcileSummaryResponse, error) {
	ids, err := u.scheduleRepo.FindAllDoctorIDs(ctx)
	if err != nil {
		u.log.Warnf("Failed to list doctors for reconciliation: %+v", err)
		return nil, storeError("list doctors", err)
	}

	var (
		mu      sync.Mutex
		results = make([]dto.ReconcileResponse, 0, len(ids))
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			res, err := u.ReconcileDoctor(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				u.log.Warnf("Failed to reconcile doctor %s: %+v", id, err)
				errs = append(errs, err)
				return nil
			}
			results = append(results, *res)
			return nil
		})
	}
	_ = g.Wait()

	summary := &dto.ReconcileSummaryResponse{
		Doctors: len(ids),
		Failed:  len(errs),
		Results: results,
	}
	return summary, errors.Join(errs...)
}
