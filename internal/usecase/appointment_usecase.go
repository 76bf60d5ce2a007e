package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"medminion/internal/converter"
	"medminion/internal/delivery/dto"
	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"
	"medminion/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AppointmentUsecase interface {
	BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	RescheduleAppointment(ctx context.Context, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	ListPatientAppointments(ctx context.Context, patientID string) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	log               *logrus.Logger
	metrics           *metrics.Metrics
	transactor        repository.Transactor
	appointmentRepo   repository.AppointmentRepository
	scheduleRepo      repository.DoctorScheduleRepository
	doctorRepo        repository.DoctorRepository
	resolver          DoctorResolver
	slotLocker        service.SlotLocker
	availabilityCache service.AvailabilityCache
	auditService      service.AuditService
	now               func() time.Time
	windowDays        int
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	m *metrics.Metrics,
	transactor repository.Transactor,
	appointmentRepo repository.AppointmentRepository,
	scheduleRepo repository.DoctorScheduleRepository,
	doctorRepo repository.DoctorRepository,
	resolver DoctorResolver,
	slotLocker service.SlotLocker,
	availabilityCache service.AvailabilityCache,
	auditService service.AuditService,
	now func() time.Time,
	windowDays int,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:               log,
		metrics:           m,
		transactor:        transactor,
		appointmentRepo:   appointmentRepo,
		scheduleRepo:      scheduleRepo,
		doctorRepo:        doctorRepo,
		resolver:          resolver,
		slotLocker:        slotLocker,
		availabilityCache: availabilityCache,
		auditService:      auditService,
		now:               now,
		windowDays:        windowDays,
	}
}

// booking describes one marker to occupy and the appointment that records it
type booking struct {
	patientID      string
	doctorID       uuid.UUID
	date           time.Time
	slot           string
	clinicLocation string
	doctorContact  string
}

// BookAppointment books a slot.
//
// Flow:
//  1. Resolve the doctor and validate the date against the booking window
//  2. Lock the (doctor, weekday, slot) scope
//  3. In one transaction: load the grid for update, insert the appointment,
//     occupy the first free marker, write the grid with a version check, audit
//  4. Invalidate the cached availability of the doctor
func (u *appointmentUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.bookAppointment(ctx, req)
	u.metrics.AppointmentOperation("book", outcome(err))
	if err != nil {
		return nil, err
	}

	u.log.Infof("Appointment booked: id=%s, doctor=%s, date=%s, slot=%s",
		appointment.ID, appointment.DoctorID, appointment.DateString(), appointment.AppointmentTime)
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) bookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*entity.Appointment, error) {
	ref := entity.DoctorRef{Name: req.DoctorName}
	if req.DoctorID != "" {
		id, err := uuid.Parse(req.DoctorID)
		if err != nil {
			return nil, ErrDoctorNotFound
		}
		ref.ID = id
	}

	doctor, err := u.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	date, err := u.parseBookingDate(req.AppointmentDate)
	if err != nil {
		return nil, err
	}

	b := booking{
		patientID:      req.PatientID,
		doctorID:       doctor.ID,
		date:           date,
		slot:           req.AppointmentTime,
		clinicLocation: req.ClinicLocation,
		doctorContact:  req.DoctorContact,
	}
	if b.clinicLocation == "" || b.doctorContact == "" {
		u.fillFromDirectory(ctx, &b)
	}

	unlock, err := u.lockSlots(ctx, service.SlotKey(b.doctorID, entity.WeekdayName(b.date), b.slot))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var appointment *entity.Appointment
	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := u.book(ctx, b)
		if err != nil {
			return err
		}
		if err := u.auditService.LogCreate(ctx, b.patientID, entity.AuditActionAppointmentBook, entity.AuditEntityAppointment, created.ID.String(), created); err != nil {
			return storeError("audit booking", err)
		}
		appointment = created
		return nil
	})
	if err != nil {
		u.logFailure("book", err)
		return nil, err
	}

	u.availabilityCache.Invalidate(ctx, b.doctorID)
	return appointment, nil
}

// book runs inside the caller's transaction. The grid is left untouched when the
// slot is missing or full.
func (u *appointmentUsecase) book(ctx context.Context, b booking) (*entity.Appointment, error) {
	schedule, err := u.scheduleRepo.FindByDoctorIDForUpdate(ctx, b.doctorID)
	if err != nil {
		return nil, storeError("load schedule", err)
	}
	if schedule == nil {
		return nil, ErrDoctorNotFound
	}

	day := entity.WeekdayName(b.date)
	if err := schedule.Availability.OccupyFirstFree(day, b.slot); err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       b.patientID,
		DoctorID:        schedule.DoctorID,
		DoctorName:      schedule.DoctorName,
		AppointmentDate: entity.CalendarDate(b.date),
		AppointmentTime: b.slot,
		Status:          entity.AppointmentStatusScheduled,
		ClinicLocation:  b.clinicLocation,
		DoctorContact:   b.doctorContact,
	}
	if err := u.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, storeError("create appointment", err)
	}

	if err := u.scheduleRepo.UpdateAvailability(ctx, schedule); err != nil {
		return nil, gridWriteError(err)
	}
	return appointment, nil
}

// CancelAppointment cancels the given appointment, or the patient's earliest
// scheduled one, and frees its marker in the same transaction.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.cancelAppointment(ctx, req)
	u.metrics.AppointmentOperation("cancel", outcome(err))
	if err != nil {
		return nil, err
	}

	u.log.Infof("Appointment canceled: id=%s, doctor=%s, date=%s, slot=%s",
		appointment.ID, appointment.DoctorID, appointment.DateString(), appointment.AppointmentTime)
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) cancelAppointment(ctx context.Context, req *dto.CancelAppointmentRequest) (*entity.Appointment, error) {
	appointment, err := u.selectAppointment(ctx, req.PatientID, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	unlock, err := u.lockSlots(ctx, service.SlotKey(appointment.DoctorID, appointment.DayName(), appointment.AppointmentTime))
	if err != nil {
		return nil, err
	}
	defer unlock()

	before := *appointment
	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := u.appointmentRepo.CancelAppointment(ctx, appointment.ID)
		if err != nil {
			return storeError("cancel appointment", err)
		}
		if n == 0 {
			return ErrAppointmentNotScheduled
		}
		if err := appointment.Cancel(); err != nil {
			return err
		}

		if err := u.freeMarker(ctx, appointment); err != nil {
			return err
		}

		if err := u.auditService.LogUpdate(ctx, appointment.PatientID, entity.AuditActionAppointmentCancel, entity.AuditEntityAppointment, appointment.ID.String(), before, appointment); err != nil {
			return storeError("audit cancellation", err)
		}
		return nil
	})
	if err != nil {
		*appointment = before
		u.logFailure("cancel", err)
		return nil, err
	}

	u.availabilityCache.Invalidate(ctx, appointment.DoctorID)
	return appointment, nil
}

// RescheduleAppointment books the new slot and only then drops the old appointment
// and frees its marker. Everything happens in one transaction, so a failed booking
// leaves the old appointment scheduled and its marker occupied.
func (u *appointmentUsecase) RescheduleAppointment(ctx context.Context, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.rescheduleAppointment(ctx, req)
	u.metrics.AppointmentOperation("reschedule", outcome(err))
	if err != nil {
		return nil, err
	}

	u.log.Infof("Appointment rescheduled: id=%s, doctor=%s, date=%s, slot=%s",
		appointment.ID, appointment.DoctorID, appointment.DateString(), appointment.AppointmentTime)
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) rescheduleAppointment(ctx context.Context, req *dto.RescheduleAppointmentRequest) (*entity.Appointment, error) {
	old, err := u.selectAppointment(ctx, req.PatientID, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	date, err := u.parseBookingDate(req.NewAppointmentDate)
	if err != nil {
		return nil, err
	}

	b := booking{
		patientID:      old.PatientID,
		doctorID:       old.DoctorID,
		date:           date,
		slot:           req.NewAppointmentTime,
		clinicLocation: old.ClinicLocation,
		doctorContact:  old.DoctorContact,
	}

	unlock, err := u.lockSlots(ctx,
		service.SlotKey(old.DoctorID, old.DayName(), old.AppointmentTime),
		service.SlotKey(b.doctorID, entity.WeekdayName(b.date), b.slot),
	)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created *entity.Appointment
	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		appointment, err := u.book(ctx, b)
		if err != nil {
			return err
		}

		n, err := u.appointmentRepo.DeleteScheduled(ctx, old.ID)
		if err != nil {
			return storeError("delete appointment", err)
		}
		if n == 0 {
			return ErrAppointmentNotScheduled
		}
		if err := u.auditService.LogDelete(ctx, old.PatientID, entity.AuditActionAppointmentDelete, entity.AuditEntityAppointment, old.ID.String(), old); err != nil {
			return storeError("audit deletion", err)
		}

		if err := u.freeMarker(ctx, old); err != nil {
			return err
		}

		if err := u.auditService.LogUpdate(ctx, old.PatientID, entity.AuditActionAppointmentReschedule, entity.AuditEntityAppointment, old.ID.String(), old, appointment); err != nil {
			return storeError("audit reschedule", err)
		}
		created = appointment
		return nil
	})
	if err != nil {
		u.logFailure("reschedule", err)
		return nil, err
	}

	u.availabilityCache.Invalidate(ctx, old.DoctorID)
	return created, nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, storeError("find appointment", err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListPatientAppointments(ctx context.Context, patientID string) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		u.log.Warnf("Failed to list appointments for patient %s: %+v", patientID, err)
		return nil, storeError("list appointments", err)
	}
	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// selectAppointment picks the appointment a cancel or reschedule acts on: the given
// id when present, otherwise the patient's earliest scheduled appointment.
func (u *appointmentUsecase) selectAppointment(ctx context.Context, patientID, appointmentID string) (*entity.Appointment, error) {
	if appointmentID != "" {
		id, err := uuid.Parse(appointmentID)
		if err != nil {
			return nil, ErrAppointmentNotFound
		}
		appointment, err := u.appointmentRepo.FindByID(ctx, id)
		if err != nil {
			u.log.Warnf("Failed to find appointment %s: %+v", id, err)
			return nil, storeError("find appointment", err)
		}
		if appointment == nil || appointment.PatientID != patientID {
			return nil, ErrAppointmentNotFound
		}
		if !appointment.IsScheduled() {
			return nil, ErrAppointmentNotScheduled
		}
		return appointment, nil
	}

	appointments, err := u.appointmentRepo.FindScheduledByPatientID(ctx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find scheduled appointments for patient %s: %+v", patientID, err)
		return nil, storeError("find scheduled appointments", err)
	}
	if len(appointments) == 0 {
		return nil, ErrNoScheduledAppointment
	}
	slices.SortStableFunc(appointments, entity.CompareAppointments)
	return &appointments[0], nil
}

// freeMarker releases the marker held by a scheduled appointment. Only dates inside
// the booking window hold one: past dates were released by reconciliation and the
// marker now belongs to a later booking. A missing schedule or slot and an already
// free slot are tolerated so cancellation stays idempotent.
func (u *appointmentUsecase) freeMarker(ctx context.Context, appointment *entity.Appointment) error {
	doctorID, day, slot := appointment.DoctorID, appointment.DayName(), appointment.AppointmentTime
	if !newBookingWindow(u.now(), u.windowDays).contains(appointment.AppointmentDate) {
		u.log.Infof("Appointment %s on %s is outside the booking window, leaving %s %s of doctor %s untouched",
			appointment.ID, appointment.DateString(), day, slot, doctorID)
		return nil
	}

	schedule, err := u.scheduleRepo.FindByDoctorIDForUpdate(ctx, doctorID)
	if err != nil {
		return storeError("load schedule", err)
	}
	if schedule == nil {
		u.log.Warnf("No schedule for doctor %s, nothing to free at %s %s", doctorID, day, slot)
		return nil
	}

	freed, err := schedule.Availability.FreeFirstOccupied(day, slot)
	if errors.Is(err, entity.ErrSlotNotFound) {
		u.log.Warnf("Slot %s %s no longer exists for doctor %s, nothing to free", day, slot, doctorID)
		return nil
	}
	if err != nil {
		return err
	}
	if !freed {
		u.log.Warnf("Slot %s %s of doctor %s is already free", day, slot, doctorID)
		return nil
	}

	if err := u.scheduleRepo.UpdateAvailability(ctx, schedule); err != nil {
		return gridWriteError(err)
	}
	return nil
}

// parseBookingDate accepts YYYY-MM-DD dates from today through the last day of the
// availability window, both evaluated in the configured time zone
func (u *appointmentUsecase) parseBookingDate(s string) (time.Time, error) {
	date, err := entity.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	window := newBookingWindow(u.now(), u.windowDays)
	if !window.contains(date) {
		return time.Time{}, fmt.Errorf("%w: %s is not within %s to %s", ErrOutsideBookingWindow,
			date.Format(entity.DateLayout), window.from.Format(entity.DateLayout), window.to.Format(entity.DateLayout))
	}
	return date, nil
}

func (u *appointmentUsecase) lockSlots(ctx context.Context, keys ...string) (func(), error) {
	unlock, err := u.slotLocker.Lock(ctx, keys...)
	if err != nil {
		u.log.Warnf("Failed to lock slots %v: %+v", keys, err)
		if errors.Is(err, service.ErrLockNotAcquired) {
			return nil, ErrConcurrentUpdate
		}
		return nil, storeError("lock slots", err)
	}
	return unlock, nil
}

// fillFromDirectory completes location and contact from the doctor directory
func (u *appointmentUsecase) fillFromDirectory(ctx context.Context, b *booking) {
	doctor, err := u.doctorRepo.FindByID(ctx, b.doctorID)
	if err != nil {
		u.log.Warnf("Failed to load directory entry for doctor %s: %+v", b.doctorID, err)
		return
	}
	if doctor == nil {
		return
	}
	if b.clinicLocation == "" {
		b.clinicLocation = doctor.ClinicAddress
	}
	if b.doctorContact == "" {
		b.doctorContact = doctor.Contact
	}
}

func (u *appointmentUsecase) logFailure(operation string, err error) {
	if errors.Is(err, ErrStore) {
		u.log.Errorf("Failed to %s appointment: %+v", operation, err)
		return
	}
	u.log.Warnf("Rejected %s: %v", operation, err)
}
