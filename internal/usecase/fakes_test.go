package usecase

import (
	"context"
	"errors"
	"io"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"
	"medminion/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errInjected = errors.New("injected store failure")

// memStore is an in-memory store shared by the fake repositories. Transactions are
// serialised and rolled back by restoring a snapshot.
type memStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	doctors      map[uuid.UUID]entity.Doctor
	schedules    map[uuid.UUID]entity.DoctorSchedule
	appointments map[uuid.UUID]entity.Appointment
	audits       []entity.AuditLog
	seq          int64
	created      map[uuid.UUID]int64
	failures     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		doctors:      map[uuid.UUID]entity.Doctor{},
		schedules:    map[uuid.UUID]entity.DoctorSchedule{},
		appointments: map[uuid.UUID]entity.Appointment{},
		created:      map[uuid.UUID]int64{},
		failures:     map[string]error{},
	}
}

func (s *memStore) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *memStore) failure(op string) error {
	return s.failures[op]
}

type memSnapshot struct {
	doctors      map[uuid.UUID]entity.Doctor
	schedules    map[uuid.UUID]entity.DoctorSchedule
	appointments map[uuid.UUID]entity.Appointment
	audits       []entity.AuditLog
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		doctors:      make(map[uuid.UUID]entity.Doctor, len(s.doctors)),
		schedules:    make(map[uuid.UUID]entity.DoctorSchedule, len(s.schedules)),
		appointments: make(map[uuid.UUID]entity.Appointment, len(s.appointments)),
		audits:       slices.Clone(s.audits),
	}
	for k, v := range s.doctors {
		snap.doctors[k] = v
	}
	for k, v := range s.schedules {
		v.Availability = v.Availability.Clone()
		snap.schedules[k] = v
	}
	for k, v := range s.appointments {
		snap.appointments[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = snap.doctors
	s.schedules = snap.schedules
	s.appointments = snap.appointments
	s.audits = snap.audits
}

// test helpers

func (s *memStore) addDoctor(name, specialty, address, contact string, grid entity.AvailabilityGrid) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.doctors[id] = entity.Doctor{ID: id, Name: name, Specialty: specialty, ClinicAddress: address, Contact: contact}
	s.schedules[id] = entity.DoctorSchedule{DoctorID: id, DoctorName: name, Availability: grid}
	return id
}

func (s *memStore) addAppointment(a entity.Appointment) entity.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = entity.AppointmentStatusScheduled
	}
	s.seq++
	s.created[a.ID] = s.seq
	s.appointments[a.ID] = a
	return a
}

func (s *memStore) grid(doctorID uuid.UUID) entity.AvailabilityGrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedules[doctorID].Availability.Clone()
}

func (s *memStore) setGrid(doctorID uuid.UUID, grid entity.AvailabilityGrid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule := s.schedules[doctorID]
	schedule.Availability = grid
	s.schedules[doctorID] = schedule
}

func (s *memStore) appointment(id uuid.UUID) (entity.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	return a, ok
}

func (s *memStore) appointmentsOf(patientID string) []entity.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Appointment
	for _, a := range s.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, len(s.audits))
	for i, a := range s.audits {
		actions[i] = a.Action
	}
	return actions
}

// transactor

type memTxKey struct{}

type memTransactor struct {
	store *memStore
}

func (t *memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// doctors

type memDoctorRepo struct{ store *memStore }

func (r *memDoctorRepo) Create(ctx context.Context, doctor *entity.Doctor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("doctor.create"); err != nil {
		return err
	}
	for _, d := range r.store.doctors {
		if d.Name == doctor.Name && d.Specialty == doctor.Specialty && d.ClinicAddress == doctor.ClinicAddress {
			return repository.ErrDuplicateKey
		}
	}
	r.store.doctors[doctor.ID] = *doctor
	return nil
}

func (r *memDoctorRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.doctors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memDoctorRepo) DistinctSpecialties(ctx context.Context) ([]string, error) {
	return r.distinct(func(d entity.Doctor) (string, bool) { return d.Specialty, true })
}

func (r *memDoctorRepo) DistinctLocations(ctx context.Context, specialty string) ([]string, error) {
	return r.distinct(func(d entity.Doctor) (string, bool) { return d.ClinicAddress, d.Specialty == specialty })
}

func (r *memDoctorRepo) distinct(pick func(entity.Doctor) (string, bool)) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("doctor.list"); err != nil {
		return nil, err
	}
	var out []string
	for _, d := range r.store.doctors {
		if v, ok := pick(d); ok {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (r *memDoctorRepo) FindBySpecialtyAndLocation(ctx context.Context, specialty, location string) ([]entity.Doctor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []entity.Doctor{}
	for _, d := range r.store.doctors {
		if d.Specialty == specialty && d.ClinicAddress == location {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b entity.Doctor) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// schedules

type memScheduleRepo struct{ store *memStore }

func (r *memScheduleRepo) Create(ctx context.Context, schedule *entity.DoctorSchedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *schedule
	copied.Availability = schedule.Availability.Clone()
	r.store.schedules[schedule.DoctorID] = copied
	return nil
}

func (r *memScheduleRepo) FindByDoctorID(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("schedule.find"); err != nil {
		return nil, err
	}
	s, ok := r.store.schedules[doctorID]
	if !ok {
		return nil, nil
	}
	s.Availability = s.Availability.Clone()
	return &s, nil
}

func (r *memScheduleRepo) FindByDoctorIDForUpdate(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error) {
	return r.FindByDoctorID(ctx, doctorID)
}

func (r *memScheduleRepo) FindByNamePattern(ctx context.Context, pattern string) (*entity.DoctorSchedule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	var matches []entity.DoctorSchedule
	for _, s := range r.store.schedules {
		if re.MatchString(s.DoctorName) {
			matches = append(matches, s)
		}
	}
	r.store.mu.Unlock()
	if len(matches) == 0 {
		return nil, nil
	}
	slices.SortFunc(matches, func(a, b entity.DoctorSchedule) int { return strings.Compare(a.DoctorName, b.DoctorName) })
	found := matches[0]
	found.Availability = found.Availability.Clone()
	return &found, nil
}

func (r *memScheduleRepo) FindAllDoctorIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.store.schedules))
	for id := range r.store.schedules {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memScheduleRepo) UpdateAvailability(ctx context.Context, schedule *entity.DoctorSchedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("schedule.update"); err != nil {
		return err
	}
	stored, ok := r.store.schedules[schedule.DoctorID]
	if !ok || stored.Version != schedule.Version {
		return repository.ErrVersionConflict
	}
	stored.Availability = schedule.Availability.Clone()
	stored.Version++
	r.store.schedules[schedule.DoctorID] = stored
	schedule.Version = stored.Version
	return nil
}

// appointments

type memAppointmentRepo struct{ store *memStore }

func (r *memAppointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("appointment.create"); err != nil {
		return err
	}
	r.store.seq++
	r.store.created[appointment.ID] = r.store.seq
	r.store.appointments[appointment.ID] = *appointment
	return nil
}

func (r *memAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memAppointmentRepo) FindByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *memAppointmentRepo) FindScheduledByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool {
		return a.PatientID == patientID && a.IsScheduled()
	}), nil
}

func (r *memAppointmentRepo) FindScheduledByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	from, to = entity.CalendarDate(from), entity.CalendarDate(to)
	return r.filter(func(a entity.Appointment) bool {
		return a.DoctorID == doctorID && a.IsScheduled() &&
			!a.AppointmentDate.Before(from) && !a.AppointmentDate.After(to)
	}), nil
}

func (r *memAppointmentRepo) filter(keep func(entity.Appointment) bool) []entity.Appointment {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []entity.Appointment{}
	for _, a := range r.store.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b entity.Appointment) int {
		if c := a.AppointmentDate.Compare(b.AppointmentDate); c != 0 {
			return c
		}
		if c := strings.Compare(a.AppointmentTime, b.AppointmentTime); c != 0 {
			return c
		}
		return int(r.store.created[a.ID] - r.store.created[b.ID])
	})
	return out
}

func (r *memAppointmentRepo) CancelAppointment(ctx context.Context, id uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.appointments[id]
	if !ok || !a.IsScheduled() {
		return 0, nil
	}
	a.Status = entity.AppointmentStatusCanceled
	r.store.appointments[id] = a
	return 1, nil
}

func (r *memAppointmentRepo) DeleteScheduled(ctx context.Context, id uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.failure("appointment.delete"); err != nil {
		return 0, err
	}
	a, ok := r.store.appointments[id]
	if !ok || !a.IsScheduled() {
		return 0, nil
	}
	delete(r.store.appointments, id)
	return 1, nil
}

// audit logs

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	log.CreatedAt = time.Now()
	r.store.audits = append(r.store.audits, *log)
	return nil
}

func (r *memAuditRepo) FindAll(ctx context.Context, filter entity.AuditLogFilter) ([]entity.AuditLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []entity.AuditLog
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		a := r.store.audits[i]
		if (filter.EntityType == "" || a.EntityType == filter.EntityType) &&
			(filter.EntityID == "" || a.EntityID == filter.EntityID) &&
			(filter.Action == "" || a.Action == filter.Action) {
			out = append(out, a)
		}
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memAuditRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.AuditLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.audits {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

// fixture wires the usecases against one memStore

// 2024-01-01 is a Monday
var fixedNow = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store        *memStore
	resolver     DoctorResolver
	appointments AppointmentUsecase
	availability AvailabilityUsecase
	reconcile    ReconcileUsecase
	directory    DoctorDirectoryUsecase
	audit        AuditLogUsecase
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := newTestLogger()
	store := newMemStore()
	transactor := &memTransactor{store: store}
	doctorRepo := &memDoctorRepo{store: store}
	scheduleRepo := &memScheduleRepo{store: store}
	appointmentRepo := &memAppointmentRepo{store: store}
	auditRepo := &memAuditRepo{store: store}

	locker := service.NewLocalSlotLocker(log)
	t.Cleanup(locker.Stop)
	availabilityCache := service.NewNoopAvailabilityCache()
	auditService := service.NewAuditService(log, auditRepo)
	now := func() time.Time { return fixedNow }

	resolver := NewDoctorResolver(log, scheduleRepo, time.Minute)
	reconcile := NewReconcileUsecase(log, nil, transactor, scheduleRepo, appointmentRepo, locker, availabilityCache, auditService, now, entity.DefaultAvailabilityWindowDays)

	return &fixture{
		store:    store,
		resolver: resolver,
		appointments: NewAppointmentUsecase(log, nil, transactor, appointmentRepo, scheduleRepo, doctorRepo,
			resolver, locker, availabilityCache, auditService, now, entity.DefaultAvailabilityWindowDays),
		availability: NewAvailabilityUsecase(log, scheduleRepo, resolver, availabilityCache, now, entity.DefaultAvailabilityWindowDays),
		reconcile:    reconcile,
		directory: NewDoctorDirectoryUsecase(log, nil, transactor, doctorRepo, scheduleRepo, appointmentRepo,
			locker, auditService, availabilityCache, resolver, time.Minute, now, entity.DefaultAvailabilityWindowDays),
		audit: NewAuditLogUsecase(log, auditRepo),
	}
}
