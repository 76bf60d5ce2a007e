package handler

import (
	"context"

	"medminion/internal/delivery/dto"

	"github.com/google/uuid"
)

type fakeDirectoryUsecase struct {
	departments     []string
	locations       []string
	doctors         []dto.DoctorSummaryResponse
	err             error
	createDoctor    func(req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	setAvailability func(doctorID uuid.UUID, req *dto.SetAvailabilityRequest) (*dto.DoctorScheduleResponse, error)
}

func (f *fakeDirectoryUsecase) ListDepartments(ctx context.Context) ([]string, error) {
	return f.departments, f.err
}

func (f *fakeDirectoryUsecase) ListLocations(ctx context.Context, department string) ([]string, error) {
	return f.locations, f.err
}

func (f *fakeDirectoryUsecase) ListDoctors(ctx context.Context, department, location string) ([]dto.DoctorSummaryResponse, error) {
	return f.doctors, f.err
}

func (f *fakeDirectoryUsecase) CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	return f.createDoctor(req)
}

func (f *fakeDirectoryUsecase) SetAvailability(ctx context.Context, doctorID uuid.UUID, req *dto.SetAvailabilityRequest) (*dto.DoctorScheduleResponse, error) {
	return f.setAvailability(doctorID, req)
}

type fakeAvailabilityUsecase struct {
	availability func(doctorName string) ([]dto.DayAvailabilityResponse, error)
	check        func(req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error)
	schedule     func(doctorID uuid.UUID) (*dto.DoctorScheduleResponse, error)
}

func (f *fakeAvailabilityUsecase) GetDoctorAvailability(ctx context.Context, doctorName string) ([]dto.DayAvailabilityResponse, error) {
	return f.availability(doctorName)
}

func (f *fakeAvailabilityUsecase) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error) {
	return f.check(req)
}

func (f *fakeAvailabilityUsecase) GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorScheduleResponse, error) {
	return f.schedule(doctorID)
}

type fakeAppointmentUsecase struct {
	book       func(req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	cancel     func(req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	reschedule func(req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	get        func(id uuid.UUID) (*dto.AppointmentResponse, error)
	list       func(patientID string) (*dto.AppointmentListResponse, error)
}

func (f *fakeAppointmentUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	return f.book(req)
}

func (f *fakeAppointmentUsecase) CancelAppointment(ctx context.Context, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	return f.cancel(req)
}

func (f *fakeAppointmentUsecase) RescheduleAppointment(ctx context.Context, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	return f.reschedule(req)
}

func (f *fakeAppointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return f.get(id)
}

func (f *fakeAppointmentUsecase) ListPatientAppointments(ctx context.Context, patientID string) (*dto.AppointmentListResponse, error) {
	return f.list(patientID)
}

type fakeReconcileUsecase struct {
	doctor func(doctorID uuid.UUID) (*dto.ReconcileResponse, error)
	all    func() (*dto.ReconcileSummaryResponse, error)
}

func (f *fakeReconcileUsecase) ReconcileDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.ReconcileResponse, error) {
	return f.doctor(doctorID)
}

func (f *fakeReconcileUsecase) ReconcileAll(ctx context.Context) (*dto.ReconcileSummaryResponse, error) {
	return f.all()
}

type fakeAuditLogUsecase struct {
	list func(req *dto.ListAuditLogsRequest) (*dto.AuditLogListResponse, error)
	get  func(id uuid.UUID) (*dto.AuditLogResponse, error)
}

func (f *fakeAuditLogUsecase) ListAuditLogs(ctx context.Context, req *dto.ListAuditLogsRequest) (*dto.AuditLogListResponse, error) {
	return f.list(req)
}

func (f *fakeAuditLogUsecase) GetAuditLog(ctx context.Context, id uuid.UUID) (*dto.AuditLogResponse, error) {
	return f.get(id)
}
