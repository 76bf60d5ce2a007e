package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medminion/internal/delivery/dto"
	"medminion/internal/usecase"
	"medminion/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLegacyHandler(directory *fakeDirectoryUsecase, availability *fakeAvailabilityUsecase, appointments *fakeAppointmentUsecase) *LegacyHandler {
	if directory == nil {
		directory = &fakeDirectoryUsecase{}
	}
	if availability == nil {
		availability = &fakeAvailabilityUsecase{}
	}
	if appointments == nil {
		appointments = &fakeAppointmentUsecase{}
	}
	return NewLegacyHandler(directory, availability, appointments, validator.NewValidator())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const validBooking = `{
	"patient_id": "p1",
	"doctor_name": "Smith",
	"appointment_date": "2024-01-01",
	"appointment_time": "10:00-10:30",
	"clinic_location": "Clinic A",
	"doctor_contact": "555-0100"
}`

func TestLegacyBookAppointment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{"booked", validBooking, nil, http.StatusOK, "message", "Your appointment is successfully booked!"},
		{"slot full", validBooking, usecase.ErrSlotFull, http.StatusBadRequest, "error", "The selected time slot is already full."},
		{"slot missing", validBooking, usecase.ErrSlotNotFound, http.StatusBadRequest, "error", "The selected time slot is not available."},
		{"doctor missing", validBooking, usecase.ErrDoctorNotFound, http.StatusNotFound, "error", "Doctor schedule not found or the day is not available."},
		{"bad date", validBooking, usecase.ErrInvalidDate, http.StatusBadRequest, "error", "Invalid appointment date. Use YYYY-MM-DD within the booking window."},
		{"date outside the window", validBooking, fmt.Errorf("%w: 2023-12-31 is not within 2024-01-01 to 2024-01-07", usecase.ErrOutsideBookingWindow), http.StatusBadRequest, "error", "The appointment date is outside the booking window."},
		{"conflict", validBooking, usecase.ErrConcurrentUpdate, http.StatusConflict, "error", usecase.ErrConcurrentUpdate.Error()},
		{"store failure is not leaked", validBooking, errors.Join(usecase.ErrStore, errors.New("connection refused")), http.StatusInternalServerError, "error", "Failed to book appointment."},
		{"malformed body", `{"patient_id":`, nil, http.StatusBadRequest, "error", "Invalid request body"},
		{"missing fields", `{"doctor_name":"Smith"}`, nil, http.StatusBadRequest, "error", "appointment_date is required; appointment_time is required; patient_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newLegacyHandler(nil, nil, &fakeAppointmentUsecase{
				book: func(req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
					assert.Equal(t, "p1", req.PatientID)
					return &dto.AppointmentResponse{}, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/book_appointment", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.BookAppointment(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, map[string]interface{}{tt.wantKey: tt.wantValue}, decodeBody(t, rec))
		})
	}
}

func TestLegacyCancelAndReschedule(t *testing.T) {
	appointments := &fakeAppointmentUsecase{
		cancel: func(req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
			if req.PatientID == "nobody" {
				return nil, usecase.ErrNoScheduledAppointment
			}
			return &dto.AppointmentResponse{}, nil
		},
		reschedule: func(req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
			if req.NewAppointmentTime == "broken" {
				return nil, errors.Join(usecase.ErrStore, errors.New("timeout"))
			}
			return &dto.AppointmentResponse{}, nil
		},
	}
	h := newLegacyHandler(nil, nil, appointments)

	rec := httptest.NewRecorder()
	h.CancelAppointment(rec, httptest.NewRequest(http.MethodPost, "/cancel_appointment_flow", strings.NewReader(`{"patient_id":"p1"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Appointment canceled successfully.", decodeBody(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.CancelAppointment(rec, httptest.NewRequest(http.MethodPost, "/cancel_appointment_flow", strings.NewReader(`{"patient_id":"nobody"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No scheduled appointments found.", decodeBody(t, rec)["error"])

	body := `{"patient_id":"p1","new_appointment_date":"2024-01-02","new_appointment_time":"%s"}`
	rec = httptest.NewRecorder()
	h.RescheduleAppointment(rec, httptest.NewRequest(http.MethodPost, "/reschedule_appointment_flow", strings.NewReader(fmt.Sprintf(body, "10:00-10:30"))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Appointment rescheduled.", decodeBody(t, rec)["message"])

	rec = httptest.NewRecorder()
	h.RescheduleAppointment(rec, httptest.NewRequest(http.MethodPost, "/reschedule_appointment_flow", strings.NewReader(fmt.Sprintf(body, "broken"))))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to reschedule appointment.", decodeBody(t, rec)["error"])
}

func TestLegacyDirectoryListings(t *testing.T) {
	h := newLegacyHandler(&fakeDirectoryUsecase{
		doctors: []dto.DoctorSummaryResponse{{Name: "Dr. John Smith", Contact: "555-0100"}},
	}, nil, nil)

	rec := httptest.NewRecorder()
	h.FetchDepartments(rec, httptest.NewRequest(http.MethodGet, "/fetch_departments", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.FetchDoctors(rec, httptest.NewRequest(http.MethodGet, "/fetch_doctors?department=Cardiology&location=Clinic+A", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"Dr. John Smith","contact":"555-0100"}]`, rec.Body.String())

	failing := newLegacyHandler(&fakeDirectoryUsecase{err: usecase.ErrStore}, nil, nil)
	rec = httptest.NewRecorder()
	failing.FetchLocations(rec, httptest.NewRequest(http.MethodGet, "/fetch_locations?department=Cardiology", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLegacyFetchDoctorAvailability(t *testing.T) {
	h := newLegacyHandler(nil, &fakeAvailabilityUsecase{
		availability: func(doctorName string) ([]dto.DayAvailabilityResponse, error) {
			switch doctorName {
			case "Smith":
				return []dto.DayAvailabilityResponse{{Date: "2024-01-03", DayName: "Wednesday", AvailableTimes: []string{"10:00-10:30"}}}, nil
			case "Empty":
				return nil, usecase.ErrNoAvailabilityData
			default:
				return nil, usecase.ErrDoctorNotFound
			}
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.FetchDoctorAvailability(rec, httptest.NewRequest(http.MethodGet, "/fetch_doctor_availability?doctor_name=Smith", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2024-01-03","day_name":"Wednesday","available_times":["10:00-10:30"]}]`, rec.Body.String())

	for _, name := range []string{"Empty", "Nobody"} {
		rec = httptest.NewRecorder()
		h.FetchDoctorAvailability(rec, httptest.NewRequest(http.MethodGet, "/fetch_doctor_availability?doctor_name="+name, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Doctor schedule not found or no availability field", decodeBody(t, rec)["error"])
	}
}

func TestLegacyCheckAvailability(t *testing.T) {
	h := newLegacyHandler(nil, &fakeAvailabilityUsecase{
		check: func(req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error) {
			if req.AppointmentDate == "tomorrow" {
				return nil, usecase.ErrInvalidDate
			}
			return &dto.CheckAvailabilityResponse{Available: req.DoctorName == "Smith"}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.CheckAvailability(rec, httptest.NewRequest(http.MethodGet,
		"/check_availability_for_bookings?doctor_name=Smith&appointment_date=2024-01-01&appointment_time=10:00-10:30", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.CheckAvailability(rec, httptest.NewRequest(http.MethodGet,
		"/check_availability_for_bookings?doctor_name=House&appointment_date=2024-01-01&appointment_time=10:00-10:30", nil))
	assert.JSONEq(t, `{"available":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.CheckAvailability(rec, httptest.NewRequest(http.MethodGet,
		"/check_availability_for_bookings?doctor_name=Smith&appointment_date=tomorrow&appointment_time=10:00-10:30", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CheckAvailability(rec, httptest.NewRequest(http.MethodGet, "/check_availability_for_bookings?doctor_name=Smith", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "appointment_date is required; appointment_time is required", decodeBody(t, rec)["error"])
}
