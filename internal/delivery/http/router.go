package http

import (
	"net/http"

	"medminion/internal/delivery/http/handler"
	"medminion/internal/delivery/http/middleware"
	"medminion/pkg/metrics"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	legacyHandler       *handler.LegacyHandler
	doctorHandler       *handler.DoctorHandler
	appointmentHandler  *handler.AppointmentHandler
	auditLogHandler     *handler.AuditLogHandler
	corsMiddleware      *middleware.CORSMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	loggingMiddleware   *middleware.LoggingMiddleware
	metrics             *metrics.Metrics
}

func NewRouter(
	legacyHandler *handler.LegacyHandler,
	doctorHandler *handler.DoctorHandler,
	appointmentHandler *handler.AppointmentHandler,
	auditLogHandler *handler.AuditLogHandler,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	m *metrics.Metrics,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		legacyHandler:       legacyHandler,
		doctorHandler:       doctorHandler,
		appointmentHandler:  appointmentHandler,
		auditLogHandler:     auditLogHandler,
		corsMiddleware:      corsMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		loggingMiddleware:   loggingMiddleware,
		metrics:             m,
	}
}

func (r *Router) Setup() *mux.Router {
	// Chat-facing routes (bare JSON)
	r.router.HandleFunc("/fetch_departments", r.legacyHandler.FetchDepartments).Methods(http.MethodGet)
	r.router.HandleFunc("/fetch_locations", r.legacyHandler.FetchLocations).Methods(http.MethodGet)
	r.router.HandleFunc("/fetch_doctors", r.legacyHandler.FetchDoctors).Methods(http.MethodGet)
	r.router.HandleFunc("/fetch_doctor_availability", r.legacyHandler.FetchDoctorAvailability).Methods(http.MethodGet)
	r.router.HandleFunc("/check_availability_for_bookings", r.legacyHandler.CheckAvailability).Methods(http.MethodGet)
	r.router.HandleFunc("/book_appointment", r.legacyHandler.BookAppointment).Methods(http.MethodPost)
	r.router.HandleFunc("/reschedule_appointment_flow", r.legacyHandler.RescheduleAppointment).Methods(http.MethodPost)
	r.router.HandleFunc("/cancel_appointment_flow", r.legacyHandler.CancelAppointment).Methods(http.MethodPost)

	// Prometheus exposition
	if r.metrics != nil {
		r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Doctor administration
	api.HandleFunc("/doctors", r.doctorHandler.CreateDoctor).Methods(http.MethodPost)
	api.HandleFunc("/doctors/{id}/availability", r.doctorHandler.GetAvailability).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}/availability", r.doctorHandler.SetAvailability).Methods(http.MethodPut)
	api.HandleFunc("/doctors/{id}/reconcile", r.doctorHandler.Reconcile).Methods(http.MethodPost)
	api.HandleFunc("/reconcile", r.doctorHandler.ReconcileAll).Methods(http.MethodPost)

	// Appointments
	api.HandleFunc("/appointments", r.appointmentHandler.BookAppointment).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}/reschedule", r.appointmentHandler.RescheduleAppointment).Methods(http.MethodPost)
	api.HandleFunc("/patients/{patientId}/appointments", r.appointmentHandler.ListPatientAppointments).Methods(http.MethodGet)

	// Audit trail
	api.HandleFunc("/audit-logs", r.auditLogHandler.ListAuditLogs).Methods(http.MethodGet)
	api.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.rateLimitMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
