package handler

import (
	"encoding/json"
	"net/http"

	"medminion/internal/delivery/dto"
	"medminion/internal/usecase"
	"medminion/pkg/response"
	"medminion/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type DoctorHandler struct {
	directoryUsecase    usecase.DoctorDirectoryUsecase
	availabilityUsecase usecase.AvailabilityUsecase
	reconcileUsecase    usecase.ReconcileUsecase
	validator           *validator.CustomValidator
}

func NewDoctorHandler(
	directoryUsecase usecase.DoctorDirectoryUsecase,
	availabilityUsecase usecase.AvailabilityUsecase,
	reconcileUsecase usecase.ReconcileUsecase,
	validator *validator.CustomValidator,
) *DoctorHandler {
	return &DoctorHandler{
		directoryUsecase:    directoryUsecase,
		availabilityUsecase: availabilityUsecase,
		reconcileUsecase:    reconcileUsecase,
		validator:           validator,
	}
}

func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.directoryUsecase.CreateDoctor(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create doctor")
		return
	}

	response.Success(w, http.StatusCreated, "Doctor created successfully", doctor)
}

func (h *DoctorHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := doctorIDFromPath(w, r)
	if !ok {
		return
	}

	schedule, err := h.availabilityUsecase.GetDoctorSchedule(r.Context(), doctorID)
	if err != nil {
		writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", schedule)
}

func (h *DoctorHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := doctorIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	schedule, err := h.directoryUsecase.SetAvailability(r.Context(), doctorID, &req)
	if err != nil {
		writeError(w, err, "Failed to update availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", schedule)
}

func (h *DoctorHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := doctorIDFromPath(w, r)
	if !ok {
		return
	}

	result, err := h.reconcileUsecase.ReconcileDoctor(r.Context(), doctorID)
	if err != nil {
		writeError(w, err, "Failed to reconcile availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability reconciled successfully", result)
}

// ReconcileAll reports per-doctor failures in the summary rather than failing the request
func (h *DoctorHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reconcileUsecase.ReconcileAll(r.Context())
	if summary == nil {
		writeError(w, err, "Failed to reconcile availability")
		return
	}
	if err != nil {
		response.Success(w, http.StatusOK, "Availability reconciled with failures", summary)
		return
	}

	response.Success(w, http.StatusOK, "Availability reconciled successfully", summary)
}

func doctorIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return uuid.Nil, false
	}
	return doctorID, true
}
