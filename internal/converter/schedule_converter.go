package converter

import (
	"medminion/internal/delivery/dto"
	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

// ScheduleToResponse converts a DoctorSchedule entity to DoctorScheduleResponse DTO
func ScheduleToResponse(schedule *entity.DoctorSchedule) *dto.DoctorScheduleResponse {
	if schedule == nil {
		return nil
	}

	return &dto.DoctorScheduleResponse{
		DoctorID:     schedule.DoctorID,
		DoctorName:   schedule.DoctorName,
		Availability: schedule.Availability,
		Version:      schedule.Version,
		UpdatedAt:    schedule.UpdatedAt,
	}
}

// DaysToResponses renders the projected window; an empty window is an empty list, never null
func DaysToResponses(days []entity.DayAvailability) []dto.DayAvailabilityResponse {
	responses := make([]dto.DayAvailabilityResponse, len(days))
	for i, day := range days {
		responses[i] = dto.DayAvailabilityResponse{
			Date:           day.Date.Format(entity.DateLayout),
			DayName:        day.DayName,
			AvailableTimes: day.AvailableTimes,
		}
	}
	return responses
}

func SlotRefsToResponses(refs []entity.SlotRef) []dto.SlotRefResponse {
	responses := make([]dto.SlotRefResponse, len(refs))
	for i, ref := range refs {
		responses[i] = dto.SlotRefResponse{Day: ref.Day, Slot: ref.Slot}
	}
	return responses
}

func ReconcileResultToResponse(doctorID uuid.UUID, result entity.ReconcileResult, version int64) *dto.ReconcileResponse {
	return &dto.ReconcileResponse{
		DoctorID:   doctorID,
		Occupied:   result.Occupied,
		Freed:      result.Freed,
		Overbooked: SlotRefsToResponses(result.Overbooked),
		Orphaned:   SlotRefsToResponses(result.Orphaned),
		Version:    version,
	}
}
