package converter

import (
	"medminion/internal/delivery/dto"
	"medminion/internal/domain/entity"
)

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:            doctor.ID,
		Name:          doctor.Name,
		Specialty:     doctor.Specialty,
		ClinicAddress: doctor.ClinicAddress,
		Contact:       doctor.Contact,
		CreatedAt:     doctor.CreatedAt,
		UpdatedAt:     doctor.UpdatedAt,
	}
}

// DoctorsToSummaries keeps only the name and contact of each doctor
func DoctorsToSummaries(doctors []entity.Doctor) []dto.DoctorSummaryResponse {
	responses := make([]dto.DoctorSummaryResponse, len(doctors))
	for i, doctor := range doctors {
		responses[i] = dto.DoctorSummaryResponse{
			Name:    doctor.Name,
			Contact: doctor.Contact,
		}
	}
	return responses
}
