package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorSchedule owns the weekly recurring availability grid of one doctor.
// Version is bumped on every grid write and used as a compare-and-swap token.
type DoctorSchedule struct {
	DoctorID     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"doctor_id" bson:"_id"`
	DoctorName   string           `gorm:"type:varchar(255);not null;index" json:"doctor_name" bson:"doctor_name"`
	Availability AvailabilityGrid `gorm:"type:jsonb" json:"availability" bson:"availability"`
	Version      int64            `gorm:"not null;default:0" json:"version" bson:"version"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at" bson:"updated_at"`
}

func (DoctorSchedule) TableName() string {
	return "doctor_schedules"
}

// HasAvailability reports whether any weekday is defined on the grid
func (s *DoctorSchedule) HasAvailability() bool {
	return len(s.Availability) > 0
}
