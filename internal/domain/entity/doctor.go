package entity

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a doctor directory entry
type Doctor struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	Name          string    `gorm:"type:varchar(255);not null;index" json:"name" bson:"name"`
	Specialty     string    `gorm:"type:varchar(100);not null;index" json:"specialty" bson:"specialty"`
	ClinicAddress string    `gorm:"type:text;not null" json:"clinic_address" bson:"clinic_address"`
	Contact       string    `gorm:"type:varchar(50)" json:"contact" bson:"contact"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at" bson:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// DoctorRef identifies a doctor either by canonical id or by a name to be matched
type DoctorRef struct {
	ID   uuid.UUID
	Name string
}
