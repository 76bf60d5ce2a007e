package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only trail of appointment and schedule transitions.
// ActorID is the patient for appointment actions and "system" otherwise.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	ActorID    string    `gorm:"type:varchar(100);index" json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Action     string    `gorm:"type:varchar(100);not null;index" json:"action" bson:"action"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type" bson:"entity_type"`
	EntityID   string    `gorm:"type:varchar(100);not null" json:"entity_id" bson:"entity_id"`
	Metadata   JSON      `gorm:"type:jsonb" json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at" bson:"created_at"`
}

// AuditLogFilter narrows an audit listing; empty fields match everything
type AuditLogFilter struct {
	EntityType string
	EntityID   string
	Action     string
	Limit      int
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON is a jsonb column holding free-form audit metadata
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan audit metadata: %w", err)
	}

	result := JSON{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("scan audit metadata: %w", err)
	}
	*j = result
	return nil
}

// Audit entity types
const (
	AuditEntityAppointment    = "appointment"
	AuditEntityDoctor         = "doctor"
	AuditEntityDoctorSchedule = "doctor_schedule"
)

// Audit actions
const (
	AuditActionAppointmentBook       = "appointment.book"
	AuditActionAppointmentCancel     = "appointment.cancel"
	AuditActionAppointmentReschedule = "appointment.reschedule"
	AuditActionAppointmentDelete     = "appointment.delete"
	AuditActionScheduleUpdate        = "schedule.update"
	AuditActionScheduleReconcile     = "schedule.reconcile"
	AuditActionDoctorCreate          = "doctor.create"
)
