package dto

import (
	"time"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
)

// ListAuditLogsRequest is read from the query string
type ListAuditLogsRequest struct {
	EntityType string `json:"entity_type" validate:"omitempty,oneof=appointment doctor doctor_schedule"`
	EntityID   string `json:"entity_id" validate:"omitempty,max=100"`
	Action     string `json:"action" validate:"omitempty,max=100"`
	Limit      int    `json:"limit" validate:"omitempty,min=1"`
}

type AuditLogResponse struct {
	ID         uuid.UUID   `json:"id"`
	ActorID    string      `json:"actor_id,omitempty"`
	Action     string      `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	Metadata   entity.JSON `json:"metadata"`
	CreatedAt  time.Time   `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Limit int                `json:"-"`
	Total int                `json:"total"`
}
