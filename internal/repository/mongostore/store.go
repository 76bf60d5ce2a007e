package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DoctorsCollection      = "doctors"
	SchedulesCollection    = "doctor_availability"
	AppointmentsCollection = "appointments"
	AuditLogsCollection    = "audit_logs"

	opTimeout = 5 * time.Second
)

// withTimeout bounds a single driver call; the session carried by ctx is kept
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func isNoDocuments(err error) bool {
	return err == mongo.ErrNoDocuments
}
