package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing the lookup and listing queries
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		DoctorsCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}, {Key: "specialty", Value: 1}, {Key: "clinic_address", Value: 1}},
				Options: options.Index().SetName("doctor_identity_uniq").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "specialty", Value: 1}, {Key: "clinic_address", Value: 1}},
				Options: options.Index().SetName("specialty_clinic_idx"),
			},
		},
		SchedulesCollection: {
			{
				Keys:    bson.D{{Key: "doctor_name", Value: 1}},
				Options: options.Index().SetName("doctor_name_idx"),
			},
		},
		AppointmentsCollection: {
			{
				Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "status", Value: 1}, {Key: "appointment_date", Value: 1}},
				Options: options.Index().SetName("patient_status_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "status", Value: 1}, {Key: "appointment_date", Value: 1}},
				Options: options.Index().SetName("doctor_status_date_idx"),
			},
		},
		AuditLogsCollection: {
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("created_at_idx"),
			},
			{
				Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("entity_history_idx"),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}
