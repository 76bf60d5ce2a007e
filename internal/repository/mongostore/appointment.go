package mongostore

import (
	"context"
	"time"

	"medminion/internal/domain/entity"
	domainRepo "medminion/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type appointmentRepo struct {
	coll *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) domainRepo.AppointmentRepository {
	return &appointmentRepo{coll: db.Collection(AppointmentsCollection)}
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *entity.Appointment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	appointment.CreatedAt, appointment.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, appointment)
	return err
}

func (r *appointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var appointment entity.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepo) FindByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error) {
	sort := bson.D{
		{Key: "appointment_date", Value: -1},
		{Key: "appointment_time", Value: -1},
		{Key: "created_at", Value: -1},
	}
	return r.find(ctx, bson.M{"patient_id": patientID}, sort)
}

func (r *appointmentRepo) FindScheduledByPatientID(ctx context.Context, patientID string) ([]entity.Appointment, error) {
	filter := bson.M{"patient_id": patientID, "status": entity.AppointmentStatusScheduled}
	sort := bson.D{
		{Key: "appointment_date", Value: 1},
		{Key: "appointment_time", Value: 1},
		{Key: "created_at", Value: 1},
	}
	return r.find(ctx, filter, sort)
}

func (r *appointmentRepo) FindScheduledByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	filter := bson.M{
		"doctor_id": doctorID,
		"status":    entity.AppointmentStatusScheduled,
		"appointment_date": bson.M{
			"$gte": entity.CalendarDate(from),
			"$lte": entity.CalendarDate(to),
		},
	}
	return r.find(ctx, filter, bson.D{{Key: "appointment_date", Value: 1}})
}

func (r *appointmentRepo) CancelAppointment(ctx context.Context, id uuid.UUID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"_id": id, "status": entity.AppointmentStatusScheduled}
	update := bson.M{"$set": bson.M{"status": entity.AppointmentStatusCanceled, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *appointmentRepo) DeleteScheduled(ctx context.Context, id uuid.UUID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "status": entity.AppointmentStatusScheduled})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *appointmentRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]entity.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	appointments := []entity.Appointment{}
	if err := cur.All(ctx, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}
