package mongostore

import (
	"context"
	"time"

	"medminion/internal/domain/entity"
	domainRepo "medminion/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type doctorScheduleRepo struct {
	coll *mongo.Collection
}

func NewDoctorScheduleRepository(db *mongo.Database) domainRepo.DoctorScheduleRepository {
	return &doctorScheduleRepo{coll: db.Collection(SchedulesCollection)}
}

func (r *doctorScheduleRepo) Create(ctx context.Context, schedule *entity.DoctorSchedule) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	schedule.CreatedAt, schedule.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, schedule)
	return err
}

func (r *doctorScheduleRepo) FindByDoctorID(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error) {
	return r.findOne(ctx, bson.M{"_id": doctorID}, nil)
}

// FindByDoctorIDForUpdate is a plain read on this backend; the version check in
// UpdateAvailability rejects writes based on a stale read.
func (r *doctorScheduleRepo) FindByDoctorIDForUpdate(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorSchedule, error) {
	return r.findOne(ctx, bson.M{"_id": doctorID}, nil)
}

func (r *doctorScheduleRepo) FindByNamePattern(ctx context.Context, pattern string) (*entity.DoctorSchedule, error) {
	filter := bson.M{"doctor_name": primitive.Regex{Pattern: pattern, Options: "i"}}
	opts := options.FindOne().SetSort(bson.D{{Key: "doctor_name", Value: 1}})
	return r.findOne(ctx, filter, opts)
}

func (r *doctorScheduleRepo) FindAllDoctorIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID uuid.UUID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *doctorScheduleRepo) UpdateAvailability(ctx context.Context, schedule *entity.DoctorSchedule) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	filter := bson.M{"_id": schedule.DoctorID, "version": schedule.Version}
	update := bson.M{
		"$set": bson.M{"availability": schedule.Availability, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainRepo.ErrVersionConflict
	}
	schedule.Version++
	schedule.UpdatedAt = now
	return nil
}

func (r *doctorScheduleRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*entity.DoctorSchedule, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var schedule entity.DoctorSchedule
	findOpts := []*options.FindOneOptions{}
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	if err := r.coll.FindOne(ctx, filter, findOpts...).Decode(&schedule); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}
