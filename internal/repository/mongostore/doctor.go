package mongostore

import (
	"context"
	"errors"
	"slices"
	"time"

	"medminion/internal/domain/entity"
	domainRepo "medminion/internal/domain/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type doctorRepo struct {
	coll *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) domainRepo.DoctorRepository {
	return &doctorRepo{coll: db.Collection(DoctorsCollection)}
}

func (r *doctorRepo) Create(ctx context.Context, doctor *entity.Doctor) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	doctor.CreatedAt, doctor.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, doctor); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Join(domainRepo.ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

func (r *doctorRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doctor entity.Doctor
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doctor); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepo) DistinctSpecialties(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "specialty", bson.M{})
}

func (r *doctorRepo) DistinctLocations(ctx context.Context, specialty string) ([]string, error) {
	return r.distinct(ctx, "clinic_address", bson.M{"specialty": specialty})
}

func (r *doctorRepo) FindBySpecialtyAndLocation(ctx context.Context, specialty, location string) ([]entity.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"specialty": specialty, "clinic_address": location}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	doctors := []entity.Doctor{}
	if err := cur.All(ctx, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepo) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	raw, err := r.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	slices.Sort(values)
	return values, nil
}
