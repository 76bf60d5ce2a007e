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

type auditLogRepo struct {
	coll *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) domainRepo.AuditLogRepository {
	return &auditLogRepo{coll: db.Collection(AuditLogsCollection)}
}

func (r *auditLogRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	log.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, log)
	return err
}

func (r *auditLogRepo) FindAll(ctx context.Context, filter entity.AuditLogFilter) ([]entity.AuditLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := bson.M{}
	if filter.EntityType != "" {
		query["entity_type"] = filter.EntityType
	}
	if filter.EntityID != "" {
		query["entity_id"] = filter.EntityID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(filter.Limit))
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	logs := []entity.AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.AuditLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var log entity.AuditLog
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&log); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
