package repository

import (
	"context"
	"errors"
	"fmt"
	promotionserrors "keja/internal/promotions/errors"
	"keja/pkg/config"
	mongotx "keja/pkg/db/mongo"
	"keja/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Promotion_requests"
)

type mongoPromotionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type PromotionRepository interface {
	Create(ctx context.Context, req *model.PromotionRequest) error
	FindByID(ctx context.Context, id string) (*model.PromotionRequest, error)
	FindAll(ctx context.Context, filter model.PromotionFilter, limit int, offset int64) ([]*model.PromotionRequest, error)
	Count(ctx context.Context, filter model.PromotionFilter) (int64, error)

	// Approve and Reject only move a pending request; anything else yields ErrNotPending.
	Approve(ctx context.Context, id, deciderID string, decidedAt time.Time, expiresAt *time.Time) error
	Reject(ctx context.Context, id, deciderID string, decidedAt time.Time) error
	// MarkApplied records that the listing stamp for an approved request is written.
	MarkApplied(ctx context.Context, id string, expiresAt *time.Time) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoPromotionRepository(cfg *config.Config) PromotionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPromotionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.MongoTransactionsEnabled),
	}
}

func (r *mongoPromotionRepository) Create(ctx context.Context, req *model.PromotionRequest) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create promotion request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPromotionRepository) FindByID(ctx context.Context, id string) (*model.PromotionRequest, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", promotionserrors.ErrInvalidID, id)
	}

	var req model.PromotionRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", promotionserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find promotion request: %w", err)
	}
	return &req, nil
}

func (r *mongoPromotionRepository) FindAll(ctx context.Context, filter model.PromotionFilter, limit int, offset int64) ([]*model.PromotionRequest, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildPromotionFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query promotion requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []*model.PromotionRequest{}
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode promotion requests: %w", err)
	}
	return requests, nil
}

func (r *mongoPromotionRepository) Count(ctx context.Context, filter model.PromotionFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildPromotionFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count promotion requests: %w", err)
	}
	return count, nil
}

func buildPromotionFilter(filter model.PromotionFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ListingID != "" {
		query["listing_id"] = filter.ListingID
	}
	return query
}

func (r *mongoPromotionRepository) Approve(ctx context.Context, id, deciderID string, decidedAt time.Time, expiresAt *time.Time) error {
	return r.decide(ctx, id, bson.M{
		"status":               model.PromotionStatusApproved,
		"decided_at":           decidedAt,
		"decider_id":           deciderID,
		"promotion_expires_at": expiresAt,
		"applied":              false,
	})
}

func (r *mongoPromotionRepository) Reject(ctx context.Context, id, deciderID string, decidedAt time.Time) error {
	return r.decide(ctx, id, bson.M{
		"status":     model.PromotionStatusRejected,
		"decided_at": decidedAt,
		"decider_id": deciderID,
	})
}

func (r *mongoPromotionRepository) decide(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", promotionserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.PromotionStatusPending}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to decide promotion request: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", promotionserrors.ErrNotPending, id)
	}
	return nil
}

func (r *mongoPromotionRepository) MarkApplied(ctx context.Context, id string, expiresAt *time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", promotionserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.PromotionStatusApproved}
	update := bson.M{"$set": bson.M{
		"applied":              true,
		"promotion_expires_at": expiresAt,
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark promotion request applied: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", promotionserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoPromotionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
