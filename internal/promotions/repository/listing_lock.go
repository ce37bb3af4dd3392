package repository

import (
	"context"
	"fmt"
	promotionserrors "keja/internal/promotions/errors"
	"keja/pkg/config"
	"keja/pkg/model"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Listing_locks"

// ListingLockRepository provides per-listing advisory locks.
type ListingLockRepository interface {
	// Acquire returns ErrLockHeld while another unexpired lock exists.
	Acquire(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (*model.ListingLock, error)
	Release(ctx context.Context, lock *model.ListingLock) error
}

type mongoListingLockRepository struct {
	collection *mongo.Collection
}

func NewMongoListingLockRepository(cfg *config.Config) ListingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoListingLockRepository) Acquire(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (*model.ListingLock, error) {
	lock := &model.ListingLock{
		ID:        model.ListingLockID(listingID),
		Owner:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return lock, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to acquire listing lock: %w", err)
	}

	// The TTL monitor runs about once a minute; take over a lock whose holder
	// is past its expiry instead of waiting for the reaper.
	filter := bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{
		"owner":      lock.Owner,
		"expires_at": lock.ExpiresAt,
		"created_at": lock.CreatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to take over expired listing lock: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", promotionserrors.ErrLockHeld, listingID)
	}
	return lock, nil
}

func (r *mongoListingLockRepository) Release(ctx context.Context, lock *model.ListingLock) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "owner": lock.Owner})
	if err != nil {
		return fmt.Errorf("failed to release listing lock: %w", err)
	}
	return nil
}
