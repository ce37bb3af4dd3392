package repository

import (
	"context"
	"errors"
	"fmt"
	listingsrepository "keja/internal/listings/repository"
	promotionserrors "keja/internal/promotions/errors"
	"keja/pkg/config"
	mongotx "keja/pkg/db/mongo"
	"keja/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ListingStampRepository is the ledger's only write path into listings: the
// promotion fields and the record of which approvals they reflect.
type ListingStampRepository interface {
	FindListing(ctx context.Context, listingID string) (*model.Listing, error)
	// StampPromotion applies an approval to the listing once. It returns false
	// when requestID was already applied.
	StampPromotion(ctx context.Context, listingID, requestID string, expiresAt *time.Time) (bool, error)
}

type mongoListingStampRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoListingStampRepository(cfg *config.Config) ListingStampRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingStampRepository{
		cfg:        cfg,
		collection: db.Collection(listingsrepository.CollectionName),
	}
}

func (r *mongoListingStampRepository) FindListing(ctx context.Context, listingID string) (*model.Listing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", promotionserrors.ErrInvalidID, listingID)
	}

	var listing model.Listing
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", promotionserrors.ErrListingNotFound, listingID)
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}

func (r *mongoListingStampRepository) StampPromotion(ctx context.Context, listingID, requestID string, expiresAt *time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", promotionserrors.ErrInvalidID, listingID)
	}

	filter := bson.M{
		"_id":                   objectID,
		"applied_promotion_ids": bson.M{"$ne": requestID},
	}
	update := bson.M{
		"$set": bson.M{
			"is_promoted":          true,
			"promotion_expires_at": expiresAt,
		},
		"$addToSet": bson.M{"applied_promotion_ids": requestID},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to stamp listing promotion: %w", err)
	}
	return result.MatchedCount == 1, nil
}
