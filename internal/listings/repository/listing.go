package repository

import (
	"context"
	"errors"
	"fmt"
	listingserrors "keja/internal/listings/errors"
	"keja/pkg/config"
	mongotx "keja/pkg/db/mongo"
	"keja/pkg/model"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Listings"
)

type mongoListingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ListingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	// FindFiltered returns listings matching every supplied filter.
	FindFiltered(ctx context.Context, filters *model.SearchFilters, statuses []string) ([]*model.Listing, error)
	// FindPromoted returns listings promoted at now, ignoring every filter but status.
	FindPromoted(ctx context.Context, statuses []string, now time.Time) ([]*model.Listing, error)
}

func NewMongoListingRepository(cfg *config.Config) ListingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	var listing model.Listing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", listingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}

func (r *mongoListingRepository) FindFiltered(ctx context.Context, filters *model.SearchFilters, statuses []string) ([]*model.Listing, error) {
	return r.find(ctx, BuildListingFilter(filters, statuses))
}

func (r *mongoListingRepository) FindPromoted(ctx context.Context, statuses []string, now time.Time) ([]*model.Listing, error) {
	return r.find(ctx, PromotedFilter(statuses, now))
}

func (r *mongoListingRepository) find(ctx context.Context, filter bson.M) ([]*model.Listing, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, candidateFindOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []*model.Listing{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

// candidateFindOptions reads every match. Relevance is scored after the
// read, so any cut here would drop listings the ranking has not seen.
func candidateFindOptions() *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"applied_promotion_ids": 0})
}

// BuildListingFilter translates search filters into a Mongo query. Every
// supplied filter is required to match.
func BuildListingFilter(filters *model.SearchFilters, statuses []string) bson.M {
	filter := bson.M{"status": bson.M{"$in": statuses}}
	if filters == nil {
		return filter
	}

	if filters.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filters.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"location": pattern},
			bson.M{"city": pattern},
			bson.M{"category": pattern},
		}
	}
	if len(filters.Categories) > 0 {
		categories := make(bson.A, 0, len(filters.Categories))
		for _, tag := range filters.Categories {
			categories = append(categories, tagPattern(tag))
		}
		filter["category"] = bson.M{"$in": categories}
	}
	if filters.MinBathrooms != nil {
		filter["bathrooms"] = bson.M{"$gte": *filters.MinBathrooms}
	}
	if filters.MinPrice != nil || filters.MaxPrice != nil {
		price := bson.M{}
		if filters.MinPrice != nil {
			price["$gte"] = *filters.MinPrice
		}
		if filters.MaxPrice != nil {
			price["$lte"] = *filters.MaxPrice
		}
		filter["price"] = price
	}
	if filters.Bedrooms != nil {
		filter["bedrooms"] = bson.M{"$gte": *filters.Bedrooms}
	}
	if len(filters.Amenities) > 0 {
		amenities := make(bson.A, 0, len(filters.Amenities))
		for _, tag := range filters.Amenities {
			amenities = append(amenities, bson.M{"amenities": tagPattern(tag)})
		}
		filter["$and"] = amenities
	}

	return filter
}

// tagPattern matches stored values whose tag form equals tag, ignoring case
// and surrounding space. Each hyphen of tag accepts any run of spaces,
// underscores or hyphens.
func tagPattern(tag string) primitive.Regex {
	words := strings.Split(tag, "-")
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return primitive.Regex{Pattern: `^\s*` + strings.Join(words, `[\s_-]+`) + `\s*$`, Options: "i"}
}

// PromotedFilter matches listings promoted at now. An expiry equal to now no
// longer matches.
func PromotedFilter(statuses []string, now time.Time) bson.M {
	return bson.M{
		"status":      bson.M{"$in": statuses},
		"is_promoted": true,
		"$or": bson.A{
			bson.M{"promotion_expires_at": nil},
			bson.M{"promotion_expires_at": bson.M{"$gt": now}},
		},
	}
}
