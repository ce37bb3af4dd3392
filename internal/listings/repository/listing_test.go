package repository

import (
	"keja/internal/listings/ranking"
	"keja/pkg/model"
	"regexp"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func TestBuildListingFilter(t *testing.T) {
	statuses := []string{model.ListingStatusForRent}

	t.Run("status only", func(t *testing.T) {
		filter := BuildListingFilter(&model.SearchFilters{}, statuses)
		if len(filter) != 1 {
			t.Errorf("expected only the status clause, got %v", filter)
		}
	})

	t.Run("query is escaped and case-insensitive", func(t *testing.T) {
		filter := BuildListingFilter(&model.SearchFilters{Query: "2br (new)"}, statuses)

		or, ok := filter["$or"].(bson.A)
		if !ok || len(or) != 4 {
			t.Fatalf("expected 4 $or clauses, got %v", filter["$or"])
		}
		regex := or[0].(bson.M)["title"].(primitive.Regex)
		if regex.Pattern != `2br \(new\)` || regex.Options != "i" {
			t.Errorf("unexpected regex %+v", regex)
		}
	})

	t.Run("numeric and tag filters", func(t *testing.T) {
		filter := BuildListingFilter(&model.SearchFilters{
			Categories:   []string{"apartment", "studio"},
			MinBathrooms: ptr(2),
			MinPrice:     ptr(int64(30000)),
			MaxPrice:     ptr(int64(80000)),
			Bedrooms:     ptr(3),
			Amenities:    []string{"parking", "wifi"},
		}, statuses)

		if got := filter["bathrooms"].(bson.M)["$gte"]; got != 2 {
			t.Errorf("unexpected bathrooms clause %v", got)
		}
		price := filter["price"].(bson.M)
		if price["$gte"] != int64(30000) || price["$lte"] != int64(80000) {
			t.Errorf("unexpected price clause %v", price)
		}
		if got := filter["bedrooms"].(bson.M)["$gte"]; got != 3 {
			t.Errorf("unexpected bedrooms clause %v", got)
		}
		if got := filter["$and"].(bson.A); len(got) != 2 {
			t.Errorf("expected one clause per amenity, got %v", got)
		}
		if got := filter["category"].(bson.M)["$in"].(bson.A); len(got) != 2 {
			t.Errorf("unexpected category clause %v", got)
		}
	})

	t.Run("open-ended price range", func(t *testing.T) {
		filter := BuildListingFilter(&model.SearchFilters{MaxPrice: ptr(int64(10))}, statuses)
		price := filter["price"].(bson.M)
		if _, ok := price["$gte"]; ok {
			t.Error("did not expect a lower price bound")
		}
	})
}

func compileMongoRegex(t *testing.T, re primitive.Regex) *regexp.Regexp {
	t.Helper()
	if re.Options != "i" {
		t.Fatalf("expected case-insensitive regex, got options %q", re.Options)
	}
	return regexp.MustCompile("(?i)" + re.Pattern)
}

func TestBuildListingFilter_TagsMatchStoredSpelling(t *testing.T) {
	filters := &model.SearchFilters{
		Categories: []string{"apartment", "two-bedroom"},
		Amenities:  []string{"swimming-pool"},
	}
	filter := BuildListingFilter(filters, []string{model.ListingStatusForRent})

	categories := filter["category"].(bson.M)["$in"].(bson.A)
	apartment := compileMongoRegex(t, categories[0].(primitive.Regex))
	twoBedroom := compileMongoRegex(t, categories[1].(primitive.Regex))
	pool := compileMongoRegex(t, filter["$and"].(bson.A)[0].(bson.M)["amenities"].(primitive.Regex))

	tests := []struct {
		name   string
		re     *regexp.Regexp
		stored string
		want   bool
	}{
		{"capitalised category", apartment, "Apartment", true},
		{"upper case category", apartment, "APARTMENT", true},
		{"padded category", apartment, " apartment ", true},
		{"longer category", apartment, "Apartment Complex", false},
		{"prefix of category", apartment, "apart", false},
		{"spaced words", twoBedroom, "Two Bedroom", true},
		{"underscored words", twoBedroom, "two_bedroom", true},
		{"amenity with space", pool, "Swimming Pool", true},
		{"other amenity", pool, "pool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.re.MatchString(tt.stored); got != tt.want {
				t.Errorf("match(%q) = %v, want %v", tt.stored, got, tt.want)
			}
		})
	}

	// a listing the filter admits must also earn the exact category bonus
	listing := &model.Listing{Title: "Flat", Category: "Apartment"}
	if !apartment.MatchString(listing.Category) {
		t.Fatal("filter should admit the listing")
	}
	if got := ranking.Score(listing, &model.SearchFilters{Categories: []string{"apartment"}}); got != 10 {
		t.Errorf("expected exact category score 10, got %d", got)
	}
}

func TestBuildListingFilter_TagIsEscaped(t *testing.T) {
	filter := BuildListingFilter(&model.SearchFilters{Categories: []string{"1.5br"}}, nil)
	re := compileMongoRegex(t, filter["category"].(bson.M)["$in"].(bson.A)[0].(primitive.Regex))

	if re.MatchString("145br") {
		t.Error("a dot in the tag must match only a literal dot")
	}
	if !re.MatchString("1.5BR") {
		t.Error("expected the literal tag to match")
	}
}

func TestCandidateFindOptions_ReadsEveryMatch(t *testing.T) {
	opts := candidateFindOptions()

	if opts.Limit != nil {
		t.Errorf("candidate reads must not be capped, got limit %d", *opts.Limit)
	}
	if opts.Skip != nil {
		t.Errorf("candidate reads must not skip, got %d", *opts.Skip)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok || len(sort) != 2 || sort[0].Key != "created_at" || sort[1].Key != "_id" {
		t.Errorf("unexpected sort %v", opts.Sort)
	}
}

func TestPromotedFilter(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := PromotedFilter([]string{model.ListingStatusForRent}, now)

	if filter["is_promoted"] != true {
		t.Error("expected is_promoted clause")
	}
	or := filter["$or"].(bson.A)
	expiry := or[1].(bson.M)["promotion_expires_at"].(bson.M)
	if _, ok := expiry["$gt"]; !ok {
		t.Errorf("expiry comparison must be strict, got %v", expiry)
	}
	if _, ok := filter["price"]; ok {
		t.Error("promoted query must ignore non-status filters")
	}
}
