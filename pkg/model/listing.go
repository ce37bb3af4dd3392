package model

import "time"

// Stored listing statuses.
const (
	ListingStatusForRent   = "for_rent"
	ListingStatusForSale   = "for_sale"
	ListingStatusShortLet  = "short_let"
	ListingStatusLandSale  = "land_sale"
	ListingStatusLandLease = "land_lease"
	ListingStatusDraft     = "draft"
	ListingStatusRented    = "rented"
	ListingStatusSold      = "sold"
	ListingStatusArchived  = "archived"
)

type Listing struct {
	ID                  string     `json:"id,omitempty" bson:"_id,omitempty"`
	Title               string     `json:"title" bson:"title"`
	Description         string     `json:"description,omitempty" bson:"description"`
	Location            string     `json:"location" bson:"location"`
	City                string     `json:"city" bson:"city"`
	Category            string     `json:"category" bson:"category"`
	Amenities           []string   `json:"amenities,omitempty" bson:"amenities"`
	Bedrooms            int        `json:"bedrooms" bson:"bedrooms"`
	Bathrooms           int        `json:"bathrooms" bson:"bathrooms"`
	Price               int64      `json:"price" bson:"price"`
	Status              string     `json:"status" bson:"status"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
	IsPromoted          bool       `json:"is_promoted" bson:"is_promoted"`
	PromotionExpiresAt  *time.Time `json:"promotion_expires_at,omitempty" bson:"promotion_expires_at"`
	AppliedPromotionIDs []string   `json:"-" bson:"applied_promotion_ids,omitempty"`
}

// IsCurrentlyPromoted reports whether the listing is promoted at now.
// An expiry equal to now is already expired.
func (l *Listing) IsCurrentlyPromoted(now time.Time) bool {
	if l == nil || !l.IsPromoted {
		return false
	}
	return l.PromotionExpiresAt == nil || l.PromotionExpiresAt.After(now)
}

// PromotionExtensionBase returns the instant a new promotion period starts from:
// the current expiry while the listing is promoted, otherwise now.
// A nil result means the listing is promoted indefinitely.
func (l *Listing) PromotionExtensionBase(now time.Time) *time.Time {
	if l.IsCurrentlyPromoted(now) {
		if l.PromotionExpiresAt == nil {
			return nil
		}
		base := *l.PromotionExpiresAt
		return &base
	}
	return &now
}

func (l *Listing) HasAppliedPromotion(requestID string) bool {
	for _, id := range l.AppliedPromotionIDs {
		if id == requestID {
			return true
		}
	}
	return false
}

// ListingView is the listing as returned by the discovery API.
type ListingView struct {
	*Listing
	CurrentlyPromoted bool `json:"currently_promoted"`
	Score             int  `json:"score"`
}
