package model

import "time"

// ListingLock serializes promotion writes on a single listing. Owner lets a
// holder release only its own lock after an expired lock was taken over.
type ListingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func ListingLockID(listingID string) string {
	return "promotion_lock_" + listingID
}
