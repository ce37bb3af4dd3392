package model

import "time"

const (
	PromotionStatusPending  = "pending"
	PromotionStatusApproved = "approved"
	PromotionStatusRejected = "rejected"

	PromotionWeek = 7 * 24 * time.Hour

	// MaxPromotionWeeks is the longest request whose Duration fits in a
	// time.Duration. The literal in PromotionSubmission's max tag must match it.
	MaxPromotionWeeks = 15250
)

type PromotionRequest struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty"`
	ListingID          string     `json:"listing_id" bson:"listing_id"`
	RequesterID        string     `json:"requester_id" bson:"requester_id"`
	Weeks              int        `json:"weeks" bson:"weeks"`
	EvidenceRef        string     `json:"evidence_ref" bson:"evidence_ref"`
	Status             string     `json:"status" bson:"status"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	DecidedAt          *time.Time `json:"decided_at,omitempty" bson:"decided_at"`
	DeciderID          *string    `json:"decider_id,omitempty" bson:"decider_id"`
	PromotionExpiresAt *time.Time `json:"promotion_expires_at,omitempty" bson:"promotion_expires_at"`
	Applied            bool       `json:"applied" bson:"applied"`
}

// PromotionSubmission is the input of a new promotion request.
type PromotionSubmission struct {
	ListingID   string `json:"listing_id" validate:"required,max=64"`
	RequesterID string `json:"requester_id" validate:"required,max=128"`
	Weeks       int    `json:"weeks" validate:"required,min=1,max=15250"`
	EvidenceRef string `json:"evidence_ref" validate:"required,not_blank,max=2048"`
}

// PromotionDecision is an administrator's verdict on a pending request.
type PromotionDecision struct {
	DeciderID string `json:"decider_id" validate:"required,max=128"`
	Outcome   string `json:"outcome" validate:"required,oneof=approved rejected"`
}

// IsTerminal reports whether the request has already been decided.
func (p *PromotionRequest) IsTerminal() bool {
	return p.Status == PromotionStatusApproved || p.Status == PromotionStatusRejected
}

// NeedsRepair reports whether an approval was recorded without its listing stamp
// being confirmed.
func (p *PromotionRequest) NeedsRepair() bool {
	return p.Status == PromotionStatusApproved && !p.Applied
}

// Duration is the promotion length bought by the request.
func (p *PromotionRequest) Duration() time.Duration {
	return time.Duration(p.Weeks) * PromotionWeek
}

// PromotionFilter narrows the admin listing of requests.
type PromotionFilter struct {
	Status    string `validate:"omitempty,oneof=pending approved rejected"`
	ListingID string `validate:"omitempty,max=64"`
}
