package events

import (
	"context"
	"keja/pkg/kafka"
	"keja/pkg/logger"
	"keja/pkg/middleware"
	"keja/pkg/model"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	EventSubmitted = "promotion.submitted"
	EventApproved  = "promotion.approved"
	EventRejected  = "promotion.rejected"
	EventRepaired  = "promotion.repaired"

	SchemaVersion = "1"
	Source        = "keja-promotions"

	publishTimeout = 5 * time.Second
)

// PromotionEvent is the payload of every promotion lifecycle event.
type PromotionEvent struct {
	RequestID          string     `json:"request_id"`
	ListingID          string     `json:"listing_id"`
	RequesterID        string     `json:"requester_id"`
	Weeks              int        `json:"weeks"`
	Status             string     `json:"status"`
	DeciderID          *string    `json:"decider_id,omitempty"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	PromotionExpiresAt *time.Time `json:"promotion_expires_at,omitempty"`
	OccurredAt         time.Time  `json:"occurred_at"`
}

// Publisher announces promotion lifecycle changes. Publishing is best effort:
// a failed publish never fails the operation that caused it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, req *model.PromotionRequest)
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer messagePublisher
	clock    clock.Clock
	log      *logger.Logger
}

func NewKafkaPublisher(producer messagePublisher, clk clock.Clock, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		clock:    clk,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, req *model.PromotionRequest) {
	now := p.clock.Now()

	msg, err := kafka.NewMessage(now).
		WithKey(req.ListingID).
		WithValue(NewPromotionEvent(req, now)).
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		p.log.Error("Failed to build promotion event",
			"event_type", eventType,
			"request_id", req.ID,
			"error", err,
		)
		return
	}

	// The request may finish before the broker acknowledges.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Warn("Failed to publish promotion event",
			"event_type", eventType,
			"request_id", req.ID,
			"listing_id", req.ListingID,
			"transient", kafka.IsTransient(err),
			"error", err,
		)
	}
}

func NewPromotionEvent(req *model.PromotionRequest, now time.Time) PromotionEvent {
	return PromotionEvent{
		RequestID:          req.ID,
		ListingID:          req.ListingID,
		RequesterID:        req.RequesterID,
		Weeks:              req.Weeks,
		Status:             req.Status,
		DeciderID:          req.DeciderID,
		DecidedAt:          req.DecidedAt,
		PromotionExpiresAt: req.PromotionExpiresAt,
		OccurredAt:         now.UTC(),
	}
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher for deployments without Kafka.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, *model.PromotionRequest) {}
