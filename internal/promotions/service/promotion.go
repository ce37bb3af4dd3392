package service

import (
	"context"
	"errors"
	"fmt"
	"keja/internal/promotions/events"
	promotionserrors "keja/internal/promotions/errors"
	"keja/internal/promotions/repository"
	"keja/internal/promotions/validator"
	"keja/pkg/config"
	apperrors "keja/pkg/errors"
	"keja/pkg/metrics"
	"keja/pkg/model"
	"keja/pkg/sanitizer"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	lockInitialBackoff = 20 * time.Millisecond
	lockMaxBackoff     = 250 * time.Millisecond
)

type PromotionService interface {
	Submit(ctx context.Context, listingID, requesterID string, weeks int, evidenceRef string) (*model.PromotionRequest, error)
	Decide(ctx context.Context, requestID, deciderID, outcome string) (*model.PromotionRequest, error)
	GetByID(ctx context.Context, id string) (*model.PromotionRequest, error)
	List(ctx context.Context, status, listingID string, limit int, offset int64) ([]*model.PromotionRequest, int64, error)
}

type promotionService struct {
	repo      repository.PromotionRepository
	listings  repository.ListingStampRepository
	locks     repository.ListingLockRepository
	validator *validator.PromotionValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewPromotionService(
	repo repository.PromotionRepository,
	listings repository.ListingStampRepository,
	locks repository.ListingLockRepository,
	validator *validator.PromotionValidator,
	publisher events.Publisher,
	cfg *config.Config,
) PromotionService {
	return &promotionService{
		repo:      repo,
		listings:  listings,
		locks:     locks,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *promotionService) Submit(ctx context.Context, listingID, requesterID string, weeks int, evidenceRef string) (*model.PromotionRequest, error) {
	submission := &model.PromotionSubmission{
		ListingID:   sanitizer.SanitizeReference(listingID),
		RequesterID: sanitizer.SanitizeReference(requesterID),
		Weeks:       weeks,
		EvidenceRef: sanitizer.SanitizeReference(evidenceRef),
	}
	if err := s.validator.ValidateSubmission(submission); err != nil {
		return nil, validationError("Invalid promotion request", err)
	}

	if _, err := s.listings.FindListing(ctx, submission.ListingID); err != nil {
		return nil, s.listingError(submission.ListingID, err)
	}

	req := &model.PromotionRequest{
		ListingID:   submission.ListingID,
		RequesterID: submission.RequesterID,
		Weeks:       submission.Weeks,
		EvidenceRef: submission.EvidenceRef,
		Status:      model.PromotionStatusPending,
		CreatedAt:   s.cfg.Clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		s.cfg.Log.Error("Failed to create promotion request",
			"listing_id", req.ListingID,
			"requester_id", req.RequesterID,
			"error", err,
		)
		return nil, apperrors.Storage("Failed to create promotion request", err)
	}

	s.cfg.Log.Info("Promotion request submitted",
		"id", req.ID,
		"listing_id", req.ListingID,
		"requester_id", req.RequesterID,
		"weeks", req.Weeks,
	)
	s.publisher.Publish(ctx, events.EventSubmitted, req)

	return req, nil
}

func (s *promotionService) Decide(ctx context.Context, requestID, deciderID, outcome string) (req *model.PromotionRequest, err error) {
	decision := &model.PromotionDecision{
		DeciderID: sanitizer.SanitizeReference(deciderID),
		Outcome:   sanitizer.SanitizeTag(outcome),
	}
	if err := s.validator.ValidateDecision(decision); err != nil {
		return nil, validationError("Invalid promotion decision", err)
	}

	defer func() {
		metrics.RecordPromotionDecision(decision.Outcome, metrics.Status(err))
	}()

	req, err = s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.requestError(requestID, err)
	}
	if req.IsTerminal() {
		return nil, apperrors.InvalidState("Promotion request has already been decided", req.Status)
	}

	if decision.Outcome == model.PromotionStatusRejected {
		err = s.reject(ctx, req, decision.DeciderID)
	} else {
		err = s.approve(ctx, req, decision.DeciderID)
	}
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Promotion request decided",
		"id", req.ID,
		"listing_id", req.ListingID,
		"outcome", req.Status,
		"decider_id", decision.DeciderID,
	)
	if req.Status == model.PromotionStatusApproved {
		s.publisher.Publish(ctx, events.EventApproved, req)
	} else {
		s.publisher.Publish(ctx, events.EventRejected, req)
	}

	return req, nil
}

func (s *promotionService) reject(ctx context.Context, req *model.PromotionRequest, deciderID string) error {
	now := s.cfg.Clock.Now().UTC()

	if err := s.repo.Reject(ctx, req.ID, deciderID, now); err != nil {
		if errors.Is(err, promotionserrors.ErrNotPending) {
			return s.invalidState(ctx, req.ID)
		}
		s.cfg.Log.Error("Failed to reject promotion request",
			"id", req.ID,
			"error", err,
		)
		return apperrors.Storage("Failed to reject promotion request", err)
	}

	req.Status = model.PromotionStatusRejected
	req.DecidedAt = &now
	req.DeciderID = &deciderID
	return nil
}

// approve stamps the listing under its lock. The request update, the listing
// stamp and the applied flag are written in that order so that GetByID can
// finish an approval interrupted between them.
func (s *promotionService) approve(ctx context.Context, req *model.PromotionRequest, deciderID string) error {
	lock, err := s.acquireLock(ctx, req.ListingID)
	if err != nil {
		return err
	}
	defer s.releaseLock(ctx, lock)

	now := s.cfg.Clock.Now().UTC()
	var expiresAt *time.Time

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		listing, err := s.listings.FindListing(txCtx, req.ListingID)
		if err != nil {
			return err
		}
		expiresAt = promotionExpiry(listing, req, now)

		if err := s.repo.Approve(txCtx, req.ID, deciderID, now, expiresAt); err != nil {
			return err
		}
		if _, err := s.listings.StampPromotion(txCtx, req.ListingID, req.ID, expiresAt); err != nil {
			return err
		}
		return s.repo.MarkApplied(txCtx, req.ID, expiresAt)
	})
	if err != nil {
		switch {
		case errors.Is(err, promotionserrors.ErrNotPending):
			return s.invalidState(ctx, req.ID)
		case errors.Is(err, promotionserrors.ErrListingNotFound):
			return apperrors.NotFoundWithID("Listing", req.ListingID)
		}
		s.cfg.Log.Error("Failed to approve promotion request",
			"id", req.ID,
			"listing_id", req.ListingID,
			"error", err,
		)
		return apperrors.Storage("Failed to approve promotion request", err)
	}

	req.Status = model.PromotionStatusApproved
	req.DecidedAt = &now
	req.DeciderID = &deciderID
	req.PromotionExpiresAt = expiresAt
	req.Applied = true
	return nil
}

func (s *promotionService) GetByID(ctx context.Context, id string) (*model.PromotionRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Promotion request ID cannot be empty")
	}

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.requestError(id, err)
	}

	s.repair(ctx, req)
	return req, nil
}

func (s *promotionService) List(ctx context.Context, status, listingID string, limit int, offset int64) ([]*model.PromotionRequest, int64, error) {
	filter := model.PromotionFilter{
		Status:    sanitizer.SanitizeTag(status),
		ListingID: sanitizer.SanitizeReference(listingID),
	}
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, 0, validationError("Invalid promotion filter", err)
	}

	var (
		requests []*model.PromotionRequest
		count    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		requests, err = s.repo.FindAll(gctx, filter, limit, offset)
		if err != nil {
			return fmt.Errorf("find: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list promotion requests",
			"status", filter.Status,
			"listing_id", filter.ListingID,
			"limit", limit,
			"offset", offset,
			"error", err,
		)
		return nil, 0, apperrors.Storage("Failed to list promotion requests", err)
	}

	for _, req := range requests {
		s.repair(ctx, req)
	}

	return requests, count, nil
}

// repair completes an approval whose listing stamp was never confirmed. A
// failure leaves the request as stored; the next read tries again.
func (s *promotionService) repair(ctx context.Context, req *model.PromotionRequest) {
	if !req.NeedsRepair() {
		return
	}

	replayed, err := s.replayStamp(ctx, req)
	if err != nil {
		metrics.RecordRepair(metrics.StatusFailure)
		s.cfg.Log.Error("Failed to repair approved promotion",
			"id", req.ID,
			"listing_id", req.ListingID,
			"error", err,
		)
		return
	}

	metrics.RecordRepair(metrics.StatusSuccess)
	s.cfg.Log.Warn("Repaired approved promotion",
		"id", req.ID,
		"listing_id", req.ListingID,
		"replayed_stamp", replayed,
		"promotion_expires_at", req.PromotionExpiresAt,
	)
	if replayed {
		s.publisher.Publish(ctx, events.EventRepaired, req)
	}
}

// replayStamp reports whether the listing had to be stamped again, as opposed
// to only the applied flag being missing.
func (s *promotionService) replayStamp(ctx context.Context, req *model.PromotionRequest) (bool, error) {
	lock, err := s.acquireLock(ctx, req.ListingID)
	if err != nil {
		return false, err
	}
	defer s.releaseLock(ctx, lock)

	now := s.cfg.Clock.Now().UTC()
	expiresAt := req.PromotionExpiresAt
	replayed := false

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		listing, err := s.listings.FindListing(txCtx, req.ListingID)
		if err != nil {
			return err
		}

		expiresAt = req.PromotionExpiresAt
		replayed = false
		if !listing.HasAppliedPromotion(req.ID) {
			newExpiry := promotionExpiry(listing, req, now)
			stamped, err := s.listings.StampPromotion(txCtx, req.ListingID, req.ID, newExpiry)
			if err != nil {
				return err
			}
			if stamped {
				expiresAt = newExpiry
				replayed = true
			}
		}
		return s.repo.MarkApplied(txCtx, req.ID, expiresAt)
	})
	if err != nil {
		return false, err
	}

	req.PromotionExpiresAt = expiresAt
	req.Applied = true
	return replayed, nil
}

// promotionExpiry stacks the request's weeks on top of any running promotion.
// A listing promoted without expiry stays that way.
func promotionExpiry(listing *model.Listing, req *model.PromotionRequest, now time.Time) *time.Time {
	base := listing.PromotionExtensionBase(now)
	if base == nil {
		return nil
	}
	expiry := base.Add(req.Duration())
	return &expiry
}

// acquireLock retries a held lock with exponential back-off until
// PromotionLockWait elapses.
func (s *promotionService) acquireLock(ctx context.Context, listingID string) (*model.ListingLock, error) {
	clk := s.cfg.Clock
	deadline := clk.Now().Add(s.cfg.PromotionLockWait)
	backoff := lockInitialBackoff
	contended := false

	for {
		lock, err := s.locks.Acquire(ctx, listingID, clk.Now().UTC(), s.cfg.PromotionLockTTL)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, promotionserrors.ErrLockHeld) {
			s.cfg.Log.Error("Failed to acquire listing lock",
				"listing_id", listingID,
				"error", err,
			)
			return nil, apperrors.Storage("Failed to acquire listing lock", err)
		}

		if !contended {
			metrics.LockContention.Inc()
			contended = true
		}

		remaining := deadline.Sub(clk.Now())
		if remaining <= 0 {
			s.cfg.Log.Warn("Listing lock wait exhausted",
				"listing_id", listingID,
				"wait", s.cfg.PromotionLockWait,
			)
			return nil, apperrors.Conflict("Another promotion decision is in progress for this listing, retry later")
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.Timeout("Timed out waiting for listing lock")
		case <-clk.After(min(backoff, remaining)):
		}
		backoff = min(backoff*2, lockMaxBackoff)
	}
}

func (s *promotionService) releaseLock(ctx context.Context, lock *model.ListingLock) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.locks.Release(releaseCtx, lock); err != nil {
		s.cfg.Log.Warn("Failed to release listing lock",
			"lock_id", lock.ID,
			"error", err,
		)
	}
}

func (s *promotionService) invalidState(ctx context.Context, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Storage("Failed to read promotion request", err)
	}
	return apperrors.InvalidState("Promotion request has already been decided", current.Status)
}

func (s *promotionService) requestError(id string, err error) error {
	if errors.Is(err, promotionserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Promotion request", id)
	}
	if errors.Is(err, promotionserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid promotion request ID format")
	}
	s.cfg.Log.Error("Failed to get promotion request",
		"id", id,
		"error", err,
	)
	return apperrors.Storage("Failed to retrieve promotion request", err)
}

func (s *promotionService) listingError(listingID string, err error) error {
	if errors.Is(err, promotionserrors.ErrListingNotFound) {
		return apperrors.NotFoundWithID("Listing", listingID)
	}
	if errors.Is(err, promotionserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid listing ID format")
	}
	s.cfg.Log.Error("Failed to get listing",
		"listing_id", listingID,
		"error", err,
	)
	return apperrors.Storage("Failed to retrieve listing", err)
}

func validationError(message string, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.Validation(message, validationErrs.Fields())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
