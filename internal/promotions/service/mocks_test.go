package service

import (
	"context"
	"fmt"
	"io"
	promotionserrors "keja/internal/promotions/errors"
	"keja/internal/promotions/validator"
	"keja/pkg/config"
	mongotx "keja/pkg/db/mongo"
	"keja/pkg/logger"
	"keja/pkg/model"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type mockPromotionRepository struct {
	createFunc             func(ctx context.Context, req *model.PromotionRequest) error
	findByIDFunc           func(ctx context.Context, id string) (*model.PromotionRequest, error)
	findAllFunc            func(ctx context.Context, filter model.PromotionFilter, limit int, offset int64) ([]*model.PromotionRequest, error)
	countFunc              func(ctx context.Context, filter model.PromotionFilter) (int64, error)
	approveFunc            func(ctx context.Context, id, deciderID string, decidedAt time.Time, expiresAt *time.Time) error
	rejectFunc             func(ctx context.Context, id, deciderID string, decidedAt time.Time) error
	markAppliedFunc        func(ctx context.Context, id string, expiresAt *time.Time) error
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockPromotionRepository) Create(ctx context.Context, req *model.PromotionRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil
}

func (m *mockPromotionRepository) FindByID(ctx context.Context, id string) (*model.PromotionRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, promotionserrors.ErrNotFound
}

func (m *mockPromotionRepository) FindAll(ctx context.Context, filter model.PromotionFilter, limit int, offset int64) ([]*model.PromotionRequest, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	return []*model.PromotionRequest{}, nil
}

func (m *mockPromotionRepository) Count(ctx context.Context, filter model.PromotionFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockPromotionRepository) Approve(ctx context.Context, id, deciderID string, decidedAt time.Time, expiresAt *time.Time) error {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, id, deciderID, decidedAt, expiresAt)
	}
	return nil
}

func (m *mockPromotionRepository) Reject(ctx context.Context, id, deciderID string, decidedAt time.Time) error {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, id, deciderID, decidedAt)
	}
	return nil
}

func (m *mockPromotionRepository) MarkApplied(ctx context.Context, id string, expiresAt *time.Time) error {
	if m.markAppliedFunc != nil {
		return m.markAppliedFunc(ctx, id, expiresAt)
	}
	return nil
}

func (m *mockPromotionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockListingStampRepository struct {
	findListingFunc    func(ctx context.Context, listingID string) (*model.Listing, error)
	stampPromotionFunc func(ctx context.Context, listingID, requestID string, expiresAt *time.Time) (bool, error)
}

func (m *mockListingStampRepository) FindListing(ctx context.Context, listingID string) (*model.Listing, error) {
	if m.findListingFunc != nil {
		return m.findListingFunc(ctx, listingID)
	}
	return nil, promotionserrors.ErrListingNotFound
}

func (m *mockListingStampRepository) StampPromotion(ctx context.Context, listingID, requestID string, expiresAt *time.Time) (bool, error) {
	if m.stampPromotionFunc != nil {
		return m.stampPromotionFunc(ctx, listingID, requestID, expiresAt)
	}
	return true, nil
}

type mockListingLockRepository struct {
	acquireFunc func(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (*model.ListingLock, error)
	releaseFunc func(ctx context.Context, lock *model.ListingLock) error
}

func (m *mockListingLockRepository) Acquire(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (*model.ListingLock, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, listingID, now, ttl)
	}
	return &model.ListingLock{ID: model.ListingLockID(listingID), ExpiresAt: now.Add(ttl)}, nil
}

func (m *mockListingLockRepository) Release(ctx context.Context, lock *model.ListingLock) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, lock)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, req *model.PromotionRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

// ledger backs the mocks with in-memory state so multi-step flows can be
// observed end to end.
type ledger struct {
	mu       sync.Mutex
	requests map[string]*model.PromotionRequest
	listings map[string]*model.Listing
	locks    map[string]bool
	nextID   int

	promotions *mockPromotionRepository
	stamps     *mockListingStampRepository
	lockRepo   *mockListingLockRepository
}

func newLedger() *ledger {
	l := &ledger{
		requests: map[string]*model.PromotionRequest{},
		listings: map[string]*model.Listing{},
		locks:    map[string]bool{},
	}

	l.promotions = &mockPromotionRepository{
		createFunc: func(ctx context.Context, req *model.PromotionRequest) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.nextID++
			req.ID = fmt.Sprintf("req-%d", l.nextID)
			stored := *req
			l.requests[req.ID] = &stored
			return nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.PromotionRequest, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			req, ok := l.requests[id]
			if !ok {
				return nil, promotionserrors.ErrNotFound
			}
			out := *req
			return &out, nil
		},
		findAllFunc: func(ctx context.Context, filter model.PromotionFilter, limit int, offset int64) ([]*model.PromotionRequest, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			var out []*model.PromotionRequest
			for _, id := range l.sortedRequestIDs() {
				req := l.requests[id]
				if filter.Status != "" && req.Status != filter.Status {
					continue
				}
				if filter.ListingID != "" && req.ListingID != filter.ListingID {
					continue
				}
				c := *req
				out = append(out, &c)
			}
			if int(offset) >= len(out) {
				return []*model.PromotionRequest{}, nil
			}
			out = out[offset:]
			if len(out) > limit {
				out = out[:limit]
			}
			return out, nil
		},
		countFunc: func(ctx context.Context, filter model.PromotionFilter) (int64, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			var n int64
			for _, req := range l.requests {
				if (filter.Status == "" || req.Status == filter.Status) &&
					(filter.ListingID == "" || req.ListingID == filter.ListingID) {
					n++
				}
			}
			return n, nil
		},
		approveFunc: func(ctx context.Context, id, deciderID string, decidedAt time.Time, expiresAt *time.Time) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			req, ok := l.requests[id]
			if !ok || req.Status != model.PromotionStatusPending {
				return promotionserrors.ErrNotPending
			}
			req.Status = model.PromotionStatusApproved
			req.DecidedAt = &decidedAt
			req.DeciderID = &deciderID
			req.PromotionExpiresAt = expiresAt
			req.Applied = false
			return nil
		},
		rejectFunc: func(ctx context.Context, id, deciderID string, decidedAt time.Time) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			req, ok := l.requests[id]
			if !ok || req.Status != model.PromotionStatusPending {
				return promotionserrors.ErrNotPending
			}
			req.Status = model.PromotionStatusRejected
			req.DecidedAt = &decidedAt
			req.DeciderID = &deciderID
			return nil
		},
		markAppliedFunc: func(ctx context.Context, id string, expiresAt *time.Time) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			req, ok := l.requests[id]
			if !ok || req.Status != model.PromotionStatusApproved {
				return promotionserrors.ErrNotFound
			}
			req.Applied = true
			req.PromotionExpiresAt = expiresAt
			return nil
		},
	}

	l.stamps = &mockListingStampRepository{
		findListingFunc: func(ctx context.Context, listingID string) (*model.Listing, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			listing, ok := l.listings[listingID]
			if !ok {
				return nil, promotionserrors.ErrListingNotFound
			}
			out := *listing
			out.AppliedPromotionIDs = slices.Clone(listing.AppliedPromotionIDs)
			return &out, nil
		},
		stampPromotionFunc: func(ctx context.Context, listingID, requestID string, expiresAt *time.Time) (bool, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			listing, ok := l.listings[listingID]
			if !ok || listing.HasAppliedPromotion(requestID) {
				return false, nil
			}
			listing.IsPromoted = true
			listing.PromotionExpiresAt = expiresAt
			listing.AppliedPromotionIDs = append(listing.AppliedPromotionIDs, requestID)
			return true, nil
		},
	}

	l.lockRepo = &mockListingLockRepository{
		acquireFunc: func(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (*model.ListingLock, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			id := model.ListingLockID(listingID)
			if l.locks[id] {
				return nil, promotionserrors.ErrLockHeld
			}
			l.locks[id] = true
			return &model.ListingLock{ID: id, ExpiresAt: now.Add(ttl), CreatedAt: now}, nil
		},
		releaseFunc: func(ctx context.Context, lock *model.ListingLock) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.locks, lock.ID)
			return nil
		},
	}

	return l
}

func (l *ledger) sortedRequestIDs() []string {
	ids := make([]string, 0, len(l.requests))
	for id := range l.requests {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (l *ledger) addListing(listing *model.Listing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listings[listing.ID] = listing
}

func (l *ledger) addRequest(req *model.PromotionRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[req.ID] = req
}

func (l *ledger) listing(id string) model.Listing {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.listings[id]
}

func (l *ledger) request(id string) model.PromotionRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.requests[id]
}

func (l *ledger) lockHeld(listingID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks[model.ListingLockID(listingID)]
}

func newTestConfig(clk clock.Clock) *config.Config {
	return &config.Config{
		WriteTimeout:      time.Second,
		PromotionLockTTL:  30 * time.Second,
		PromotionLockWait: 2 * time.Second,
		Log: logger.New(logger.Config{
			Level:   "info",
			Format:  logger.JSON,
			Output:  io.Discard,
			Service: "test",
		}),
		Clock: clk,
	}
}

func newMockClock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return mock
}

func newTestService(l *ledger, publisher *recordingPublisher, cfg *config.Config) PromotionService {
	return NewPromotionService(
		l.promotions,
		l.stamps,
		l.lockRepo,
		validator.NewPromotionValidator(cfg.Log),
		publisher,
		cfg,
	)
}

func ptr[T any](v T) *T { return &v }

func newTestValidatorFor(cfg *config.Config) *validator.PromotionValidator {
	return validator.NewPromotionValidator(cfg.Log)
}
