package service

import (
	"context"
	"errors"
	"fmt"
	listingserrors "keja/internal/listings/errors"
	"keja/internal/listings/ranking"
	"keja/internal/listings/repository"
	"keja/internal/listings/validator"
	"keja/pkg/config"
	apperrors "keja/pkg/errors"
	"keja/pkg/metrics"
	"keja/pkg/model"
	"keja/pkg/sanitizer"
	"time"

	"golang.org/x/sync/errgroup"
)

type ListingService interface {
	Search(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (*model.SearchResult, error)
	GetByID(ctx context.Context, id string) (*model.ListingView, error)
}

type listingService struct {
	repo      repository.ListingRepository
	validator *validator.SearchValidator
	cfg       *config.Config
}

func NewListingService(
	repo repository.ListingRepository,
	validator *validator.SearchValidator,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *listingService) Search(ctx context.Context, filters *model.SearchFilters, page, pageSize int) (result *model.SearchResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSearchDuration(metrics.Status(err), time.Since(start).Seconds())
	}()

	if filters == nil {
		filters = &model.SearchFilters{}
	}
	s.sanitize(filters)

	page, pageSize, err = s.normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(filters); err != nil {
		return nil, validationError("Invalid search filters", err)
	}

	statuses, err := ranking.StatusSet(filters.ListingType)
	if err != nil {
		return nil, apperrors.Validation("Invalid search filters", map[string]any{"status": err.Error()})
	}

	now := s.cfg.Clock.Now().UTC()

	var filtered, promoted []*model.Listing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		filtered, err = s.repo.FindFiltered(gctx, filters, statuses)
		if err != nil {
			return fmt.Errorf("filtered query: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		promoted, err = s.repo.FindPromoted(gctx, statuses, now)
		if err != nil {
			return fmt.Errorf("promoted query: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Listing search failed",
			"query", filters.Query,
			"status", filters.ListingType,
			"error", err,
		)
		return nil, apperrors.Storage("Failed to search listings", err)
	}

	ranked := ranking.Rank(promoted, filtered, filters, now)
	result = ranking.Paginate(ranked, page, pageSize)

	promotedCount := 0
	for _, v := range ranked {
		if !v.CurrentlyPromoted {
			break
		}
		promotedCount++
	}
	metrics.SearchPromotedResults.Observe(float64(promotedCount))

	s.cfg.Log.Debug("Listing search completed",
		"query", filters.Query,
		"status", filters.ListingType,
		"filtered", len(filtered),
		"promoted", promotedCount,
		"total", result.TotalCount,
		"page", page,
	)

	return result, nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.ListingView, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		s.cfg.Log.Error("Failed to get listing by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Storage("Failed to retrieve listing", err)
	}

	return &model.ListingView{
		Listing:           listing,
		CurrentlyPromoted: listing.IsCurrentlyPromoted(s.cfg.Clock.Now()),
	}, nil
}

func (s *listingService) sanitize(filters *model.SearchFilters) {
	filters.Query = sanitizer.SanitizeText(filters.Query)
	filters.Categories = sanitizer.NormalizeTags(filters.Categories)
	filters.Amenities = sanitizer.NormalizeTags(filters.Amenities)
	filters.ListingType = sanitizer.SanitizeTag(filters.ListingType)
}

// normalizePage applies the page defaults: 0 means "first page" and
// "default size" respectively.
func (s *listingService) normalizePage(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = s.cfg.SearchDefaultPageSize
	}

	details := map[string]any{}
	if page < 1 {
		details["page"] = "must be at least 1"
	}
	if pageSize < 1 || pageSize > s.cfg.SearchMaxPageSize {
		details["page_size"] = fmt.Sprintf("must be between 1 and %d", s.cfg.SearchMaxPageSize)
	}
	if len(details) > 0 {
		return 0, 0, apperrors.Validation("Invalid pagination", details)
	}
	return page, pageSize, nil
}

func validationError(message string, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.Validation(message, validationErrs.Fields())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
