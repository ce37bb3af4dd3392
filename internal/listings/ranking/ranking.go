// Package ranking merges, scores, orders and pages search candidates.
// Everything here is pure: callers supply the candidates and the instant
// promotion state is evaluated at.
package ranking

import (
	"keja/pkg/model"
	"keja/pkg/sanitizer"
	"sort"
	"strings"
	"time"
)

const (
	scoreQueryInTitle       = 15
	scoreQueryInLocation    = 10
	scoreQueryInCity        = 8
	scoreQueryInDescription = 2
	scoreCategoryInTitle    = 15
	scoreCategoryExact      = 10
	scoreBedroomsExact      = 5
)

// Score is the relevance of listing against filters. Without a query or a
// category filter every listing scores 0.
func Score(listing *model.Listing, filters *model.SearchFilters) int {
	if listing == nil || filters == nil || !filters.HasTextOrCategory() {
		return 0
	}

	score := 0
	title := strings.ToLower(listing.Title)

	if q := strings.ToLower(filters.Query); q != "" {
		if strings.Contains(title, q) {
			score += scoreQueryInTitle
		}
		if strings.Contains(strings.ToLower(listing.Location), q) {
			score += scoreQueryInLocation
		}
		if strings.Contains(strings.ToLower(listing.City), q) {
			score += scoreQueryInCity
		}
		if strings.Contains(strings.ToLower(listing.Description), q) {
			score += scoreQueryInDescription
		}
	}

	if len(filters.Categories) > 0 {
		category := sanitizer.SanitizeTag(listing.Category)
		inTitle, exact := false, false
		for _, tag := range filters.Categories {
			tag = strings.ToLower(tag)
			// tags are hyphenated, titles are prose
			if strings.Contains(title, tag) || strings.Contains(title, strings.ReplaceAll(tag, "-", " ")) {
				inTitle = true
			}
			if category == tag {
				exact = true
			}
		}
		if inTitle {
			score += scoreCategoryInTitle
		}
		if exact {
			score += scoreCategoryExact
		}
	}

	if filters.Bedrooms != nil && listing.Bedrooms == *filters.Bedrooms {
		score += scoreBedroomsExact
	}

	return score
}

// Merge returns the promoted subset followed by the organic subset, each
// listing id at most once. A filtered listing that is itself currently
// promoted joins the promoted subset.
func Merge(promoted, filtered []*model.Listing, filters *model.SearchFilters, now time.Time) (promotedViews, organicViews []*model.ListingView) {
	seen := make(map[string]bool, len(promoted)+len(filtered))

	add := func(l *model.Listing) {
		if l == nil || seen[l.ID] {
			return
		}
		seen[l.ID] = true
		view := &model.ListingView{
			Listing:           l,
			CurrentlyPromoted: l.IsCurrentlyPromoted(now),
			Score:             Score(l, filters),
		}
		if view.CurrentlyPromoted {
			promotedViews = append(promotedViews, view)
		} else {
			organicViews = append(organicViews, view)
		}
	}

	for _, l := range promoted {
		if l.IsCurrentlyPromoted(now) {
			add(l)
		}
	}
	for _, l := range filtered {
		add(l)
	}

	return promotedViews, organicViews
}

// Sort orders views by score desc, created_at desc, then id asc.
func Sort(views []*model.ListingView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Rank merges and sorts the two candidate sets into the final ordering.
func Rank(promoted, filtered []*model.Listing, filters *model.SearchFilters, now time.Time) []*model.ListingView {
	promotedViews, organicViews := Merge(promoted, filtered, filters, now)
	Sort(promotedViews)
	Sort(organicViews)

	ranked := make([]*model.ListingView, 0, len(promotedViews)+len(organicViews))
	ranked = append(ranked, promotedViews...)
	return append(ranked, organicViews...)
}

// Paginate slices the 1-indexed page out of ranked. A page past the end
// yields no items. totalPages is never below 1.
func Paginate(ranked []*model.ListingView, page, pageSize int) *model.SearchResult {
	total := len(ranked)
	totalPages := 1
	if pageSize > 0 && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	items := []*model.ListingView{}
	start := (page - 1) * pageSize
	if page >= 1 && pageSize > 0 && start < total {
		end := min(start+pageSize, total)
		items = ranked[start:end]
	}

	return &model.SearchResult{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
