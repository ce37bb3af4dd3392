package client

import (
	"context"
	"fmt"
	"keja/pkg/model"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearchPage is the page-numbered envelope returned by listing search.
type SearchPage struct {
	Data       []*model.ListingView `json:"data"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int                  `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
}

// SearchQuery encodes filters the way the listings service parses them.
func SearchQuery(filters model.SearchFilters, page, pageSize int) url.Values {
	q := url.Values{}
	if filters.Query != "" {
		q.Set("q", filters.Query)
	}
	if len(filters.Categories) > 0 {
		q.Set("category", strings.Join(filters.Categories, ","))
	}
	if len(filters.Amenities) > 0 {
		q.Set("amenities", strings.Join(filters.Amenities, ","))
	}
	if filters.ListingType != "" {
		q.Set("status", filters.ListingType)
	}
	if filters.MinBathrooms != nil {
		q.Set("min_bathrooms", strconv.Itoa(*filters.MinBathrooms))
	}
	if filters.Bedrooms != nil {
		q.Set("bedrooms", strconv.Itoa(*filters.Bedrooms))
	}
	if filters.MinPrice != nil {
		q.Set("min_price", strconv.FormatInt(*filters.MinPrice, 10))
	}
	if filters.MaxPrice != nil {
		q.Set("max_price", strconv.FormatInt(*filters.MaxPrice, 10))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}

func (c *HttpClient) SearchListings(ctx context.Context, filters model.SearchFilters, page, pageSize int) (*SearchPage, error) {
	path := "/api/v1/listings/search"
	if q := SearchQuery(filters, page, pageSize).Encode(); q != "" {
		path += "?" + q
	}

	resp, err := c.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search listings: %s", GetErrorMessage(resp))
	}

	var result SearchPage
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &result, nil
}
