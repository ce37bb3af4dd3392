package model

// Listing type filter values accepted by search.
const (
	ListingTypeForRent  = "for-rent"
	ListingTypeForSale  = "for-sale"
	ListingTypeShortLet = "short-let"
	ListingTypeLand     = "land"
)

type SearchFilters struct {
	Query        string   `json:"q,omitempty" validate:"max=200"`
	Categories   []string `json:"category,omitempty" validate:"max=20,dive,required,max=50"`
	MinBathrooms *int     `json:"min_bathrooms,omitempty" validate:"omitempty,min=0"`
	MinPrice     *int64   `json:"min_price,omitempty" validate:"omitempty,min=0"`
	MaxPrice     *int64   `json:"max_price,omitempty" validate:"omitempty,min=0"`
	Bedrooms     *int     `json:"bedrooms,omitempty" validate:"omitempty,min=0"`
	Amenities    []string `json:"amenities,omitempty" validate:"max=30,dive,required,max=50"`
	ListingType  string   `json:"status,omitempty" validate:"omitempty,oneof=for-rent for-sale short-let land"`
}

func (f *SearchFilters) HasTextOrCategory() bool {
	return f.Query != "" || len(f.Categories) > 0
}

type SearchResult struct {
	Items      []*ListingView `json:"data"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int            `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}
