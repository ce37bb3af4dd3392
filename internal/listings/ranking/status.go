package ranking

import (
	"fmt"
	listingserrors "keja/internal/listings/errors"
	"keja/pkg/model"
)

var statusSets = map[string][]string{
	model.ListingTypeForRent:  {model.ListingStatusForRent},
	model.ListingTypeForSale:  {model.ListingStatusForSale},
	model.ListingTypeShortLet: {model.ListingStatusShortLet},
	model.ListingTypeLand:     {model.ListingStatusLandSale, model.ListingStatusLandLease},
}

// publiclyListable is the status set used when no listing type is requested.
var publiclyListable = []string{
	model.ListingStatusForRent,
	model.ListingStatusForSale,
	model.ListingStatusShortLet,
	model.ListingStatusLandSale,
	model.ListingStatusLandLease,
}

// StatusSet maps a listing type filter to the stored statuses it admits.
func StatusSet(listingType string) ([]string, error) {
	if listingType == "" {
		return append([]string(nil), publiclyListable...), nil
	}
	set, ok := statusSets[listingType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrUnknownListingType, listingType)
	}
	return append([]string(nil), set...), nil
}
