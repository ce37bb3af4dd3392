// Package sanitizer normalizes user supplied search and promotion input before
// validation and storage.
//
// All functions are idempotent and never fail: invalid input collapses to an
// empty string or an empty slice.
//
// Normalization includes:
//   - Free text: collapse whitespace, trim, strip control characters
//   - Tags (categories, amenities): lowercase free text, spaces and underscores become hyphens
//   - Opaque references and identifiers: trim and strip control characters only
//   - Slices: drop empties and duplicates after normalization, keeping first-seen order
package sanitizer
