package api

import (
	"fmt"
	"regexp"
)

// Pagination bounds shared by every list endpoint.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// objectIDPattern matches the backend's 24-character hex object identifiers.
var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ValidateObjectID checks that id is a well-formed object identifier and
// returns a Validation error naming the field otherwise.  Resource modules
// call this before any network traffic, so a malformed id never leaves the
// process.
func ValidateObjectID(field, id string) error {
	if !objectIDPattern.MatchString(id) {
		return NewValidationError(field, fmt.Sprintf("%s must be a 24-character hex identifier", field))
	}
	return nil
}

// ValidatePagination resolves optional page/limit values against the shared
// bounds.  Nil means "not provided" and takes the default; an explicit value
// outside the bounds is a Validation error rather than being silently
// clamped, so callers learn about broken pagination math.
func ValidatePagination(page, limit *int) (int, int, error) {
	p, l := DefaultPage, DefaultLimit
	if page != nil {
		if *page < 1 {
			return 0, 0, NewValidationError("page", "page must be at least 1")
		}
		p = *page
	}
	if limit != nil {
		if *limit < 1 || *limit > MaxLimit {
			return 0, 0, NewValidationError("limit", fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
		}
		l = *limit
	}
	return p, l, nil
}
