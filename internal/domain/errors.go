package domain

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingTitle is returned when the request carries no usable title
	ErrMissingTitle = errors.New("missing or blank title")

	// ErrNoListings is returned when the results container holds no usable listings
	ErrNoListings = errors.New("search page contains no listings")

	// ErrNoMatch is returned when every candidate scored below the acceptance threshold
	ErrNoMatch = errors.New("no listing matched above the acceptance threshold")

	// ErrPageShape is returned when the results container itself is absent,
	// which signals a structural page change rather than an empty result set
	ErrPageShape = errors.New("search results container not found")

	// ErrFetchFailure is returned when the marketplace search page request fails
	ErrFetchFailure = errors.New("marketplace page fetch failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// StatusOf maps an error to its HTTP status classification:
// client-input errors are 400, not-found 404, server-shape 502.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrMissingTitle), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoListings), errors.Is(err, ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, ErrPageShape), errors.Is(err, ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
