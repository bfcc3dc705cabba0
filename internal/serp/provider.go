package serp

import (
	"context"
	"errors"
	"net/http"
)

// Provider is an interface that defines a single ranking lookup.
// FindRanking resolves the position of a business in search results for the
// given keyword near the given location, returning a positive 1-based rank or
// ErrBusinessNotFound when the business is absent from the results.
type Provider interface {
	FindRanking(ctx context.Context, keyword, businessName, locationContext string) (int, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors shared by ranking providers.
var (
	// ErrBusinessNotFound means the lookup succeeded but the business does not
	// appear in the results. This is a domain outcome, not a transport failure.
	ErrBusinessNotFound = errors.New("business not found in search results")
	// ErrEmptyKeyword is returned when the keyword is blank.
	ErrEmptyKeyword = errors.New("keyword must not be empty")
	// ErrEmptyBusinessName is returned when the business name is blank.
	ErrEmptyBusinessName = errors.New("business name must not be empty")
)
