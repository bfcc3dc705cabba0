package serp

import (
	"context"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// PlacesProvider implements ranking lookups using the Google Places Text
// Search API. The rank is the 1-based position of the first result matching
// the business name within the returned page of results.
type PlacesProvider struct {
	client PlacesAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// PlacesAPIClient is the subset of the Google Maps client used by the
// provider, extracted for mocking in tests.
type PlacesAPIClient interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

// NewPlacesProvider initializes a new PlacesProvider with the given client
// and logger.
func NewPlacesProvider(client PlacesAPIClient, log *slog.Logger) *PlacesProvider {
	return &PlacesProvider{client: client, log: log}
}

// FindRanking performs a text search for the keyword near the given location
// and returns the position of the first result whose name matches the target
// business. Returns ErrBusinessNotFound when no result matches.
func (pp *PlacesProvider) FindRanking(
	ctx context.Context,
	keyword, businessName, locationContext string,
) (int, error) {
	if keyword == "" {
		return 0, ErrEmptyKeyword
	}
	if businessName == "" {
		return 0, ErrEmptyBusinessName
	}

	query := keyword
	if locationContext != "" {
		query = keyword + " near " + locationContext
	}

	pp.log.DebugContext(ctx, "Looking up ranking using Google Places",
		"query", query, "business", businessName)

	req := maps.TextSearchRequest{Query: query}
	resp, err := pp.client.TextSearch(ctx, &req)
	if err != nil {
		return 0, fmt.Errorf("failed to search places: %w", err)
	}

	for idx, result := range resp.Results {
		if MatchBusinessName(result.Name, businessName) {
			rank := idx + 1
			pp.log.InfoContext(ctx, "Google Places found ranking",
				"business", businessName, "rank", rank)
			return rank, nil
		}
	}

	return 0, ErrBusinessNotFound
}
