package serp

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of ranking provider.
type ProviderType string

const (
	// ProviderTypeDataForSEO represents the DataForSEO SERP API provider.
	ProviderTypeDataForSEO ProviderType = "dataforseo"
	// ProviderTypePlaces represents the Google Places provider.
	ProviderTypePlaces ProviderType = "places"
)

// ProviderConfig holds configuration for creating a ranking provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	Login     string       // API login (used by DataForSEO provider)
	Password  string       // API password (used by DataForSEO provider)
	APIKey    string       // API key (used by Places provider)
	RateLimit int          // Rate limit for requests per second
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a ranking provider based on the provided configuration.
// It applies the Factory pattern to decouple provider instantiation from
// business logic.
//
// Supported provider types:
// - "dataforseo": DataForSEO SERP API (requires login and password)
// - "places": Google Places Text Search API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider
// creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeDataForSEO:
		return newDataForSEOProvider(config)
	case ProviderTypePlaces:
		return newPlacesProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newDataForSEOProvider creates a DataForSEO ranking provider.
func newDataForSEOProvider(config ProviderConfig) (Provider, error) {
	if config.Login == "" || config.Password == "" {
		return nil, errors.New("login and password are required for DataForSEO provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for DataForSEO API not set, set a default value",
			"value", config.RateLimit)
	}

	return NewDataForSEOProvider(config.Login, config.Password, config.RateLimit, config.Logger), nil
}

// newPlacesProvider creates a Google Places ranking provider.
func newPlacesProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Places provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewPlacesProvider(client, config.Logger), nil
}
