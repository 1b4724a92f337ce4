package geocode

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/example/taxifare/internal/models"
)

// GoogleClient resolves addresses with the Google Maps Geocoding API.
type GoogleClient struct {
	client *maps.Client
}

// NewGoogleClient creates a GoogleClient with the given API key. Extra options
// (base URL, HTTP client) are passed through to the maps client.
func NewGoogleClient(apiKey string, opts ...maps.ClientOption) (*GoogleClient, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

func (g *GoogleClient) Name() string { return "google" }

func (g *GoogleClient) Resolve(ctx context.Context, address string) (c models.Coord, err error) {
	defer func() { record(g.Name(), err) }()

	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coord{}, fmt.Errorf("google geocode: empty address: %w", models.ErrNotFound)
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return models.Coord{}, fmt.Errorf("google geocode: %q: %w", address, models.ErrNotFound)
		}
		return models.Coord{}, fmt.Errorf("google geocode: %w: %w", models.ErrNetwork, err)
	}
	if len(results) == 0 {
		return models.Coord{}, fmt.Errorf("google geocode: %q: %w", address, models.ErrNotFound)
	}

	loc := results[0].Geometry.Location
	return models.Coord{Lat: loc.Lat, Lon: loc.Lng}, nil
}
