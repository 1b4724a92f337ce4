package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/taxifare/internal/models"
)

// NominatimClient performs address lookups against an OpenStreetMap Nominatim
// search endpoint.
type NominatimClient struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

func NewNominatimClient(endpoint, userAgent string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{Endpoint: endpoint, UserAgent: userAgent, Client: &http.Client{Timeout: timeout}}
}

func (n *NominatimClient) Name() string { return "nominatim" }

// Resolve queries /search?q=<address>&format=json and takes the first candidate.
func (n *NominatimClient) Resolve(ctx context.Context, address string) (c models.Coord, err error) {
	defer func() { record(n.Name(), err) }()

	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coord{}, fmt.Errorf("nominatim: empty address: %w", models.ErrNotFound)
	}

	u, err := url.Parse(n.Endpoint)
	if err != nil {
		return models.Coord{}, fmt.Errorf("nominatim: endpoint %q: %w: %w", n.Endpoint, models.ErrNetwork, err)
	}
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.Coord{}, fmt.Errorf("nominatim: build request: %w: %w", models.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", n.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return models.Coord{}, fmt.Errorf("nominatim: do request: %w: %w", models.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Coord{}, fmt.Errorf("nominatim: status %d: %w", resp.StatusCode, models.ErrNetwork)
	}

	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coord{}, fmt.Errorf("nominatim: decode response: %w: %w", models.ErrNetwork, err)
	}
	if len(out) == 0 {
		return models.Coord{}, fmt.Errorf("nominatim: %q: %w", address, models.ErrNotFound)
	}

	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return models.Coord{}, fmt.Errorf("nominatim: parse lat %q: %w: %w", out[0].Lat, models.ErrNetwork, err)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return models.Coord{}, fmt.Errorf("nominatim: parse lon %q: %w: %w", out[0].Lon, models.ErrNetwork, err)
	}
	return models.Coord{Lat: lat, Lon: lon}, nil
}
