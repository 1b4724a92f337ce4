package fare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/observability"
)

// PredictionClient asks a taxifare prediction HTTP server for a fare.
type PredictionClient struct {
	Endpoint string
	Client   *http.Client
}

func NewPredictionClient(endpoint string, timeout time.Duration) *PredictionClient {
	return &PredictionClient{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

// Query encodes r as the six parameters the service reads.
func Query(r models.RideRequest) url.Values {
	q := url.Values{}
	q.Set("pickup_datetime", r.PickupDatetime)
	q.Set("pickup_longitude", formatFloat(r.Pickup.Lon))
	q.Set("pickup_latitude", formatFloat(r.Pickup.Lat))
	q.Set("dropoff_longitude", formatFloat(r.Dropoff.Lon))
	q.Set("dropoff_latitude", formatFloat(r.Dropoff.Lat))
	q.Set("passenger_count", strconv.Itoa(r.PassengerCount))
	return q
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Predict issues one GET /predict and returns the fare field of the reply.
func (p *PredictionClient) Predict(ctx context.Context, r models.RideRequest) (fare float64, err error) {
	start := time.Now()
	defer func() {
		observability.PredictionLatency.Observe(time.Since(start).Seconds())
		observability.PredictionRequests.WithLabelValues(outcome(err)).Inc()
	}()

	u, err := url.Parse(p.Endpoint)
	if err != nil {
		return 0, fmt.Errorf("predict: endpoint %q: %w: %w", p.Endpoint, models.ErrNetwork, err)
	}
	u.RawQuery = Query(r).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("predict: build request: %w: %w", models.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict: do request: %w: %w", models.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predict: status %d: %w", resp.StatusCode, models.ErrService)
	}

	var out struct {
		Fare *float64 `json:"fare"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("predict: decode response: %w: %w", models.ErrMalformedResponse, err)
	}
	if out.Fare == nil {
		return 0, fmt.Errorf("predict: no fare in response: %w", models.ErrMalformedResponse)
	}
	return *out.Fare, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, models.ErrService):
		return observability.OutcomeService
	case errors.Is(err, models.ErrMalformedResponse):
		return observability.OutcomeMalformed
	default:
		return observability.OutcomeNetwork
	}
}

// FormatFare renders a fare as dollars with two decimals, e.g. "$12.50".
func FormatFare(f float64) string {
	return fmt.Sprintf("$%.2f", f)
}
