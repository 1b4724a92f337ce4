// Package geocode resolves free-text addresses to coordinates through a remote
// lookup service. Each call is independent: no retry, no caching.
package geocode

import (
	"context"
	"errors"

	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/observability"
)

// Geocoder is implemented by every lookup backend.
//
// Resolve returns the first candidate's coordinates. It fails with
// models.ErrNotFound when the service has no candidate and with
// models.ErrNetwork when the lookup could not complete.
type Geocoder interface {
	Name() string
	Resolve(ctx context.Context, address string) (models.Coord, error)
}

func record(provider string, err error) {
	observability.GeocodeRequests.WithLabelValues(provider, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, models.ErrNotFound):
		return observability.OutcomeNotFound
	default:
		return observability.OutcomeNetwork
	}
}
