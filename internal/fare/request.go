// Package fare assembles ride requests and queries the remote fare
// prediction service.
package fare

import (
	"time"

	"github.com/example/taxifare/internal/models"
)

// DatetimeLayout is the pickup_datetime format the prediction service accepts.
const DatetimeLayout = "2006-01-02 15:04:05"

// PickupDatetime joins the calendar date of date with the wall clock of clock.
func PickupDatetime(date, clock time.Time) string {
	y, m, d := date.Date()
	hh, mm, ss := clock.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC).Format(DatetimeLayout)
}

// Build returns the request for a complete pair. ok is false when either side
// is unresolved, in which case nothing should be submitted.
func Build(pickup, dropoff *models.Coord, pickupDatetime string, passengers int) (r models.RideRequest, ok bool) {
	if pickup == nil || dropoff == nil {
		return models.RideRequest{}, false
	}
	return models.RideRequest{
		PickupDatetime: pickupDatetime,
		Pickup:         *pickup,
		Dropoff:        *dropoff,
		PassengerCount: passengers,
	}, true
}
