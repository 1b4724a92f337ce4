package geo

import (
	"math"
	"testing"

	"github.com/example/taxifare/internal/models"
)

func TestHaversineZero(t *testing.T) {
	d := Haversine(0, 0, 0, 0)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Barclays Center to Madison Square Garden, roughly 7.7 km.
	d := Haversine(40.6826, -73.9754, 40.7505, -73.9934)
	if math.Abs(d-7700) > 300 {
		t.Fatalf("distance = %f m", d)
	}
}

func TestPickerMarkers(t *testing.T) {
	d := Defaults{Center: models.Coord{Lat: 40.7128, Lon: -74.0060}, Zoom: 13}

	empty := Picker(d, nil, nil)
	if len(empty.Markers) != 0 || empty.Center != d.Center || empty.Zoom != 13 {
		t.Fatalf("unexpected empty picker: %+v", empty)
	}

	drop := models.Coord{Lat: 30, Lon: 40}
	v := Picker(d, nil, &drop)
	if len(v.Markers) != 1 || v.Markers[0].Color != ColorDropoff || v.Markers[0].Popup != "Dropoff Location" {
		t.Fatalf("unexpected markers: %+v", v.Markers)
	}
}

func TestRoute(t *testing.T) {
	p := models.Coord{Lat: 40.7, Lon: -74.0}
	d := models.Coord{Lat: 40.75, Lon: -73.98}

	if _, ok := Route(13, &p, nil); ok {
		t.Fatal("route without dropoff must be absent")
	}

	v, ok := Route(13, &p, &d)
	if !ok {
		t.Fatal("expected route")
	}
	if math.Abs(v.Center.Lat-40.725) > 1e-9 || math.Abs(v.Center.Lon-(-73.99)) > 1e-9 {
		t.Fatalf("center = %v", v.Center)
	}
	if len(v.Markers) != 2 || v.Markers[0].Color != ColorPickup || v.Markers[1].Color != ColorDropoff {
		t.Fatalf("markers = %+v", v.Markers)
	}
	if len(v.Polylines) != 1 || v.Polylines[0].Color != ColorRoute || v.Polylines[0].Points[1] != d {
		t.Fatalf("polyline = %+v", v.Polylines)
	}
	if v.DistanceMeters <= 0 {
		t.Fatalf("distance = %f", v.DistanceMeters)
	}
}

func TestRouteSkipsUnplaceablePairs(t *testing.T) {
	for _, tc := range []struct {
		name string
		p, d models.Coord
	}{
		{"huge latitudes", models.Coord{Lat: 1e308, Lon: 1}, models.Coord{Lat: 1e308, Lon: 2}},
		{"opposite extremes", models.Coord{Lat: math.MaxFloat64, Lon: 0}, models.Coord{Lat: -math.MaxFloat64, Lon: 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if v, ok := Route(13, &tc.p, &tc.d); ok {
				t.Fatalf("expected no route, got %+v", v)
			}
		})
	}

	mid := Midpoint(models.Coord{Lat: 1e308}, models.Coord{Lat: 1e308})
	if mid.Lat != 1e308 {
		t.Fatalf("midpoint overflowed: %v", mid)
	}
}
