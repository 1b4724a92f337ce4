package geo

import (
	"math"

	"github.com/example/taxifare/internal/models"
)

// Marker colors used by the presentation layer.
const (
	ColorPickup  = "green"
	ColorDropoff = "red"
	ColorRoute   = "blue"
)

type Marker struct {
	Position models.Coord `json:"position"`
	Popup    string       `json:"popup"`
	Color    string       `json:"color"`
}

type Polyline struct {
	Points []models.Coord `json:"points"`
	Color  string         `json:"color"`
}

// MapView is everything the presentation layer needs to draw one map.
type MapView struct {
	Center    models.Coord `json:"center"`
	Zoom      int          `json:"zoom"`
	Markers   []Marker     `json:"markers"`
	Polylines []Polyline   `json:"polylines,omitempty"`
	// DistanceMeters is the great-circle length of the route, when one is drawn.
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

// Defaults is the initial camera of the picker map.
type Defaults struct {
	Center models.Coord
	Zoom   int
}

func pickupMarker(c models.Coord) Marker {
	return Marker{Position: c, Popup: "Pickup Location", Color: ColorPickup}
}

func dropoffMarker(c models.Coord) Marker {
	return Marker{Position: c, Popup: "Dropoff Location", Color: ColorDropoff}
}

// Picker builds the click-to-select map: default camera plus a marker for each
// side already chosen.
func Picker(d Defaults, pickup, dropoff *models.Coord) MapView {
	v := MapView{Center: d.Center, Zoom: d.Zoom, Markers: []Marker{}}
	if pickup != nil {
		v.Markers = append(v.Markers, pickupMarker(*pickup))
	}
	if dropoff != nil {
		v.Markers = append(v.Markers, dropoffMarker(*dropoff))
	}
	return v
}

// Route builds the preview map for a complete pair: camera on the midpoint,
// both markers and a line between them. ok is false when a side is missing or
// the pair is too far out of range to place a camera or measure a distance.
func Route(zoom int, pickup, dropoff *models.Coord) (v MapView, ok bool) {
	if pickup == nil || dropoff == nil {
		return MapView{}, false
	}
	center := Midpoint(*pickup, *dropoff)
	dist := Haversine(pickup.Lat, pickup.Lon, dropoff.Lat, dropoff.Lon)
	if !finite(center.Lat) || !finite(center.Lon) || !finite(dist) {
		return MapView{}, false
	}
	return MapView{
		Center:         center,
		Zoom:           zoom,
		Markers:        []Marker{pickupMarker(*pickup), dropoffMarker(*dropoff)},
		Polylines:      []Polyline{{Points: []models.Coord{*pickup, *dropoff}, Color: ColorRoute}},
		DistanceMeters: dist,
	}, true
}

// Midpoint is the arithmetic mean of the two pairs, which is what the map
// camera centers on. It is not the geodesic midpoint.
func Midpoint(a, b models.Coord) models.Coord {
	return models.Coord{Lat: a.Lat/2 + b.Lat/2, Lon: a.Lon/2 + b.Lon/2}
}

func finite(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
