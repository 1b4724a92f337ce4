package location

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/session"
)

// fakeGeocoder answers from a fixed table and counts calls.
type fakeGeocoder struct {
	known map[string]models.Coord
	fail  map[string]error
	calls []string
}

func (f *fakeGeocoder) Resolve(_ context.Context, address string) (models.Coord, error) {
	f.calls = append(f.calls, address)
	if err, ok := f.fail[address]; ok {
		return models.Coord{}, err
	}
	if c, ok := f.known[address]; ok {
		return c, nil
	}
	return models.Coord{}, models.ErrNotFound
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{known: map[string]models.Coord{
		"Barclays Center":       {Lat: 40.6826, Lon: -73.9754},
		"Madison Square Garden": {Lat: 40.7505, Lon: -73.9934},
	}}
}

func TestManualValuesFlowUnchanged(t *testing.T) {
	s := NewSelector(newFakeGeocoder(), nil)
	cases := []Manual{
		{},
		{PickupLat: 40.7, PickupLon: -74.0, DropoffLat: 40.75, DropoffLon: -73.98},
		{PickupLat: -1234.5, PickupLon: 1e9, DropoffLat: math.SmallestNonzeroFloat64, DropoffLon: -0.0},
	}
	for _, in := range cases {
		res, err := s.Resolve(context.Background(), in, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Pickup == nil || res.Dropoff == nil {
			t.Fatalf("manual input must always be present, got %+v", res)
		}
		if *res.Pickup != (models.Coord{Lat: in.PickupLat, Lon: in.PickupLon}) ||
			*res.Dropoff != (models.Coord{Lat: in.DropoffLat, Lon: in.DropoffLon}) {
			t.Fatalf("values changed: in %+v, got %v / %v", in, res.Pickup, res.Dropoff)
		}
	}
}

func TestAddressBothResolve(t *testing.T) {
	g := newFakeGeocoder()
	s := NewSelector(g, nil)
	res, err := s.Resolve(context.Background(), Address{Pickup: "Barclays Center", Dropoff: "Madison Square Garden"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *res.Pickup != g.known["Barclays Center"] || *res.Dropoff != g.known["Madison Square Garden"] {
		t.Fatalf("got %v / %v", res.Pickup, res.Dropoff)
	}
	if len(g.calls) != 2 || g.calls[0] != "Barclays Center" {
		t.Fatalf("expected pickup then dropoff lookup, got %v", g.calls)
	}
	if len(res.Notes) != 2 || !strings.HasPrefix(res.Notes[0], "Pickup coordinates: 40.6826") {
		t.Fatalf("notes = %v", res.Notes)
	}
}

func TestAddressEmptySkipsLookup(t *testing.T) {
	for _, in := range []Address{
		{Pickup: "", Dropoff: "Madison Square Garden"},
		{Pickup: "Barclays Center", Dropoff: "   "},
		{},
	} {
		g := newFakeGeocoder()
		res, err := NewSelector(g, nil).Resolve(context.Background(), in, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Pickup != nil || res.Dropoff != nil {
			t.Fatalf("expected both absent for %+v, got %+v", in, res)
		}
		if len(g.calls) != 0 {
			t.Fatalf("expected no lookups for %+v, got %v", in, g.calls)
		}
	}
}

func TestAddressPartialFailure(t *testing.T) {
	g := newFakeGeocoder()
	g.fail = map[string]error{"Madison Square Garden": models.ErrNetwork}
	res, err := NewSelector(g, nil).Resolve(context.Background(), Address{Pickup: "Barclays Center", Dropoff: "Madison Square Garden"}, nil)
	if !errors.Is(err, models.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	var aerr *AddressError
	if !errors.As(err, &aerr) || aerr.Role != models.RoleDropoff || aerr.Address != "Madison Square Garden" {
		t.Fatalf("expected dropoff AddressError, got %v", err)
	}
	if res.Pickup == nil || res.Dropoff != nil {
		t.Fatalf("expected pickup resolved and dropoff absent, got %v / %v", res.Pickup, res.Dropoff)
	}
	if len(g.calls) != 2 {
		t.Fatalf("both sides must be looked up, got %v", g.calls)
	}
}

func TestAddressBothFail(t *testing.T) {
	g := newFakeGeocoder()
	res, err := NewSelector(g, nil).Resolve(context.Background(), Address{Pickup: "Atlantis", Dropoff: "El Dorado"}, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "Atlantis") || !strings.Contains(err.Error(), "El Dorado") {
		t.Fatalf("error should name both addresses: %v", err)
	}
	if res.Pickup != nil || res.Dropoff != nil {
		t.Fatalf("expected both absent, got %+v", res)
	}
}

func TestMapClickLastWritePerRoleWins(t *testing.T) {
	s := NewSelector(newFakeGeocoder(), nil)
	stored := &session.Coordinates{}
	clicks := []MapClick{
		{Role: models.RolePickup, Click: &models.Coord{Lat: 10, Lon: 20}},
		{Role: models.RoleDropoff, Click: &models.Coord{Lat: 30, Lon: 40}},
		{Role: models.RolePickup, Click: &models.Coord{Lat: 15, Lon: 25}},
	}
	var res Result
	for _, c := range clicks {
		var err error
		res, err = s.Resolve(context.Background(), c, stored)
		if err != nil {
			t.Fatalf("click %+v: %v", c, err)
		}
		if res.Click == nil || res.Click.Role != c.Role || res.Click.At != *c.Click {
			t.Fatalf("click %+v not applied: %+v", c, res.Click)
		}
	}
	if *stored.Pickup != (models.Coord{Lat: 15, Lon: 25}) || *stored.Dropoff != (models.Coord{Lat: 30, Lon: 40}) {
		t.Fatalf("stored = %v / %v", stored.Pickup, stored.Dropoff)
	}
	if *res.Pickup != *stored.Pickup || *res.Dropoff != *stored.Dropoff {
		t.Fatalf("result should mirror stored coordinates")
	}
	if res.Notes[0] != "Pickup coordinates set to: (15, 25)" {
		t.Fatalf("note = %q", res.Notes[0])
	}
}

func TestMapClickPersistsAcrossModeSwitch(t *testing.T) {
	s := NewSelector(newFakeGeocoder(), nil)
	stored := &session.Coordinates{}
	ctx := context.Background()

	if _, err := s.Resolve(ctx, MapClick{Role: models.RolePickup, Click: &models.Coord{Lat: 1, Lon: 2}}, stored); err != nil {
		t.Fatal(err)
	}
	manual, err := s.Resolve(ctx, Manual{PickupLat: 7, PickupLon: 8}, stored)
	if err != nil {
		t.Fatal(err)
	}
	if *manual.Pickup != (models.Coord{Lat: 7, Lon: 8}) {
		t.Fatalf("manual mode must use its own fields, got %v", manual.Pickup)
	}

	back, err := s.Resolve(ctx, MapClick{Role: models.RoleDropoff}, stored)
	if err != nil {
		t.Fatal(err)
	}
	if back.Click != nil {
		t.Fatal("no click was sent")
	}
	if back.Pickup == nil || *back.Pickup != (models.Coord{Lat: 1, Lon: 2}) {
		t.Fatalf("pickup should be restored, got %v", back.Pickup)
	}
	if back.Dropoff != nil {
		t.Fatalf("dropoff never clicked, got %v", back.Dropoff)
	}
}

func TestMapClickRejectsOutOfRange(t *testing.T) {
	stored := &session.Coordinates{}
	pickup, dropoff := models.Coord{Lat: 1, Lon: 2}, models.Coord{Lat: 3, Lon: 4}
	stored.Set(models.RolePickup, pickup)
	stored.Set(models.RoleDropoff, dropoff)

	res, err := NewSelector(newFakeGeocoder(), nil).Resolve(context.Background(),
		MapClick{Role: models.RoleDropoff, Click: &models.Coord{Lat: 0, Lon: 200}}, stored)
	if !errors.Is(err, models.ErrInvalidCoordinate) {
		t.Fatalf("err = %v", err)
	}
	if *stored.Dropoff != dropoff {
		t.Fatalf("invalid click must not be stored, dropoff = %v", stored.Dropoff)
	}
	if res.Click != nil {
		t.Fatalf("rejected click reported as applied: %+v", res.Click)
	}
	if res.Pickup == nil || *res.Pickup != pickup || res.Dropoff == nil || *res.Dropoff != dropoff {
		t.Fatalf("stored pair should still be returned, got %v / %v", res.Pickup, res.Dropoff)
	}
}

func TestMapClickDefaultsToPickup(t *testing.T) {
	stored := &session.Coordinates{}
	if _, err := NewSelector(newFakeGeocoder(), nil).Resolve(context.Background(),
		MapClick{Click: &models.Coord{Lat: 3, Lon: 4}}, stored); err != nil {
		t.Fatal(err)
	}
	if stored.Pickup == nil {
		t.Fatal("click without role should set pickup")
	}
}

func TestResolveNilInput(t *testing.T) {
	if _, err := NewSelector(newFakeGeocoder(), nil).Resolve(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil input")
	}
}
