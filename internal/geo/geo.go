package geo

import (
	"context"
	"errors"
	"math"
	"time"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// LocationTimeout bounds a position lookup, matching the 10s limit the
// kiosk hardware imposes on a high-accuracy fix.
const LocationTimeout = 10 * time.Second

var ErrLocationUnavailable = errors.New("location unavailable")

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Point) IsZero() bool {
	return p.Latitude == 0 && p.Longitude == 0
}

// Locator produces the device's current position. Implementations must
// honor ctx cancellation; callers wrap lookups in LocationTimeout.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// FixedLocator reports a static position, used for kiosks installed at a
// known point and for tests.
type FixedLocator struct {
	Position Point
}

func (l FixedLocator) Locate(ctx context.Context) (Point, error) {
	if l.Position.IsZero() {
		return Point{}, ErrLocationUnavailable
	}
	return l.Position, nil
}

// Distance returns the great-circle distance between two points in meters.
func Distance(from, to Point) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
