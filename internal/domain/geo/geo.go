package geo

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const earthRadiusKm = 6371 // Earth radius in kilometers

// DefaultRadiusKm is the admission geofence radius: 100 meters.
const DefaultRadiusKm = 0.1

// DefaultMaxFixAge is how old a device fix may be before it is
// considered invalid for admission decisions.
const DefaultMaxFixAge = 5 * time.Minute

// Coordinate is a single device fix. It is immutable: a newer fix
// supersedes it, nothing mutates it in place.
type Coordinate struct {
	Lat        float64   `json:"latitude"`
	Lon        float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracy_m,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Stale reports whether the fix is older than maxAge at the given
// instant. maxAge <= 0 falls back to DefaultMaxFixAge.
func (c Coordinate) Stale(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxFixAge
	}
	return now.Sub(c.CapturedAt) > maxAge
}

// Valid reports whether lat/lon are finite and inside the WGS84 ranges.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceKm computes the great-circle distance between two points
// using the haversine formula.
//
// Non-finite input yields 0 rather than NaN so the result is always
// comparable and formattable. Callers that must distinguish "zero
// distance" from "malformed input" validate with Valid first; the
// capture controller does exactly that before admitting a punch-in.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if !finite(lat1) || !finite(lon1) || !finite(lat2) || !finite(lon2) {
		return 0
	}

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatKm renders a distance as a 3-decimal kilometer string. Audit
// payloads use this form ("0.000", "111.195").
func FormatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', 3, 64)
}

// FormatDistance renders a distance for display: meters below one
// kilometer, kilometers with two decimals otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.2f km", km)
}

// RadiusDecision is the outcome of a geofence admission check.
type RadiusDecision struct {
	WithinRadius bool
	Distance     string
}

// EvaluateRadius decides admission for a subject at distanceKm from the
// geofence center. thresholdKm <= 0 falls back to DefaultRadiusKm.
// The boundary is inclusive: exactly on the radius is within.
func EvaluateRadius(distanceKm, thresholdKm float64) RadiusDecision {
	if thresholdKm <= 0 {
		thresholdKm = DefaultRadiusKm
	}
	return RadiusDecision{
		WithinRadius: distanceKm <= thresholdKm,
		Distance:     FormatDistance(distanceKm),
	}
}

// DistanceResult is the derived distance between the captured fix and
// the selected firm. Recomputed whenever either side changes, never
// persisted.
type DistanceResult struct {
	Kilometers   float64
	Formatted    string
	WithinRadius bool
}
