package geoloc

import (
	"context"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/geo"
)

// Static reports a fixed configured coordinate, stamped at call time.
// Used for kiosk installs and local development where the machine has
// no locator hardware.
type Static struct {
	Lat       float64
	Lon       float64
	AccuracyM float64
	now       func() time.Time
}

func NewStatic(lat, lon, accuracyM float64) *Static {
	return &Static{Lat: lat, Lon: lon, AccuracyM: accuracyM, now: time.Now}
}

// Unsupported is a source for machines with no locator at all. Every
// request fails with KindUnsupported.
type Unsupported struct{}

func (Unsupported) Position(ctx context.Context, opts Options) (geo.Coordinate, error) {
	return geo.Coordinate{}, newError(KindUnsupported, "no location source is available on this device", nil)
}

func (s *Static) Position(ctx context.Context, opts Options) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, newError(KindTimeout, "location request was cancelled", err)
	}
	if !geo.Valid(s.Lat, s.Lon) {
		return geo.Coordinate{}, newError(KindUnsupported, "no usable location is configured for this device", nil)
	}
	nowFn := s.now
	if nowFn == nil {
		nowFn = time.Now
	}
	return geo.Coordinate{
		Lat:        s.Lat,
		Lon:        s.Lon,
		AccuracyM:  s.AccuracyM,
		CapturedAt: nowFn(),
	}, nil
}
