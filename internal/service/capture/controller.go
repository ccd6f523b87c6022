// Package capture orchestrates position acquisition against a selected
// firm: one controller per capture screen, driving the
// IDLE -> FETCHING -> RESOLVED | FAILED cycle and deriving the distance
// and admission decision from the latest committed fix.
package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/geo"
	"github.com/fieldforce/punchkit-go/internal/geoloc"
)

type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseFetching Phase = "FETCHING"
	PhaseResolved Phase = "RESOLVED"
	PhaseFailed   Phase = "FAILED"
)

// Accuracy circle display bounds in meters. Raw device accuracy can be
// sub-meter or kilometers wide; the circle stays readable either way.
const (
	minAccuracyRadiusM = 8
	maxAccuracyRadiusM = 100
)

// MarkerView is the attached map visualization. It receives the marker
// position and the clamped accuracy-circle radius on every resolve.
type MarkerView interface {
	ShowPosition(c geo.Coordinate, accuracyRadiusM float64)
}

// State is a snapshot of the capture attempt. Coordinate is the
// last-known-good fix: a failed refresh keeps it and only replaces the
// error.
type State struct {
	Phase      Phase
	Coordinate *geo.Coordinate
	Distance   *geo.DistanceResult
	// NoGeofence is set when the selected firm has no enforceable
	// geofence (none configured, or malformed stored coordinates).
	// Admission passes without a distance check in that case.
	NoGeofence bool
	Err        error
}

type Config struct {
	RadiusKm  float64       // 0 = geo.DefaultRadiusKm
	MaxFixAge time.Duration // 0 = geo.DefaultMaxFixAge
	Options   geoloc.Options
	Logger    *slog.Logger
}

type Controller struct {
	source geoloc.PositionSource
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	firm    *firm.Firm
	view    MarkerView
	state   State
	waiters []chan State
}

func New(source geoloc.PositionSource, cfg Config) *Controller {
	if cfg.Options == (geoloc.Options{}) {
		cfg.Options = geoloc.DefaultOptions()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source: source,
		cfg:    cfg,
		logger: logger,
		state:  State{Phase: PhaseIdle},
	}
}

// AttachView attaches the map visualization. If a fix is already
// committed the view is brought up to date immediately.
func (c *Controller) AttachView(v MarkerView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
	if v != nil && c.state.Coordinate != nil {
		v.ShowPosition(*c.state.Coordinate, clampAccuracy(c.state.Coordinate.AccuracyM))
	}
}

// SetFirm selects the reference firm and recomputes the distance from
// the committed fix. No new device request is issued.
func (c *Controller) SetFirm(f firm.Firm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.firm = &f
	c.recomputeLocked()
}

// GetLocation starts a capture attempt. A call while one is already in
// flight is a no-op, so the user cannot stack device prompts. Calling
// again from RESOLVED or FAILED restarts the cycle; the prior error is
// cleared, the prior coordinate is kept until a newer fix replaces it.
func (c *Controller) GetLocation(ctx context.Context) {
	c.mu.Lock()
	if c.state.Phase == PhaseFetching {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.state.Phase = PhaseFetching
	c.state.Err = nil
	opts := c.cfg.Options
	c.mu.Unlock()

	go func() {
		coord, err := c.source.Position(ctx, opts)
		c.commit(gen, coord, err)
	}()
}

// commit applies a resolution if it still belongs to the current
// request generation. Late resolutions from superseded requests are
// dropped: only the most recently initiated request is authoritative.
func (c *Controller) commit(gen uint64, coord geo.Coordinate, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("dropping stale position resolution", "gen", gen, "current", c.gen)
		return
	}

	if err != nil {
		c.state.Phase = PhaseFailed
		c.state.Err = err
		c.notifyLocked()
		return
	}

	c.state.Phase = PhaseResolved
	c.state.Coordinate = &coord
	c.recomputeLocked()
	if c.view != nil {
		c.view.ShowPosition(coord, clampAccuracy(coord.AccuracyM))
	}
	c.notifyLocked()
}

// Await blocks until the in-flight attempt settles and returns the
// resulting snapshot. With no attempt in flight it returns immediately.
func (c *Controller) Await(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Phase != PhaseFetching {
		st := c.state
		c.mu.Unlock()
		return st, nil
	}
	ch := make(chan State, 1)
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Reset tears the attempt down: any in-flight request is abandoned (a
// late resolution will be dropped by the generation guard) and the
// committed fix is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = State{Phase: PhaseIdle}
	c.recomputeLocked()
	c.notifyLocked()
}

// Snapshot returns the current capture state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Admitted reports whether the current state satisfies the geofence
// policy: a firm is selected and either it has no enforceable geofence,
// or a fresh fix inside the radius is committed.
func (c *Controller) Admitted(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firm == nil {
		return false
	}
	if !c.firm.HasGeofence() {
		return true
	}
	if c.state.Coordinate == nil || c.state.Coordinate.Stale(c.cfg.MaxFixAge, now) {
		return false
	}
	return c.state.Distance != nil && c.state.Distance.WithinRadius
}

func (c *Controller) recomputeLocked() {
	c.state.Distance = nil
	c.state.NoGeofence = false
	if c.firm == nil {
		return
	}
	if !c.firm.HasGeofence() {
		c.state.NoGeofence = true
		return
	}
	if c.state.Coordinate == nil {
		return
	}
	km := geo.DistanceKm(c.state.Coordinate.Lat, c.state.Coordinate.Lon, *c.firm.Lat, *c.firm.Lon)
	decision := geo.EvaluateRadius(km, c.cfg.RadiusKm)
	c.state.Distance = &geo.DistanceResult{
		Kilometers:   km,
		Formatted:    decision.Distance,
		WithinRadius: decision.WithinRadius,
	}
}

func (c *Controller) notifyLocked() {
	for _, ch := range c.waiters {
		ch <- c.state
	}
	c.waiters = nil
}

func clampAccuracy(m float64) float64 {
	if m < minAccuracyRadiusM {
		return minAccuracyRadiusM
	}
	if m > maxAccuracyRadiusM {
		return maxAccuracyRadiusM
	}
	return m
}
