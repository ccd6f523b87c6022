// Package punch tracks the attendance session lifecycle: resolving the
// authoritative state from the API (with the local cache as a degraded
// fallback), admitting punch-ins, and closing sessions.
package punch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/geo"
	"github.com/fieldforce/punchkit-go/internal/domain/punch"
)

// Snapshot is the consumer-facing session state. Offline marks that it
// was derived from the local cache because the API was unreachable, so
// the UI can show a degraded-mode indicator.
type Snapshot struct {
	State   punch.State
	Active  *punch.Session
	Offline bool
}

type Config struct {
	RadiusKm  float64       // 0 = geo.DefaultRadiusKm
	MaxFixAge time.Duration // 0 = geo.DefaultMaxFixAge
	Logger    *slog.Logger
	Now       func() time.Time
}

type Controller struct {
	api    punch.API
	cache  punch.CacheRepository
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   punch.State
	active  *punch.Session
	offline bool
}

func New(api punch.API, cache punch.CacheRepository, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		api:    api,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    now,
		state:  punch.StateNotPunched,
	}
}

// Resolve determines the session state: the API is authoritative; on
// API failure the cache answers in degraded mode; with neither, the
// user is not punched in. It never returns an error: a status-check
// failure is a mode, not a fault.
func (c *Controller) Resolve(ctx context.Context) Snapshot {
	status, err := c.api.ActiveStatus(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.offline = false
		if status.IsActive && status.Active != nil {
			c.state = punch.StatePunchedIn
			c.active = status.Active
			if werr := c.cache.Write(ctx, *status.Active); werr != nil {
				c.logger.Warn("failed to refresh session cache", "error", werr)
			}
		} else {
			c.state = punch.StateNotPunched
			c.active = nil
			if cerr := c.cache.Clear(ctx); cerr != nil {
				c.logger.Warn("failed to clear session cache", "error", cerr)
			}
		}
		return c.snapshotLocked()
	}

	c.logger.Warn("active-session check failed, falling back to cache", "error", err)
	c.offline = true

	cached, cerr := c.cache.Read(ctx)
	if cerr == nil && cached.Active() {
		c.state = punch.StatePunchedIn
		c.active = &cached
	} else {
		c.state = punch.StateNotPunched
		c.active = nil
	}
	return c.snapshotLocked()
}

// PunchIn admits and submits a punch-in. All preconditions are checked
// locally first; a violation never reaches the API.
func (c *Controller) PunchIn(ctx context.Context, req punch.PunchInRequest) (punch.Session, error) {
	c.mu.Lock()
	if c.state == punch.StatePunchedIn {
		c.mu.Unlock()
		return punch.Session{}, punch.ErrAlreadyPunchedIn
	}
	c.mu.Unlock()

	if err := req.Validate(); err != nil {
		return punch.Session{}, fmt.Errorf("%w: %s", punch.ErrPreconditionFailed, err)
	}

	distance := ""
	if req.Firm.HasGeofence() {
		// Defend locally even though the capture controller has already
		// evaluated admission: the API call is never issued out of range.
		if req.Coordinate.Stale(c.cfg.MaxFixAge, c.now()) {
			return punch.Session{}, fmt.Errorf("%w: the captured location is too old, refresh it", punch.ErrPreconditionFailed)
		}
		km := geo.DistanceKm(req.Coordinate.Lat, req.Coordinate.Lon, *req.Firm.Lat, *req.Firm.Lon)
		decision := geo.EvaluateRadius(km, c.cfg.RadiusKm)
		if !decision.WithinRadius {
			return punch.Session{}, fmt.Errorf("%w (%s away)", punch.ErrOutOfRange, decision.Distance)
		}
		distance = geo.FormatKm(km)
	}

	payload := punch.PunchInPayload{
		CustomerCode: req.Firm.ID,
		CustomerName: req.Firm.DisplayName,
		Image:        req.PhotoRef,
		Latitude:     req.Coordinate.Lat,
		Longitude:    req.Coordinate.Lon,
		Distance:     distance,
	}

	session, err := c.api.SubmitPunchIn(ctx, payload)
	if err != nil {
		return punch.Session{}, fmt.Errorf("punch-in submission failed: %w", err)
	}

	c.mu.Lock()
	c.state = punch.StatePunchedIn
	c.active = &session
	c.mu.Unlock()

	if werr := c.cache.Write(ctx, session); werr != nil {
		// The cache is a best-effort fallback; the punch-in stands.
		c.logger.Warn("failed to cache punched-in session", "error", werr)
	}

	return session, nil
}

// PunchOut closes the active session. On API failure the state stays
// PUNCHED_IN and the attempt is retryable; the transition is never
// assumed locally.
func (c *Controller) PunchOut(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.state != punch.StatePunchedIn {
		c.mu.Unlock()
		return punch.ErrNotPunchedIn
	}
	c.mu.Unlock()

	if err := c.api.SubmitPunchOut(ctx, sessionID); err != nil {
		return fmt.Errorf("punch-out submission failed: %w", err)
	}

	c.mu.Lock()
	c.state = punch.StateNotPunched
	c.active = nil
	c.mu.Unlock()

	if cerr := c.cache.Clear(ctx); cerr != nil {
		c.logger.Warn("failed to clear session cache", "error", cerr)
	}

	return nil
}

// Snapshot returns the current session state without consulting the
// API.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, Active: c.active, Offline: c.offline}
}
