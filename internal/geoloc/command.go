package geoloc

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/geo"
)

// Locator commands signal permission problems with this exit code
// (termux-location and our wrapper scripts follow it).
const permissionDeniedExit = 3

// Command shells out to an external locator program (gpspipe,
// termux-location, a CoreLocation helper script) and parses a single
// JSON fix from its stdout:
//
//	{"latitude": 11.618044, "longitude": 76.081180, "accuracy": 12.5,
//	 "timestamp": "2025-06-01T09:30:00Z"}
//
// timestamp is optional; a fix without one counts as captured now.
type Command struct {
	Path string
	Args []string

	// HighAccuracyArg, when set, is appended for requests that ask for
	// a high-accuracy fix.
	HighAccuracyArg string

	now func() time.Time
}

func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args, now: time.Now}
}

type commandFix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp string  `json:"timestamp"`
}

func (c *Command) Position(ctx context.Context, opts Options) (geo.Coordinate, error) {
	opts = opts.withDefaults()

	if c == nil || strings.TrimSpace(c.Path) == "" {
		return geo.Coordinate{}, newError(KindUnsupported, "no locator is configured on this device", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	args := c.Args
	if opts.HighAccuracy && c.HighAccuracyArg != "" {
		args = append(append([]string(nil), args...), c.HighAccuracyArg)
	}

	out, err := exec.CommandContext(ctx, c.Path, args...).Output()
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return geo.Coordinate{}, newError(KindTimeout, "timed out waiting for a location fix", err)
		case errors.Is(ctx.Err(), context.Canceled):
			return geo.Coordinate{}, newError(KindTimeout, "the location request was cancelled", err)
		case errors.Is(err, exec.ErrNotFound):
			return geo.Coordinate{}, newError(KindUnsupported, "the locator program is not installed", err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == permissionDeniedExit {
			return geo.Coordinate{}, newError(KindPermissionDenied, "location permission was denied", err)
		}
		return geo.Coordinate{}, newError(KindPositionUnavailable, "the device could not determine its position", err)
	}

	var fix commandFix
	if err := json.Unmarshal(out, &fix); err != nil {
		return geo.Coordinate{}, newError(KindPositionUnavailable, "the locator returned a malformed fix", err)
	}
	if !geo.Valid(fix.Latitude, fix.Longitude) {
		return geo.Coordinate{}, newError(KindPositionUnavailable, "the locator returned an out-of-range fix", nil)
	}

	nowFn := c.now
	if nowFn == nil {
		nowFn = time.Now
	}
	capturedAt := nowFn()
	if fix.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, fix.Timestamp)
		if err != nil {
			return geo.Coordinate{}, newError(KindPositionUnavailable, "the locator returned a malformed fix", err)
		}
		// MaxAge > 0 lets the caller accept a cached fix up to that
		// age. Zero means fresh-only, and a fresh invocation of the
		// locator satisfies that by construction.
		if opts.MaxAge > 0 && capturedAt.Sub(ts) > opts.MaxAge {
			return geo.Coordinate{}, newError(KindPositionUnavailable, "only a stale cached fix is available", nil)
		}
		capturedAt = ts
	}

	return geo.Coordinate{
		Lat:        fix.Latitude,
		Lon:        fix.Longitude,
		AccuracyM:  fix.Accuracy,
		CapturedAt: capturedAt,
	}, nil
}
