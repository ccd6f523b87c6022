// punchctl is the field CLI: list firms, capture a geofenced position,
// punch in and out, and inspect menu access. It talks to the same API
// the mobile client does and keeps the same offline fallbacks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fieldforce/punchkit-go/internal/cache"
	"github.com/fieldforce/punchkit-go/internal/client"
	"github.com/fieldforce/punchkit-go/internal/config"
	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/menu"
	domainPunch "github.com/fieldforce/punchkit-go/internal/domain/punch"
	"github.com/fieldforce/punchkit-go/internal/geoloc"
	"github.com/fieldforce/punchkit-go/internal/service/capture"
	punchService "github.com/fieldforce/punchkit-go/internal/service/punch"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	app, err := newApp(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "firms":
		err = app.cmdFirms(ctx)
	case "capture":
		err = app.cmdCapture(ctx, os.Args[2:])
	case "punch-in":
		err = app.cmdPunchIn(ctx, os.Args[2:])
	case "punch-out":
		err = app.cmdPunchOut(ctx)
	case "status":
		err = app.cmdStatus(ctx)
	case "menu":
		err = app.cmdMenu(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: punchctl <command> [flags]

commands:
  firms       list firms and their geofence state
  capture     capture a position against a firm's geofence
  punch-in    start an attendance session
  punch-out   close the active attendance session
  status      show the session state
  menu        show the menu tree a user is allowed to see`)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	api        *client.Client
	firmsCache *cache.Firms
	punchCtl   *punchService.Controller
	source     geoloc.PositionSource
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	api := client.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)

	firmsCache, err := cache.NewFirms(cfg.Cache.Dir, cache.DefaultFirmsTTL)
	if err != nil {
		return nil, err
	}
	sessionCache, err := cache.NewFile(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}

	punchCtl := punchService.New(api, sessionCache, punchService.Config{
		RadiusKm:  cfg.RadiusKm(),
		MaxFixAge: cfg.Capture.MaxFixAge,
		Logger:    logger,
	})

	return &app{
		cfg:        cfg,
		logger:     logger,
		api:        api,
		firmsCache: firmsCache,
		punchCtl:   punchCtl,
		source:     newSource(cfg),
	}, nil
}

// newSource picks the position source: an external locator command when
// configured, a fixed coordinate otherwise. With neither, every capture
// fails as unsupported.
func newSource(cfg *config.Config) geoloc.PositionSource {
	if cfg.Capture.LocatorCmd != "" {
		parts := strings.Fields(cfg.Capture.LocatorCmd)
		return geoloc.NewCommand(parts[0], parts[1:]...)
	}
	if cfg.Capture.StaticLat != nil && cfg.Capture.StaticLon != nil {
		return geoloc.NewStatic(*cfg.Capture.StaticLat, *cfg.Capture.StaticLon, 15)
	}
	return geoloc.Unsupported{}
}

// firms returns the firm list, falling back to the cache when the API
// is unreachable.
func (a *app) firms(ctx context.Context) ([]firm.Firm, bool, error) {
	records, err := a.api.FirmRecords(ctx)
	if err == nil {
		if werr := a.firmsCache.Write(records); werr != nil {
			a.logger.Warn("failed to refresh firms cache", "error", werr)
		}
		firms := make([]firm.Firm, 0, len(records))
		for _, rec := range records {
			firms = append(firms, firm.FromAPI(rec))
		}
		return firms, false, nil
	}

	a.logger.Warn("firm list fetch failed, falling back to cache", "error", err)
	cached, cerr := a.firmsCache.Read()
	if cerr != nil {
		return nil, false, fmt.Errorf("firm list unavailable: %w", err)
	}
	return cached, true, nil
}

func (a *app) findFirm(ctx context.Context, name string) (firm.Firm, error) {
	firms, _, err := a.firms(ctx)
	if err != nil {
		return firm.Firm{}, err
	}
	for _, f := range firms {
		if strings.EqualFold(f.DisplayName, name) || f.ID == name {
			return f, nil
		}
	}
	return firm.Firm{}, fmt.Errorf("no firm named %q", name)
}

func (a *app) cmdFirms(ctx context.Context) error {
	firms, offline, err := a.firms(ctx)
	if err != nil {
		return err
	}
	if offline {
		fmt.Println("(offline: served from cache)")
	}
	for _, f := range firms {
		fence := "no geofence"
		if f.HasGeofence() {
			fence = fmt.Sprintf("geofence %.6f,%.6f", *f.Lat, *f.Lon)
		}
		fmt.Printf("%-36s  %-24s  %s\n", f.ID, f.DisplayName, fence)
	}
	return nil
}

// capture runs one position acquisition against the firm's geofence and
// returns the settled state.
func (a *app) capture(ctx context.Context, f firm.Firm) (capture.State, error) {
	ctl := capture.New(a.source, capture.Config{
		RadiusKm:  a.cfg.RadiusKm(),
		MaxFixAge: a.cfg.Capture.MaxFixAge,
		Logger:    a.logger,
	})
	ctl.SetFirm(f)
	ctl.GetLocation(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return ctl.Await(waitCtx)
}

func (a *app) cmdCapture(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	firmName := fs.String("firm", "", "firm name or ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *firmName == "" {
		return errors.New("-firm is required")
	}

	f, err := a.findFirm(ctx, *firmName)
	if err != nil {
		return err
	}

	st, err := a.capture(ctx, f)
	if err != nil {
		return err
	}
	if st.Err != nil {
		return fmt.Errorf("position capture failed: %w", st.Err)
	}

	fmt.Printf("position: %.6f,%.6f (accuracy %.0f m)\n", st.Coordinate.Lat, st.Coordinate.Lon, st.Coordinate.AccuracyM)
	switch {
	case st.NoGeofence:
		fmt.Println("firm has no geofence: admission passes without a distance check")
	case st.Distance != nil:
		verdict := "OUT OF RANGE"
		if st.Distance.WithinRadius {
			verdict = "within range"
		}
		fmt.Printf("distance to %s: %s (%s)\n", f.DisplayName, st.Distance.Formatted, verdict)
	}
	return nil
}

func (a *app) cmdPunchIn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("punch-in", flag.ExitOnError)
	firmName := fs.String("firm", "", "firm name or ID")
	photo := fs.String("photo", "", "photo reference to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *firmName == "" {
		return errors.New("-firm is required")
	}
	if *photo == "" {
		return errors.New("-photo is required")
	}

	snap := a.punchCtl.Resolve(ctx)
	if snap.State == domainPunch.StatePunchedIn {
		return fmt.Errorf("%w (session %s at %s)", domainPunch.ErrAlreadyPunchedIn, snap.Active.ID, snap.Active.FirmName)
	}

	f, err := a.findFirm(ctx, *firmName)
	if err != nil {
		return err
	}

	st, err := a.capture(ctx, f)
	if err != nil {
		return err
	}
	if st.Err != nil {
		return fmt.Errorf("position capture failed: %w", st.Err)
	}

	sess, err := a.punchCtl.PunchIn(ctx, domainPunch.PunchInRequest{
		Firm:       f,
		PhotoRef:   *photo,
		Coordinate: st.Coordinate,
	})
	if err != nil {
		return err
	}

	fmt.Printf("punched in at %s (session %s, status %s)\n", sess.FirmName, sess.ID, sess.Status)
	return nil
}

func (a *app) cmdPunchOut(ctx context.Context) error {
	snap := a.punchCtl.Resolve(ctx)
	if snap.State != domainPunch.StatePunchedIn || snap.Active == nil {
		return domainPunch.ErrNotPunchedIn
	}
	if err := a.punchCtl.PunchOut(ctx, snap.Active.ID); err != nil {
		return err
	}
	fmt.Printf("punched out of %s (session %s)\n", snap.Active.FirmName, snap.Active.ID)
	return nil
}

func (a *app) cmdStatus(ctx context.Context) error {
	snap := a.punchCtl.Resolve(ctx)
	if snap.Offline {
		fmt.Println("(offline: state derived from local cache)")
	}
	if snap.State == domainPunch.StatePunchedIn && snap.Active != nil {
		fmt.Printf("PUNCHED_IN at %s since %s (session %s, status %s)\n",
			snap.Active.FirmName, snap.Active.StartedAt.Format(time.RFC3339), snap.Active.ID, snap.Active.Status)
		return nil
	}
	fmt.Println("NOT_PUNCHED")
	return nil
}

func (a *app) cmdMenu(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu", flag.ExitOnError)
	userRef := fs.String("user", "", "user name or ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userRef == "" {
		return errors.New("-user is required")
	}

	users, err := a.api.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == *userRef || strings.EqualFold(u.Name, *userRef) {
			visible := menu.FilterByAllowedIDs(menu.Default(), u.AllowedMenuIDs)
			if len(visible) == 0 {
				fmt.Printf("%s sees no menus\n", u.Name)
				return nil
			}
			fmt.Printf("menus visible to %s (%s):\n", u.Name, u.Role)
			printMenu(visible, 1)
			return nil
		}
	}
	return fmt.Errorf("no user named %q", *userRef)
}

func printMenu(nodes []menu.Node, depth int) {
	for _, n := range nodes {
		fmt.Printf("%s%s", strings.Repeat("  ", depth), n.Label)
		if n.Route != "" {
			fmt.Printf("  (%s)", n.Route)
		}
		fmt.Println()
		printMenu(n.Children, depth+1)
	}
}
