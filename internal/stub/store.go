// Package stub backs the local development API server. It persists to
// a throwaway SQLite file (or :memory: in tests) and enforces the same
// policies the production backend does, most importantly the
// single-active-session rule.
package stub

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/geo"
	"github.com/fieldforce/punchkit-go/internal/domain/punch"
	"github.com/fieldforce/punchkit-go/internal/domain/user"
)

// Stub store errors
var (
	ErrActiveSessionExists = errors.New("an attendance session is already active")
	ErrSessionNotFound     = errors.New("attendance session not found")
	ErrSessionAlreadyEnded = errors.New("attendance session is already ended")
	ErrFirmNotFound        = errors.New("firm not found")
	ErrUserNotFound        = errors.New("user not found")
)

type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the stub database. Use ":memory:" for
// tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open stub database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate stub database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS firms (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL UNIQUE,
		latitude  REAL,
		longitude REAL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		firm_id    TEXT NOT NULL,
		firm_name  TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at   TEXT,
		latitude   REAL NOT NULL,
		longitude  REAL NOT NULL,
		photo_ref  TEXT NOT NULL,
		photo_url  TEXT NOT NULL,
		distance   TEXT,
		status     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions(ended_at);

	CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		role             TEXT NOT NULL,
		allowed_menu_ids TEXT NOT NULL DEFAULT '[]'
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Seed inserts demo firms and users when the store is empty.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM firms`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	firms := []struct {
		name     string
		lat, lon *float64
	}{
		{"Marigold Traders", ptr(11.618044), ptr(76.081180)},
		{"Hillside Stores", ptr(11.604500), ptr(76.083200)},
		{"No Fence & Co", nil, nil},
	}
	for _, f := range firms {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO firms (id, name, latitude, longitude) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), f.name, f.lat, f.lon); err != nil {
			return err
		}
	}

	users := []struct {
		name string
		role user.Role
		ids  []string
	}{
		{"Asha", user.RoleAdmin, []string{"mnu-dashboard", "mnu-ledgers-cash", "mnu-ledgers-bank", "mnu-settings-users", "mnu-settings-menus"}},
		{"Ravi", user.RoleField, []string{"mnu-dashboard", "mnu-field-punchin", "mnu-field-visits"}},
	}
	for _, u := range users {
		raw, _ := json.Marshal(u.ids)
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, name, role, allowed_menu_ids) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), u.name, string(u.role), string(raw)); err != nil {
			return err
		}
	}
	return nil
}

func ptr(v float64) *float64 { return &v }

// Firms lists every firm as a raw API record.
func (s *Store) Firms(ctx context.Context) ([]firm.APIRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, latitude, longitude FROM firms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []firm.APIRecord
	for rows.Next() {
		var rec firm.APIRecord
		if err := rows.Scan(&rec.ID, &rec.FirmName, &rec.Latitude, &rec.Longitude); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SetFirmLocation sets a firm's geofence center by name.
func (s *Store) SetFirmLocation(ctx context.Context, name string, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE firms SET latitude = ?, longitude = ? WHERE name = ?`, lat, lon, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFirmNotFound
	}
	return nil
}

// ActiveSession returns the open session, or nil when there is none.
func (s *Store) ActiveSession(ctx context.Context) (*punch.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, firm_id, firm_name, started_at, ended_at, latitude, longitude, photo_ref, photo_url, status
		FROM sessions WHERE ended_at IS NULL LIMIT 1`)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// CreateSession records a punch-in, enforcing the single-active-session
// policy.
func (s *Store) CreateSession(ctx context.Context, payload punch.PunchInPayload) (punch.Session, error) {
	active, err := s.ActiveSession(ctx)
	if err != nil {
		return punch.Session{}, err
	}
	if active != nil {
		return punch.Session{}, ErrActiveSessionExists
	}

	sess := punch.Session{
		ID:        uuid.NewString(),
		FirmID:    payload.CustomerCode,
		FirmName:  payload.CustomerName,
		StartedAt: time.Now().UTC(),
		StartCoordinate: geo.Coordinate{
			Lat:        payload.Latitude,
			Lon:        payload.Longitude,
			CapturedAt: time.Now().UTC(),
		},
		PhotoRef: payload.Image,
		PhotoURL: "http://localhost/uploads/" + payload.Image,
		Status:   punch.StatusPending,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, firm_id, firm_name, started_at, ended_at, latitude, longitude, photo_ref, photo_url, distance, status)
		VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.FirmID, sess.FirmName, sess.StartedAt.Format(time.RFC3339Nano),
		sess.StartCoordinate.Lat, sess.StartCoordinate.Lon, sess.PhotoRef, sess.PhotoURL,
		payload.Distance, string(sess.Status))
	if err != nil {
		return punch.Session{}, err
	}
	return sess, nil
}

// EndSession closes a session.
func (s *Store) EndSession(ctx context.Context, id string) error {
	var endedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT ended_at FROM sessions WHERE id = ?`, id).Scan(&endedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	if endedAt.Valid {
		return ErrSessionAlreadyEnded
	}
	_, err = s.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), id)
	return err
}

// Users lists every user with their menu allow-list.
func (s *Store) Users(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role, allowed_menu_ids FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		var u user.User
		var rawIDs string
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &rawIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rawIDs), &u.AllowedMenuIDs); err != nil {
			u.AllowedMenuIDs = nil
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateAllowedMenuIDs replaces a user's menu allow-list.
func (s *Store) UpdateAllowedMenuIDs(ctx context.Context, userID string, menuIDs []string) error {
	raw, err := json.Marshal(menuIDs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET allowed_menu_ids = ? WHERE id = ?`, string(raw), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*punch.Session, error) {
	var sess punch.Session
	var startedAt string
	var endedAt sql.NullString
	var status string
	if err := row.Scan(&sess.ID, &sess.FirmID, &sess.FirmName, &startedAt, &endedAt,
		&sess.StartCoordinate.Lat, &sess.StartCoordinate.Lon, &sess.PhotoRef, &sess.PhotoURL, &status); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt started_at: %w", err)
	}
	sess.StartedAt = ts
	sess.StartCoordinate.CapturedAt = ts
	if endedAt.Valid {
		ets, err := time.Parse(time.RFC3339Nano, endedAt.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt ended_at: %w", err)
		}
		sess.EndedAt = &ets
	}
	sess.Status = punch.SessionStatus(status)
	return &sess, nil
}
