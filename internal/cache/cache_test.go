package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/geo"
	"github.com/fieldforce/punchkit-go/internal/domain/punch"
)

func sampleSession() punch.Session {
	return punch.Session{
		ID:        "ses-1",
		FirmID:    "frm-1",
		FirmName:  "Marigold Traders",
		StartedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		StartCoordinate: geo.Coordinate{
			Lat: 11.618044, Lon: 76.081180, AccuracyM: 12,
			CapturedAt: time.Date(2025, 6, 1, 9, 29, 50, 0, time.UTC),
		},
		PhotoRef: "visit-001.jpg",
		Status:   punch.StatusPending,
	}
}

func TestMemory_ReadWriteClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Read(ctx)
	assert.ErrorIs(t, err, punch.ErrCacheMiss)

	require.NoError(t, m.Write(ctx, sampleSession()))
	got, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ses-1", got.ID)

	require.NoError(t, m.Clear(ctx))
	_, err = m.Read(ctx)
	assert.ErrorIs(t, err, punch.ErrCacheMiss)
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	_, err = f.Read(ctx)
	assert.ErrorIs(t, err, punch.ErrCacheMiss)

	want := sampleSession()
	require.NoError(t, f.Write(ctx, want))

	got, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.StartCoordinate.Lat, got.StartCoordinate.Lat)
	assert.True(t, got.Active())

	// Last writer wins, no merge.
	closed := want
	ended := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)
	closed.EndedAt = &ended
	require.NoError(t, f.Write(ctx, closed))
	got, err = f.Read(ctx)
	require.NoError(t, err)
	assert.False(t, got.Active())

	require.NoError(t, f.Clear(ctx))
	_, err = f.Read(ctx)
	assert.ErrorIs(t, err, punch.ErrCacheMiss)

	// Clearing twice is fine.
	require.NoError(t, f.Clear(ctx))
}

func TestFile_CorruptEntryReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "active_punch_in.json"), []byte("{torn"), 0o600))
	_, err = f.Read(ctx)
	assert.ErrorIs(t, err, punch.ErrCacheMiss)
}

func TestFirms_TTL(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFirms(dir, 5*time.Minute)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	_, err = c.Read()
	assert.ErrorIs(t, err, punch.ErrCacheMiss)

	lat, lon := 11.618044, 76.081180
	require.NoError(t, c.Write([]firm.APIRecord{
		{ID: "frm-1", FirmName: "Marigold Traders", Latitude: &lat, Longitude: &lon},
		{ID: "frm-2", Name: "No Fence & Co"},
	}))

	now = base.Add(4 * time.Minute)
	firms, err := c.Read()
	require.NoError(t, err)
	require.Len(t, firms, 2)
	assert.Equal(t, "Marigold Traders", firms[0].DisplayName)
	assert.True(t, firms[0].HasGeofence())
	assert.False(t, firms[1].HasGeofence())

	now = base.Add(6 * time.Minute)
	_, err = c.Read()
	assert.ErrorIs(t, err, punch.ErrCacheMiss)
}
