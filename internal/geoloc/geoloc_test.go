package geoloc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_ReturnsConfiguredCoordinate(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	src := NewStatic(11.618044, 76.081180, 15)
	src.now = func() time.Time { return fixed }

	c, err := src.Position(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 11.618044, c.Lat)
	assert.Equal(t, 76.081180, c.Lon)
	assert.Equal(t, 15.0, c.AccuracyM)
	assert.Equal(t, fixed, c.CapturedAt)
}

func TestStatic_UnsupportedWhenUnconfigured(t *testing.T) {
	src := NewStatic(120, 76, 0) // out of range
	_, err := src.Position(context.Background(), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, KindUnsupported, KindOf(err))
}

func TestCommand_ParsesFix(t *testing.T) {
	src := NewCommand("sh", "-c", `echo '{"latitude":11.618044,"longitude":76.08118,"accuracy":8.2}'`)
	c, err := src.Position(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 11.618044, c.Lat)
	assert.Equal(t, 76.08118, c.Lon)
	assert.Equal(t, 8.2, c.AccuracyM)
	assert.False(t, c.CapturedAt.IsZero())
}

func TestCommand_UnsupportedWhenNotConfigured(t *testing.T) {
	var src *Command
	_, err := src.Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindUnsupported, KindOf(err))

	_, err = NewCommand("  ").Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindUnsupported, KindOf(err))
}

func TestCommand_UnsupportedWhenMissingBinary(t *testing.T) {
	src := NewCommand("definitely-not-a-real-locator-binary")
	_, err := src.Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindUnsupported, KindOf(err))
}

func TestCommand_PermissionDeniedExitCode(t *testing.T) {
	src := NewCommand("sh", "-c", "exit 3")
	_, err := src.Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindPermissionDenied, KindOf(err))
}

func TestCommand_GenericFailureIsPositionUnavailable(t *testing.T) {
	src := NewCommand("sh", "-c", "exit 1")
	_, err := src.Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindPositionUnavailable, KindOf(err))
}

func TestCommand_MalformedOutput(t *testing.T) {
	src := NewCommand("sh", "-c", "echo not-json")
	_, err := src.Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindPositionUnavailable, KindOf(err))
}

func TestCommand_OutOfRangeFix(t *testing.T) {
	src := NewCommand("sh", "-c", `echo '{"latitude":99,"longitude":0}'`)
	_, err := src.Position(context.Background(), DefaultOptions())
	assert.Equal(t, KindPositionUnavailable, KindOf(err))
}

func TestCommand_Timeout(t *testing.T) {
	src := NewCommand("sleep", "5")
	opts := Options{HighAccuracy: true, Timeout: 50 * time.Millisecond}
	_, err := src.Position(context.Background(), opts)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestCommand_RejectsCachedFixOlderThanMaxAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	src := NewCommand("sh", "-c",
		`echo '{"latitude":11.6,"longitude":76.08,"timestamp":"2025-06-01T09:00:00Z"}'`)
	src.now = func() time.Time { return now }

	opts := DefaultOptions()
	opts.MaxAge = 30 * time.Minute
	_, err := src.Position(context.Background(), opts)
	assert.Equal(t, KindPositionUnavailable, KindOf(err))

	// A wide enough window accepts the same fix and keeps its stamp.
	opts.MaxAge = 2 * time.Hour
	c, err := src.Position(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), c.CapturedAt.UTC())
}

func TestErrorMessagesAreDistinctPerKind(t *testing.T) {
	msgs := map[Kind]string{}
	for _, err := range []*Error{
		newError(KindUnsupported, "no locator is configured on this device", nil),
		newError(KindPermissionDenied, "location permission was denied", nil),
		newError(KindPositionUnavailable, "the device could not determine its position", nil),
		newError(KindTimeout, "timed out waiting for a location fix", nil),
	} {
		msgs[err.Kind] = err.Message
	}
	require.Len(t, msgs, 4)
	seen := map[string]bool{}
	for _, m := range msgs {
		assert.False(t, seen[m])
		seen[m] = true
	}
}
