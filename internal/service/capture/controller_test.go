package capture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/geo"
	"github.com/fieldforce/punchkit-go/internal/geoloc"
)

type fixResult struct {
	coord geo.Coordinate
	err   error
}

// scriptedSource hands each Position call to the test, which decides
// when and how it resolves.
type scriptedSource struct {
	mu    sync.Mutex
	calls int
	reqs  chan chan fixResult
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{reqs: make(chan chan fixResult, 8)}
}

func (s *scriptedSource) Position(ctx context.Context, _ geoloc.Options) (geo.Coordinate, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	done := make(chan fixResult, 1)
	s.reqs <- done
	select {
	case r := <-done:
		return r.coord, r.err
	case <-ctx.Done():
		return geo.Coordinate{}, ctx.Err()
	}
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedSource) next(t *testing.T) chan fixResult {
	t.Helper()
	select {
	case done := <-s.reqs:
		return done
	case <-time.After(time.Second):
		t.Fatal("no position request issued")
		return nil
	}
}

type recordingView struct {
	mu      sync.Mutex
	coords  []geo.Coordinate
	radiuses []float64
}

func (v *recordingView) ShowPosition(c geo.Coordinate, accuracyRadiusM float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.coords = append(v.coords, c)
	v.radiuses = append(v.radiuses, accuracyRadiusM)
}

func f64(v float64) *float64 { return &v }

func shopFirm() firm.Firm {
	return firm.Firm{ID: "frm-1", DisplayName: "Marigold Traders", Lat: f64(11.618044), Lon: f64(76.081180)}
}

func fixAt(lat, lon, acc float64) geo.Coordinate {
	return geo.Coordinate{Lat: lat, Lon: lon, AccuracyM: acc, CapturedAt: time.Now()}
}

func TestGetLocation_ResolveCommitsFixAndDistance(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})
	view := &recordingView{}
	ctrl.AttachView(view)
	ctrl.SetFirm(shopFirm())

	ctrl.GetLocation(context.Background())
	assert.Equal(t, PhaseFetching, ctrl.Snapshot().Phase)

	src.next(t) <- fixResult{coord: fixAt(11.618044, 76.081180, 12)}

	st, err := ctrl.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseResolved, st.Phase)
	require.NotNil(t, st.Coordinate)
	require.NotNil(t, st.Distance)
	assert.True(t, st.Distance.WithinRadius)
	assert.Equal(t, "0 m", st.Distance.Formatted)
	assert.True(t, ctrl.Admitted(time.Now()))

	require.Len(t, view.coords, 1)
	assert.Equal(t, 12.0, view.radiuses[0])
}

func TestGetLocation_NoOpWhileFetching(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})

	ctrl.GetLocation(context.Background())
	ctrl.GetLocation(context.Background())
	ctrl.GetLocation(context.Background())

	src.next(t) <- fixResult{coord: fixAt(11.6, 76.08, 10)}
	_, err := ctrl.Await(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, src.callCount())
}

func TestGetLocation_FailureKeepsLastKnownGoodFix(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})
	ctrl.SetFirm(shopFirm())

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: fixAt(11.618044, 76.081180, 9)}
	st, err := ctrl.Await(context.Background())
	require.NoError(t, err)
	good := st.Coordinate

	// Refresh fails; the banner shows the error, the fix stays.
	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{err: context.DeadlineExceeded}
	st, err = ctrl.Await(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Error(t, st.Err)
	assert.Equal(t, good, st.Coordinate)
	require.NotNil(t, st.Distance)
	assert.True(t, st.Distance.WithinRadius)
}

func TestGetLocation_RefreshClearsPriorError(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{err: context.DeadlineExceeded}
	st, _ := ctrl.Await(context.Background())
	require.Error(t, st.Err)

	ctrl.GetLocation(context.Background())
	assert.NoError(t, ctrl.Snapshot().Err)
	src.next(t) <- fixResult{coord: fixAt(11.6, 76.08, 10)}
	st, _ = ctrl.Await(context.Background())
	assert.Equal(t, PhaseResolved, st.Phase)
	assert.NoError(t, st.Err)
}

func TestStaleResolutionFromSupersededRequestIsDropped(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})
	ctrl.SetFirm(shopFirm())

	// First request left hanging.
	ctrl.GetLocation(context.Background())
	first := src.next(t)

	// Abandon it and issue a second request, which resolves first.
	ctrl.Reset()
	ctrl.GetLocation(context.Background())
	second := src.next(t)
	second <- fixResult{coord: fixAt(11.618044, 76.081180, 10)}
	st, err := ctrl.Await(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.Coordinate)
	want := *st.Coordinate

	// Now the first request resolves late with a different point. The
	// generation guard must drop it.
	first <- fixResult{coord: fixAt(-33.8688, 151.2093, 10)}
	time.Sleep(50 * time.Millisecond)

	got := ctrl.Snapshot()
	require.NotNil(t, got.Coordinate)
	assert.Equal(t, want, *got.Coordinate)
	assert.Equal(t, PhaseResolved, got.Phase)
}

func TestSetFirm_RecomputesWithoutNewFix(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})
	ctrl.SetFirm(shopFirm())

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: fixAt(11.618044, 76.081180, 10)}
	st, _ := ctrl.Await(context.Background())
	require.True(t, st.Distance.WithinRadius)

	// A firm roughly 1.3 km away: out of the 100 m radius.
	far := firm.Firm{ID: "frm-2", DisplayName: "Hillside Stores", Lat: f64(11.630000), Lon: f64(76.090000)}
	ctrl.SetFirm(far)

	st = ctrl.Snapshot()
	require.NotNil(t, st.Distance)
	assert.False(t, st.Distance.WithinRadius)
	assert.False(t, ctrl.Admitted(time.Now()))
	assert.Equal(t, 1, src.callCount())
}

func TestFirmWithoutGeofenceAdmitsUnconditionally(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})

	ctrl.SetFirm(firm.Firm{ID: "frm-3", DisplayName: "No Fence & Co"})
	st := ctrl.Snapshot()
	assert.True(t, st.NoGeofence)
	assert.Nil(t, st.Distance)
	assert.True(t, ctrl.Admitted(time.Now()))
}

func TestFirmWithMalformedCoordinatesDegradesToNoGeofence(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})

	bad := firm.Firm{ID: "frm-4", DisplayName: "Broken Row", Lat: f64(95.0), Lon: f64(76.08)}
	ctrl.SetFirm(bad)

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: fixAt(11.6, 76.08, 10)}
	st, _ := ctrl.Await(context.Background())

	// Not a false zero-distance match: the geofence is unenforceable,
	// so admission passes and the state says why.
	assert.True(t, st.NoGeofence)
	assert.Nil(t, st.Distance)
	assert.True(t, ctrl.Admitted(time.Now()))
}

func TestAdmitted_RejectsStaleFix(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{MaxFixAge: 5 * time.Minute})
	ctrl.SetFirm(shopFirm())

	old := geo.Coordinate{Lat: 11.618044, Lon: 76.081180, AccuracyM: 10, CapturedAt: time.Now().Add(-10 * time.Minute)}
	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: old}
	st, _ := ctrl.Await(context.Background())
	require.True(t, st.Distance.WithinRadius)

	assert.False(t, ctrl.Admitted(time.Now()))
}

func TestAccuracyCircleClampedForDisplay(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})
	view := &recordingView{}
	ctrl.AttachView(view)

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: fixAt(11.6, 76.08, 2)} // sharper than display floor
	_, err := ctrl.Await(context.Background())
	require.NoError(t, err)

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: fixAt(11.6, 76.08, 750)} // wider than display cap
	_, err = ctrl.Await(context.Background())
	require.NoError(t, err)

	require.Len(t, view.radiuses, 2)
	assert.Equal(t, 8.0, view.radiuses[0])
	assert.Equal(t, 100.0, view.radiuses[1])
}

func TestReset_DiscardsCommittedFix(t *testing.T) {
	src := newScriptedSource()
	ctrl := New(src, Config{})
	ctrl.SetFirm(shopFirm())

	ctrl.GetLocation(context.Background())
	src.next(t) <- fixResult{coord: fixAt(11.618044, 76.081180, 10)}
	_, err := ctrl.Await(context.Background())
	require.NoError(t, err)

	ctrl.Reset()
	st := ctrl.Snapshot()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Nil(t, st.Coordinate)
	assert.Nil(t, st.Distance)
	assert.False(t, ctrl.Admitted(time.Now()))
}
