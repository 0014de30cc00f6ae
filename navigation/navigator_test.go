package navigation

import (
	"sync"
	"testing"
	"time"

	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/motion"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVoice struct {
	mu   sync.Mutex
	cues []string
}

func (f *fakeVoice) Speak(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, text)
}

func (f *fakeVoice) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cues...)
}

type fakeRecorder struct {
	mu    sync.Mutex
	cells []grid.Cell
}

func (f *fakeRecorder) RecordLocation(c grid.Cell) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cells = append(f.cells, c)
}

func (f *fakeRecorder) all() []grid.Cell {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]grid.Cell(nil), f.cells...)
}

func newTestNavigator(t *testing.T, g *grid.Grid, p pathfind.Path) (*Navigator, *fakeVoice, *fakeRecorder) {
	t.Helper()
	voice := &fakeVoice{}
	rec := &fakeRecorder{}

	n, err := New(
		Config{Grid: g, Tracker: motion.NewTracker()},
		NavigatorWithPath(p),
		NavigatorWithVoice(voice),
		NavigatorWithRecorder(rec),
	)
	require.NoError(t, err)
	return n, voice, rec
}

// step injects one step event and waits for its side effects to land.
func step(n *Navigator) {
	n.handleStep(motion.StepEvent{At: time.Now()})
	n.Wg.Wait()
}

func TestNewValidation(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)

	t.Run("nil grid", func(t *testing.T) {
		_, err := New(Config{Tracker: motion.NewTracker()})
		assert.ErrorIs(t, err, ErrNilGrid)
	})

	t.Run("nil tracker", func(t *testing.T) {
		_, err := New(Config{Grid: g})
		assert.ErrorIs(t, err, ErrNilTracker)
	})
}

func TestLifecycle(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}

	t.Run("start requires a route", func(t *testing.T) {
		n, _, _ := newTestNavigator(t, g, nil)
		assert.ErrorIs(t, n.Start(), ErrEmptyPath)
		assert.Equal(t, Idle, n.State().Status)
	})

	t.Run("start anchors to the route start", func(t *testing.T) {
		n, _, _ := newTestNavigator(t, g, path)
		require.NoError(t, n.Start())

		s := n.State()
		assert.Equal(t, Navigating, s.Status)
		require.NotNil(t, s.Current)
		assert.Equal(t, grid.Cell{X: 1, Y: 1}, *s.Current)
		assert.Equal(t, uint64(0), s.StepCount)
	})

	t.Run("stop pauses and start resumes in place", func(t *testing.T) {
		n, _, _ := newTestNavigator(t, g, path)
		require.NoError(t, n.Start())
		n.handleHeading(motion.HeadingUpdate{Degrees: 90})
		step(n)
		require.Equal(t, grid.Cell{X: 2, Y: 1}, *n.State().Current)

		n.Stop()
		assert.Equal(t, Stopped, n.State().Status)

		// Steps are ignored while stopped.
		step(n)
		assert.Equal(t, uint64(1), n.State().StepCount)
		assert.Equal(t, grid.Cell{X: 2, Y: 1}, *n.State().Current)

		// Resuming keeps the tracked cell but restarts the counter.
		require.NoError(t, n.Start())
		s := n.State()
		assert.Equal(t, Navigating, s.Status)
		assert.Equal(t, grid.Cell{X: 2, Y: 1}, *s.Current)
		assert.Equal(t, uint64(0), s.StepCount)
	})

	t.Run("stop before start is a no-op", func(t *testing.T) {
		n, _, _ := newTestNavigator(t, g, path)
		n.Stop()
		assert.Equal(t, Idle, n.State().Status)
	})

	t.Run("steps are ignored while idle", func(t *testing.T) {
		n, _, rec := newTestNavigator(t, g, path)
		step(n)
		assert.Equal(t, uint64(0), n.State().StepCount)
		assert.Empty(t, rec.all())
	})
}

func TestStepAdvancesAlongHeading(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}

	n, voice, rec := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())
	n.handleHeading(motion.HeadingUpdate{Degrees: 90}) // east sector

	step(n)

	s := n.State()
	assert.Equal(t, grid.Cell{X: 2, Y: 1}, *s.Current)
	assert.Equal(t, uint64(1), s.StepCount)
	assert.Equal(t, Navigating, s.Status)
	assert.Equal(t, []grid.Cell{{X: 2, Y: 1}}, rec.all())
	// The next hop is still east and the heading matches it.
	assert.Equal(t, []string{"Continue straight"}, voice.all())
}

func TestStepArrival(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}}

	n, voice, rec := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())
	n.handleHeading(motion.HeadingUpdate{Degrees: 90})

	step(n)

	s := n.State()
	assert.Equal(t, Arrived, s.Status)
	assert.Equal(t, grid.Cell{X: 2, Y: 1}, *s.Current)
	assert.Equal(t, []string{cueArrived}, voice.all())
	assert.Equal(t, []grid.Cell{{X: 2, Y: 1}}, rec.all())

	// Arrived walks ignore further steps.
	step(n)
	assert.Equal(t, uint64(1), n.State().StepCount)

	// But an explicit restart walks again from the destination.
	require.NoError(t, n.Start())
	assert.Equal(t, Navigating, n.State().Status)
	assert.Equal(t, uint64(0), n.State().StepCount)
}

func TestStepBlockedByWall(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	require.NoError(t, g.SetCell(grid.Cell{X: 2, Y: 1}, grid.Wall))
	path := pathfind.Path{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 1}}

	n, voice, rec := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())
	n.handleHeading(motion.HeadingUpdate{Degrees: 90}) // straight into the wall

	step(n)

	s := n.State()
	assert.Equal(t, grid.Cell{X: 1, Y: 1}, *s.Current, "blocked step must not move")
	assert.Equal(t, uint64(1), s.StepCount, "blocked step still counts")
	assert.Equal(t, []string{cueWallAhead}, voice.all())
	assert.Empty(t, rec.all(), "blocked step must not persist")
}

func TestStepBlockedByBoundary(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 0, Y: 0}, {X: 1, Y: 0}}

	n, voice, _ := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())
	// Default heading 0 selects north, which leaves the grid from (0,0).

	step(n)

	s := n.State()
	assert.Equal(t, grid.Cell{X: 0, Y: 0}, *s.Current)
	assert.Equal(t, []string{cueBoundary}, voice.all())
}

func TestStepOffRouteStaysSilent(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}}

	n, voice, rec := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())
	n.handleHeading(motion.HeadingUpdate{Degrees: 180}) // south, off the route

	step(n)

	s := n.State()
	assert.Equal(t, grid.Cell{X: 1, Y: 2}, *s.Current, "movement follows heading, not the route")
	assert.Empty(t, voice.all(), "off-route positions produce no cue")
	assert.Equal(t, []grid.Cell{{X: 1, Y: 2}}, rec.all(), "off-route moves still persist")
}

func TestSetPathLastWriteWins(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}}

	n, voice, _ := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())
	n.handleHeading(motion.HeadingUpdate{Degrees: 90})

	// Reroute before the step: the new route continues south from (2,1).
	reroute := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 2, Y: 3}}
	n.SetPath(reroute)
	assert.Equal(t, reroute, n.Path())

	step(n)

	// The cue follows the new route: next hop south needs heading 0,
	// the user faces 90, so the diff of -90 reads as a left turn.
	assert.Equal(t, []string{"Turn left"}, voice.all())
}

func TestStateChanPublishes(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}}

	n, _, _ := newTestNavigator(t, g, path)
	require.NoError(t, n.Start())

	select {
	case s := <-n.StateChan:
		assert.Equal(t, Navigating, s.Status)
	default:
		t.Fatal("expected a state snapshot after start")
	}
}

func TestRunLoopEndToEnd(t *testing.T) {
	g, err := grid.New(10)
	require.NoError(t, err)
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}}

	tracker := motion.NewTracker()
	voice := &fakeVoice{}
	n, err := New(
		Config{Grid: g, Tracker: tracker},
		NavigatorWithPath(path),
		NavigatorWithVoice(voice),
	)
	require.NoError(t, err)

	go n.Run()
	defer n.Shutdown()

	require.NoError(t, n.Start())

	// Face east, then stomp once.
	tracker.HandleMagnetic(motion.MagSample{My: 1})
	require.Eventually(t, func() bool {
		return n.State().Heading == 90
	}, time.Second, 5*time.Millisecond)

	tracker.HandleAcceleration(motion.AccelSample{Az: 13})
	require.Eventually(t, func() bool {
		s := n.State()
		return s.Status == Arrived && s.Current != nil && *s.Current == (grid.Cell{X: 2, Y: 1})
	}, time.Second, 5*time.Millisecond)
}
