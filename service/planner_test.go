package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/navigation"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/robel-ketema/wayfinder-api/service/i"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memGridRepo struct {
	mu    sync.Mutex
	grids map[uuid.UUID]*grid.Grid
	err   error
}

func (r *memGridRepo) Save(userID uuid.UUID, g *grid.Grid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grids == nil {
		r.grids = make(map[uuid.UUID]*grid.Grid)
	}
	r.grids[userID] = g
	return nil
}

func (r *memGridRepo) ByUser(userID uuid.UUID) (*grid.Grid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	g, ok := r.grids[userID]
	if !ok {
		return nil, i.ErrNotFound
	}
	return g, nil
}

type memRouteRepo struct {
	mu     sync.Mutex
	routes map[uuid.UUID]*dmn.Route
}

func (r *memRouteRepo) Save(route *dmn.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes == nil {
		r.routes = make(map[uuid.UUID]*dmn.Route)
	}
	clone := *route
	r.routes[route.UserID] = &clone
	return nil
}

func (r *memRouteRepo) ByUser(userID uuid.UUID) (*dmn.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[userID]
	if !ok {
		return nil, i.ErrNotFound
	}
	clone := *route
	return &clone, nil
}

func (r *memRouteRepo) UpdateCurrent(userID uuid.UUID, p *dmn.PixelPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes == nil {
		r.routes = make(map[uuid.UUID]*dmn.Route)
	}
	route, ok := r.routes[userID]
	if !ok {
		route = &dmn.Route{UserID: userID}
		r.routes[userID] = route
	}
	route.Current = p
	return nil
}

type fakeSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeSpeaker) Speak(_ uuid.UUID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, text)
}

func (f *fakeSpeaker) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

type recLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recLogger) Info(string) {}

func (l *recLogger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recLogger) Error(string) {}

func (l *recLogger) warned() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

// fakeSessions satisfies i.SessionManager for planner tests.
type fakeSessions struct {
	mu     sync.Mutex
	active map[uuid.UUID]bool
	pushed []pathfind.Path
}

func (f *fakeSessions) Start(uuid.UUID) error { return nil }
func (f *fakeSessions) Stop(uuid.UUID) error  { return nil }

func (f *fakeSessions) SetPath(_ uuid.UUID, p pathfind.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, p)
	return nil
}

func (f *fakeSessions) State(uuid.UUID) (navigation.State, error) {
	return navigation.State{}, i.ErrNoSession
}

func (f *fakeSessions) Watch(uuid.UUID) (<-chan navigation.State, func(), error) {
	return nil, nil, i.ErrNoSession
}

func (f *fakeSessions) Active(userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[userID]
}

func (f *fakeSessions) StopAll() {}

func (f *fakeSessions) pushes() []pathfind.Path {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pathfind.Path(nil), f.pushed...)
}

func newTestPlanner(t *testing.T) (i.Planner, *memGridRepo, *memRouteRepo, *fakeSpeaker, *fakeSessions, *recLogger) {
	t.Helper()

	grids := &memGridRepo{}
	routes := &memRouteRepo{}
	speaker := &fakeSpeaker{}
	sessions := &fakeSessions{active: make(map[uuid.UUID]bool)}
	logger := &recLogger{}

	p, err := NewPlanner(&PlannerConfig{
		GridRepo:  grids,
		RouteRepo: routes,
		Voice:     speaker,
		Sessions:  sessions,
		Logger:    logger,
		GridSize:  5,
		CellSize:  32,
	})
	require.NoError(t, err)

	return p, grids, routes, speaker, sessions, logger
}

// openMatrix returns an n by n all-free matrix.
func openMatrix(n int) [][]int {
	m := make([][]int, n)
	for y := range m {
		m[y] = make([]int, n)
	}
	return m
}

// centerPixel returns the pixel at the center of a cell for cellSize 32.
func centerPixel(x, y int) dmn.PixelPoint {
	return dmn.PixelFromCell(grid.Cell{X: x, Y: y}, 32)
}

func TestPlannerGrid(t *testing.T) {
	userID := uuid.New()

	t.Run("serves the default layout to a fresh user", func(t *testing.T) {
		p, _, _, _, _, logger := newTestPlanner(t)

		g, err := p.Grid(userID)
		require.NoError(t, err)
		assert.Equal(t, 5, g.Size())
		assert.True(t, g.IsWall(grid.Cell{X: 2, Y: 2}))
		assert.Zero(t, logger.warned())
	})

	t.Run("returns the saved map", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		saved, err := p.SaveGrid(userID, openMatrix(5))
		require.NoError(t, err)

		g, err := p.Grid(userID)
		require.NoError(t, err)
		assert.Equal(t, saved.Matrix(), g.Matrix())
		assert.False(t, g.IsWall(grid.Cell{X: 2, Y: 2}))
	})

	t.Run("degrades an unusable stored map to the default", func(t *testing.T) {
		p, grids, _, _, _, logger := newTestPlanner(t)
		grids.err = grid.ErrMalformedMatrix

		g, err := p.Grid(userID)
		require.NoError(t, err)
		assert.True(t, g.IsWall(grid.Cell{X: 2, Y: 2}))
		assert.Equal(t, 1, logger.warned())
	})
}

func TestPlannerGridEditing(t *testing.T) {
	userID := uuid.New()

	t.Run("set cell materializes and edits the map", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		g, err := p.SetCell(userID, grid.Cell{X: 1, Y: 1}, grid.Wall)
		require.NoError(t, err)
		assert.True(t, g.IsWall(grid.Cell{X: 1, Y: 1}))

		// The edit landed on top of the default layout and was persisted.
		g, err = p.Grid(userID)
		require.NoError(t, err)
		assert.True(t, g.IsWall(grid.Cell{X: 1, Y: 1}))
		assert.True(t, g.IsWall(grid.Cell{X: 2, Y: 2}))
	})

	t.Run("set cell rejects out-of-bounds targets", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		_, err := p.SetCell(userID, grid.Cell{X: 9, Y: 0}, grid.Wall)
		assert.ErrorIs(t, err, grid.ErrOutOfBounds)
	})

	t.Run("reset restores the default layout", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		_, err := p.SaveGrid(userID, openMatrix(5))
		require.NoError(t, err)

		g, err := p.ResetGrid(userID)
		require.NoError(t, err)
		assert.True(t, g.IsWall(grid.Cell{X: 2, Y: 2}))
	})

	t.Run("save grid validates the matrix", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		bad := openMatrix(5)
		bad[3] = bad[3][:4]
		_, err := p.SaveGrid(userID, bad)
		assert.ErrorIs(t, err, grid.ErrMalformedMatrix)
	})

	t.Run("edits are locked while a session is live", func(t *testing.T) {
		p, _, _, _, sessions, _ := newTestPlanner(t)
		sessions.active[userID] = true

		_, err := p.SaveGrid(userID, openMatrix(5))
		assert.ErrorIs(t, err, i.ErrMapLocked)

		_, err = p.SetCell(userID, grid.Cell{X: 1, Y: 1}, grid.Wall)
		assert.ErrorIs(t, err, i.ErrMapLocked)

		_, err = p.ResetGrid(userID)
		assert.ErrorIs(t, err, i.ErrMapLocked)
	})
}

func TestPlannerSelectPoint(t *testing.T) {
	userID := uuid.New()

	t.Run("two taps plan a route and a third starts over", func(t *testing.T) {
		p, _, routes, _, _, _ := newTestPlanner(t)
		_, err := p.SaveGrid(userID, openMatrix(5))
		require.NoError(t, err)

		route, err := p.SelectPoint(userID, centerPixel(0, 0))
		require.NoError(t, err)
		require.NotNil(t, route.Start)
		assert.Nil(t, route.End)
		assert.Empty(t, route.Path)

		route, err = p.SelectPoint(userID, centerPixel(4, 4))
		require.NoError(t, err)
		require.True(t, route.Planned())
		assert.Len(t, route.Path, 9)
		assert.Equal(t, centerPixel(0, 0), route.Path[0])
		assert.Equal(t, centerPixel(4, 4), route.Path[len(route.Path)-1])

		// Persisted form matches what was returned.
		stored, err := routes.ByUser(userID)
		require.NoError(t, err)
		assert.Len(t, stored.Path, 9)

		route, err = p.SelectPoint(userID, centerPixel(2, 0))
		require.NoError(t, err)
		require.NotNil(t, route.Start)
		assert.Equal(t, centerPixel(2, 0), *route.Start)
		assert.Nil(t, route.End)
		assert.Empty(t, route.Path)
	})

	t.Run("rejects taps outside the map", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		_, err := p.SelectPoint(userID, dmn.PixelPoint{Dx: 10000, Dy: 16})
		assert.ErrorIs(t, err, pathfind.ErrOutOfBounds)
	})

	t.Run("unreachable destination persists an empty path and speaks", func(t *testing.T) {
		p, _, routes, speaker, _, _ := newTestPlanner(t)

		blocked := openMatrix(5)
		for y := 0; y < 5; y++ {
			blocked[y][2] = 1
		}
		_, err := p.SaveGrid(userID, blocked)
		require.NoError(t, err)

		_, err = p.SelectPoint(userID, centerPixel(0, 0))
		require.NoError(t, err)

		route, err := p.SelectPoint(userID, centerPixel(4, 0))
		assert.ErrorIs(t, err, pathfind.ErrNoPathFound)
		assert.True(t, route.Planned())
		assert.Empty(t, route.Path)

		stored, err := routes.ByUser(userID)
		require.NoError(t, err)
		assert.True(t, stored.Planned())
		assert.Empty(t, stored.Path)

		assert.Contains(t, speaker.all(), "No path found to your destination")
	})

	t.Run("wall endpoint is refused with a cue", func(t *testing.T) {
		p, _, _, speaker, _, _ := newTestPlanner(t)

		m := openMatrix(5)
		m[0][3] = 1
		_, err := p.SaveGrid(userID, m)
		require.NoError(t, err)

		_, err = p.SelectPoint(userID, centerPixel(0, 0))
		require.NoError(t, err)

		_, err = p.SelectPoint(userID, centerPixel(3, 0))
		assert.ErrorIs(t, err, pathfind.ErrInvalidEndpoint)
		assert.Contains(t, speaker.all(), "That point is not walkable")
	})

	t.Run("replanning mid-walk hands the live session the new path", func(t *testing.T) {
		p, _, _, _, sessions, _ := newTestPlanner(t)
		_, err := p.SaveGrid(userID, openMatrix(5))
		require.NoError(t, err)
		sessions.active[userID] = true

		_, err = p.SelectPoint(userID, centerPixel(0, 0))
		require.NoError(t, err)
		_, err = p.SelectPoint(userID, centerPixel(4, 0))
		require.NoError(t, err)

		pushes := sessions.pushes()
		require.Len(t, pushes, 2)
		assert.Nil(t, pushes[0])
		require.Len(t, pushes[1], 5)
		assert.Equal(t, grid.Cell{X: 0, Y: 0}, pushes[1][0])
		assert.Equal(t, grid.Cell{X: 4, Y: 0}, pushes[1][4])
	})
}

func TestPlannerToggleAlgorithm(t *testing.T) {
	userID := uuid.New()

	t.Run("flips without a plan", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)

		route, err := p.ToggleAlgorithm(userID)
		require.NoError(t, err)
		assert.Equal(t, pathfind.Dijkstra, route.Algorithm)
		assert.Empty(t, route.Path)

		route, err = p.ToggleAlgorithm(userID)
		require.NoError(t, err)
		assert.Equal(t, pathfind.AStar, route.Algorithm)
	})

	t.Run("recomputes a planned route", func(t *testing.T) {
		p, _, _, _, _, _ := newTestPlanner(t)
		_, err := p.SaveGrid(userID, openMatrix(5))
		require.NoError(t, err)

		_, err = p.SelectPoint(userID, centerPixel(0, 0))
		require.NoError(t, err)
		planned, err := p.SelectPoint(userID, centerPixel(4, 4))
		require.NoError(t, err)

		toggled, err := p.ToggleAlgorithm(userID)
		require.NoError(t, err)
		assert.Equal(t, pathfind.Dijkstra, toggled.Algorithm)
		assert.Len(t, toggled.Path, len(planned.Path))
		assert.Equal(t, planned.Path[0], toggled.Path[0])
		assert.Equal(t, planned.Path[len(planned.Path)-1], toggled.Path[len(toggled.Path)-1])
	})
}
