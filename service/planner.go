package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

const (
	defaultGridSize = 20
	defaultCellSize = 32
)

// Spoken cues for plan failures.
const (
	cueNoPath      = "No path found to your destination"
	cueBadEndpoint = "That point is not walkable"
)

// Planner owns each visitor's occupancy map and planned route: the two-tap
// endpoint cycle, the algorithm toggle, recomputation and persistence. When
// the plan changes mid-walk the live session is handed the new path.
type Planner struct {
	gridRepo  i.GridRepo
	routeRepo i.RouteRepo
	voice     i.VoicePublisher
	sessions  i.SessionManager
	logger    i.Logger
	gridSize  int
	cellSize  float64
}

// PlannerConfig holds the collaborators and sizing for a Planner.
type PlannerConfig struct {
	GridRepo  i.GridRepo
	RouteRepo i.RouteRepo
	Voice     i.VoicePublisher
	Sessions  i.SessionManager
	Logger    i.Logger
	GridSize  int     // cells per side, defaulted when not positive
	CellSize  float64 // pixels per cell side, defaulted when not positive
}

// NewPlanner creates the planning service.
func NewPlanner(c *PlannerConfig) (i.Planner, error) {
	if c.GridSize <= 0 {
		c.GridSize = defaultGridSize
	}
	if c.CellSize <= 0 {
		c.CellSize = defaultCellSize
	}

	return &Planner{
		gridRepo:  c.GridRepo,
		routeRepo: c.RouteRepo,
		voice:     c.Voice,
		sessions:  c.Sessions,
		logger:    c.Logger,
		gridSize:  c.GridSize,
		cellSize:  c.CellSize,
	}, nil
}

// Grid returns the visitor's map. A visitor who never saved one gets the
// default layout; an unusable stored map degrades to the default with a
// warning instead of failing the request.
func (p *Planner) Grid(userID uuid.UUID) (*grid.Grid, error) {
	g, err := p.gridRepo.ByUser(userID)
	if err == nil {
		return g, nil
	}

	if !errors.Is(err, i.ErrNotFound) {
		p.logger.Warning(fmt.Sprintf("stored map for %s unusable, serving default: %s", userID, err))
	}
	return grid.DefaultLayout(p.gridSize)
}

// SaveGrid validates and replaces the visitor's map wholesale.
func (p *Planner) SaveGrid(userID uuid.UUID, matrix [][]int) (*grid.Grid, error) {
	if p.sessions.Active(userID) {
		return nil, i.ErrMapLocked
	}

	g, err := grid.FromMatrix(matrix)
	if err != nil {
		return nil, err
	}

	if err := p.gridRepo.Save(userID, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SetCell marks one cell of the visitor's map free or blocked. Editing a
// never-saved map materializes the default layout first.
func (p *Planner) SetCell(userID uuid.UUID, c grid.Cell, t grid.CellType) (*grid.Grid, error) {
	if p.sessions.Active(userID) {
		return nil, i.ErrMapLocked
	}

	g, err := p.Grid(userID)
	if err != nil {
		return nil, err
	}

	if err := g.SetCell(c, t); err != nil {
		return nil, err
	}

	if err := p.gridRepo.Save(userID, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ResetGrid restores the default wall layout.
func (p *Planner) ResetGrid(userID uuid.UUID) (*grid.Grid, error) {
	if p.sessions.Active(userID) {
		return nil, i.ErrMapLocked
	}

	g, err := grid.DefaultLayout(p.gridSize)
	if err != nil {
		return nil, err
	}

	if err := p.gridRepo.Save(userID, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Route returns the visitor's route record. A visitor with none, or with an
// unreadable one, gets an empty record so the endpoint cycle can begin.
func (p *Planner) Route(userID uuid.UUID) (*dmn.Route, error) {
	route, err := p.routeRepo.ByUser(userID)
	if err == nil {
		return route, nil
	}

	if !errors.Is(err, i.ErrNotFound) {
		p.logger.Warning(fmt.Sprintf("stored route for %s unusable, starting fresh: %s", userID, err))
	}
	return &dmn.Route{UserID: userID, Algorithm: pathfind.AStar}, nil
}

// SelectPoint advances the two-tap endpoint cycle. The first tap sets the
// start, the second sets the end and computes the route, and a third begins
// a fresh plan from the tapped point. A failed computation persists the
// endpoints with an empty path and tells the user why.
func (p *Planner) SelectPoint(userID uuid.UUID, pt dmn.PixelPoint) (*dmn.Route, error) {
	g, err := p.Grid(userID)
	if err != nil {
		return nil, err
	}
	if !g.InBounds(pt.Cell(p.cellSize)) {
		return nil, pathfind.ErrOutOfBounds
	}

	route, err := p.Route(userID)
	if err != nil {
		return nil, err
	}

	var planErr error
	switch {
	case route.Start == nil:
		route.Start = &pt
	case route.End == nil:
		route.End = &pt
		planErr = p.compute(userID, g, route)
	default:
		route.Start = &pt
		route.End = nil
		route.Path = nil
	}

	if err := p.routeRepo.Save(route); err != nil {
		return nil, err
	}
	p.pushToSession(userID, route)

	return route, planErr
}

// ToggleAlgorithm flips between A* and Dijkstra, recomputing the route when
// both endpoints are already selected.
func (p *Planner) ToggleAlgorithm(userID uuid.UUID) (*dmn.Route, error) {
	route, err := p.Route(userID)
	if err != nil {
		return nil, err
	}

	route.Algorithm = route.Algorithm.Toggle()

	var planErr error
	if route.Planned() {
		g, err := p.Grid(userID)
		if err != nil {
			return nil, err
		}
		planErr = p.compute(userID, g, route)
	}

	if err := p.routeRepo.Save(route); err != nil {
		return nil, err
	}
	p.pushToSession(userID, route)

	return route, planErr
}

// compute fills route.Path from its endpoints, clearing it and announcing
// the reason when no usable path exists.
func (p *Planner) compute(userID uuid.UUID, g *grid.Grid, route *dmn.Route) error {
	path, err := pathfind.Find(g, route.Start.Cell(p.cellSize), route.End.Cell(p.cellSize), route.Algorithm)
	if err != nil {
		route.Path = nil
		p.announcePlanFailure(userID, err)
		return err
	}

	route.Path = dmn.PixelPath(path, p.cellSize)
	p.logger.Info(fmt.Sprintf("planned route for %s: %d cells via %s", userID, len(path), route.Algorithm))
	return nil
}

// announcePlanFailure speaks the user-facing reason a plan failed.
func (p *Planner) announcePlanFailure(userID uuid.UUID, err error) {
	switch {
	case errors.Is(err, pathfind.ErrNoPathFound):
		p.voice.Speak(userID, cueNoPath)
	case errors.Is(err, pathfind.ErrInvalidEndpoint):
		p.voice.Speak(userID, cueBadEndpoint)
	}
}

// pushToSession hands the persisted plan to the visitor's live session, if
// one is walking right now. The last write wins.
func (p *Planner) pushToSession(userID uuid.UUID, route *dmn.Route) {
	if !p.sessions.Active(userID) {
		return
	}
	if err := p.sessions.SetPath(userID, route.CellPath(p.cellSize)); err != nil {
		p.logger.Warning(fmt.Sprintf("handing replanned route to live session %s: %s", userID, err))
	}
}
