package i

import (
	"errors"

	"github.com/google/uuid"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/grid"
)

// ErrMapLocked rejects map edits while the visitor is mid-walk. A live
// session navigates against a snapshot of the map, so edits would silently
// diverge from what the walker sees.
var ErrMapLocked = errors.New("map is locked while a navigation session is active")

// Planner manages each visitor's map and planned route. Point selection is a
// two-click cycle: the first point becomes the start, the second becomes the
// end and triggers route computation, and a third selection begins a fresh
// plan.
type Planner interface {
	// Grid returns the visitor's map, falling back to the default layout
	// when none is saved or the saved one is unusable.
	Grid(userID uuid.UUID) (*grid.Grid, error)

	// SaveGrid validates and replaces the visitor's map wholesale.
	SaveGrid(userID uuid.UUID, matrix [][]int) (*grid.Grid, error)

	// SetCell marks one cell of the visitor's map free or blocked.
	SetCell(userID uuid.UUID, c grid.Cell, t grid.CellType) (*grid.Grid, error)

	// ResetGrid restores the default wall layout.
	ResetGrid(userID uuid.UUID) (*grid.Grid, error)

	// SelectPoint advances the two-click cycle with a pixel-space tap and
	// returns the updated route.
	SelectPoint(userID uuid.UUID, p dmn.PixelPoint) (*dmn.Route, error)

	// ToggleAlgorithm flips between the two route algorithms, recomputing
	// the route when one is already planned.
	ToggleAlgorithm(userID uuid.UUID) (*dmn.Route, error)

	// Route returns the visitor's current route record.
	Route(userID uuid.UUID) (*dmn.Route, error)
}
