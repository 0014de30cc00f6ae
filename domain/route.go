package domain

import (
	"math"

	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/pathfind"
)

// PixelPoint is a screen-space position, the unit the mobile map view works
// in. One grid cell spans CellSize pixels on a side; a cell is represented
// by its center pixel.
type PixelPoint struct {
	Dx float64 `bson:"dx" json:"dx"`
	Dy float64 `bson:"dy" json:"dy"`
}

// PixelFromCell maps a grid cell to its center pixel.
func PixelFromCell(c grid.Cell, cellSize float64) PixelPoint {
	return PixelPoint{
		Dx: float64(c.X)*cellSize + cellSize/2,
		Dy: float64(c.Y)*cellSize + cellSize/2,
	}
}

// Cell maps any pixel inside a cell back to that cell. Pixels outside the
// grid map to out-of-bounds cells, which callers validate against the grid.
func (p PixelPoint) Cell(cellSize float64) grid.Cell {
	return grid.Cell{
		X: int(math.Floor(p.Dx / cellSize)),
		Y: int(math.Floor(p.Dy / cellSize)),
	}
}

// Route is one visitor's planned walk in its persisted form. Endpoints are
// selected one at a time, so Start may exist without End. Current is the
// last persisted walking position and is nil until the first committed
// step of a session.
type Route struct {
	UserID    uuid.UUID          `bson:"_id"`
	Start     *PixelPoint        `bson:"start"`
	End       *PixelPoint        `bson:"end"`
	Current   *PixelPoint        `bson:"current"`
	Path      []PixelPoint       `bson:"path"`
	Algorithm pathfind.Algorithm `bson:"-"`
}

// Planned reports whether both endpoints are selected.
func (r *Route) Planned() bool {
	return r.Start != nil && r.End != nil
}

// CellPath converts the persisted pixel path back to grid cells.
func (r *Route) CellPath(cellSize float64) pathfind.Path {
	if len(r.Path) == 0 {
		return nil
	}
	cells := make(pathfind.Path, len(r.Path))
	for i, p := range r.Path {
		cells[i] = p.Cell(cellSize)
	}
	return cells
}

// PixelPath converts a cell route into its persisted pixel form.
func PixelPath(path pathfind.Path, cellSize float64) []PixelPoint {
	if len(path) == 0 {
		return nil
	}
	points := make([]PixelPoint, len(path))
	for i, c := range path {
		points[i] = PixelFromCell(c, cellSize)
	}
	return points
}
