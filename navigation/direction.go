package navigation

import (
	"math"

	"github.com/robel-ketema/wayfinder-api/grid"
)

// Direction is one cardinal grid move.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String names the direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	default:
		return "west"
	}
}

// Apply returns the neighbor cell one move away in this direction. North
// decreases Y because the grid origin is the top-left corner.
func (d Direction) Apply(c grid.Cell) grid.Cell {
	switch d {
	case North:
		return grid.Cell{X: c.X, Y: c.Y - 1}
	case East:
		return grid.Cell{X: c.X + 1, Y: c.Y}
	case South:
		return grid.Cell{X: c.X, Y: c.Y + 1}
	default:
		return grid.Cell{X: c.X - 1, Y: c.Y}
	}
}

// SectorFor quantizes a compass heading into the cardinal move it selects.
// Each direction owns a 90-degree sector; North owns the wraparound range
// (315,360] plus [0,45].
func SectorFor(heading float64) Direction {
	h := normalize360(heading)
	switch {
	case h > 315 || h <= 45:
		return North
	case h <= 135:
		return East
	case h <= 225:
		return South
	default:
		return West
	}
}

// normalize360 folds an angle into [0,360).
func normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
