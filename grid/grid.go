/*
Package grid provides the occupancy model for a single-floor indoor map.

It defines the `Grid` structure, an N-by-N field of `Free` and `Wall` squares
addressed by value-typed `Cell` coordinates.

The package includes a deterministic default wall layout used when a visitor
has no saved map, matrix import/export for the persistence layer, cell
mutation with bounds validation, and ASCII visualization of the grid.
*/
package grid

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minDimension = 3
	maxDimension = 64
)

var (
	ErrInvalidDimension = errors.New("grid: dimension out of range")
	ErrOutOfBounds      = errors.New("grid: cell out of bounds")
	ErrMalformedMatrix  = errors.New("grid: malformed cell matrix")
)

// Grid is a square occupancy map. It is a plain in-memory structure with no
// locking of its own; navigation sessions take their own snapshot and treat
// it as read-only, so edits between sessions never race a running walk.
type Grid struct {
	size  int
	cells [][]CellType // indexed cells[y][x]
}

// New creates an all-free grid with the given side length.
func New(size int) (*Grid, error) {
	if size < minDimension || size > maxDimension {
		return nil, ErrInvalidDimension
	}

	cells := make([][]CellType, size)
	for y := range cells {
		cells[y] = make([]CellType, size)
	}

	return &Grid{size: size, cells: cells}, nil
}

// DefaultLayout creates a grid seeded with two crossing wall segments, one
// vertical and one horizontal, meeting at the center. Both segments stop two
// cells short of the border so every free cell stays reachable around the
// edges. The layout depends only on size.
func DefaultLayout(size int) (*Grid, error) {
	g, err := New(size)
	if err != nil {
		return nil, err
	}

	mid := size / 2
	for i := 2; i <= size-3; i++ {
		g.cells[i][mid] = Wall
		g.cells[mid][i] = Wall
	}

	return g, nil
}

// Size returns the side length of the grid.
func (g *Grid) Size() int {
	return g.size
}

// InBounds reports whether the cell lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.size && c.Y >= 0 && c.Y < g.size
}

// IsWall reports whether the cell is blocked. It panics when the cell is out
// of bounds; callers must check InBounds first.
func (g *Grid) IsWall(c Cell) bool {
	if !g.InBounds(c) {
		panic(fmt.Sprintf("grid: IsWall on out-of-bounds cell %s", c))
	}
	return g.cells[c.Y][c.X] == Wall
}

// SetCell marks one cell as Free or Wall.
func (g *Grid) SetCell(c Cell, t CellType) error {
	if !g.InBounds(c) {
		return ErrOutOfBounds
	}
	g.cells[c.Y][c.X] = t
	return nil
}

// Matrix exports the grid as rows of 0 (free) and 1 (wall) values, the shape
// stored by the persistence layer. The returned slices are fresh copies.
func (g *Grid) Matrix() [][]int {
	out := make([][]int, g.size)
	for y := range out {
		out[y] = make([]int, g.size)
		for x, t := range g.cells[y] {
			out[y][x] = int(t)
		}
	}
	return out
}

// FromMatrix builds a grid from rows of 0/1 values. The matrix must be
// square, within the supported dimensions, and contain only 0 or 1.
func FromMatrix(values [][]int) (*Grid, error) {
	g, err := New(len(values))
	if err != nil {
		return nil, err
	}

	for y, row := range values {
		if len(row) != g.size {
			return nil, ErrMalformedMatrix
		}
		for x, v := range row {
			switch v {
			case 0:
				g.cells[y][x] = Free
			case 1:
				g.cells[y][x] = Wall
			default:
				return nil, ErrMalformedMatrix
			}
		}
	}

	return g, nil
}

// String provides a textual representation of the grid, one row per line,
// with '#' for walls and '.' for free cells.
func (g *Grid) String() string {
	var output strings.Builder

	for y := range g.cells {
		for x := range g.cells[y] {
			if g.cells[y][x] == Wall {
				output.WriteByte('#')
			} else {
				output.WriteByte('.')
			}
		}
		output.WriteByte('\n')
	}

	return output.String()
}
