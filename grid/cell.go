package grid

import "fmt"

// CellType classifies a single grid square.
type CellType int

const (
	// Free marks a walkable square.
	Free CellType = iota
	// Wall marks a blocked square.
	Wall
)

// Cell addresses one grid square by column (X) and row (Y). The origin is the
// top-left corner; Y grows downward. Cells are plain values, so two cells
// compare equal exactly when their coordinates match.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the cell as "(x,y)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}
