package domain

import (
	"testing"

	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/stretchr/testify/assert"
)

func TestPixelMapping(t *testing.T) {
	const cellSize = 32.0

	t.Run("cell maps to its center pixel", func(t *testing.T) {
		p := PixelFromCell(grid.Cell{X: 3, Y: 5}, cellSize)
		assert.InDelta(t, 112.0, p.Dx, 1e-9)
		assert.InDelta(t, 176.0, p.Dy, 1e-9)
	})

	t.Run("any pixel inside a cell maps back to it", func(t *testing.T) {
		want := grid.Cell{X: 3, Y: 5}

		corners := []PixelPoint{
			{Dx: 96, Dy: 160},        // top-left corner
			{Dx: 112, Dy: 176},       // center
			{Dx: 127.9, Dy: 191.9},   // just inside the far edge
		}
		for _, p := range corners {
			assert.Equal(t, want, p.Cell(cellSize))
		}
	})

	t.Run("center round trip", func(t *testing.T) {
		for _, c := range []grid.Cell{{X: 0, Y: 0}, {X: 7, Y: 2}, {X: 19, Y: 19}} {
			assert.Equal(t, c, PixelFromCell(c, cellSize).Cell(cellSize))
		}
	})
}

func TestPathConversion(t *testing.T) {
	const cellSize = 32.0
	path := pathfind.Path{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}

	r := Route{Path: PixelPath(path, cellSize)}
	assert.Equal(t, path, r.CellPath(cellSize))

	t.Run("empty path stays empty", func(t *testing.T) {
		r := Route{}
		assert.Nil(t, r.CellPath(cellSize))
		assert.Nil(t, PixelPath(nil, cellSize))
	})
}

func TestRoutePlanned(t *testing.T) {
	start := PixelFromCell(grid.Cell{X: 0, Y: 0}, 32)
	end := PixelFromCell(grid.Cell{X: 5, Y: 5}, 32)

	assert.False(t, (&Route{}).Planned())
	assert.False(t, (&Route{Start: &start}).Planned())
	assert.True(t, (&Route{Start: &start, End: &end}).Planned())
}
