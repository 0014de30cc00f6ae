package navigation

import (
	"testing"

	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/stretchr/testify/assert"
)

func TestNextInstructionClassification(t *testing.T) {
	// Route heading east: the next hop from (5,5) is (6,5), which requires
	// a heading of 90 degrees.
	path := pathfind.Path{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 7, Y: 5}}
	at := grid.Cell{X: 5, Y: 5}

	cases := []struct {
		name    string
		heading float64
		want    Instruction
	}{
		{"aligned", 90, Straight},
		{"just inside the straight band", 60.5, Straight},
		{"diff of exactly 30 turns right", 60, Right},
		{"quarter turn right", 30, Right},
		{"diff of exactly -30 turns left", 120, Left},
		{"quarter turn left", 150, Left},
		{"diff of exactly 150 is a turnaround", 300, TurnAround},
		{"diff of exactly -150 is a turnaround", 240, TurnAround},
		{"opposite heading", 270, TurnAround},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextInstruction(path, at, tc.heading)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextInstructionRequiredHeadings(t *testing.T) {
	center := grid.Cell{X: 5, Y: 5}

	// One case per cardinal hop, each probed with the heading that makes
	// the hop dead ahead.
	cases := []struct {
		name    string
		next    grid.Cell
		aligned float64
	}{
		{"north hop wants 180", grid.Cell{X: 5, Y: 4}, 180},
		{"east hop wants 90", grid.Cell{X: 6, Y: 5}, 90},
		{"south hop wants 0", grid.Cell{X: 5, Y: 6}, 0},
		{"west hop wants 270", grid.Cell{X: 4, Y: 5}, 270},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := pathfind.Path{center, tc.next}

			got, ok := NextInstruction(path, center, tc.aligned)
			assert.True(t, ok)
			assert.Equal(t, Straight, got)

			// A half turn away must read as a turnaround.
			got, ok = NextInstruction(path, center, normalize360(tc.aligned+180))
			assert.True(t, ok)
			assert.Equal(t, TurnAround, got)
		})
	}
}

func TestNextInstructionWraparound(t *testing.T) {
	// South hop requires heading 0; a heading of 350 differs by +10 through
	// the wraparound, not -350.
	path := pathfind.Path{{X: 5, Y: 5}, {X: 5, Y: 6}}

	got, ok := NextInstruction(path, grid.Cell{X: 5, Y: 5}, 350)
	assert.True(t, ok)
	assert.Equal(t, Straight, got)
}

func TestNextInstructionSilentCases(t *testing.T) {
	path := pathfind.Path{{X: 1, Y: 1}, {X: 2, Y: 1}}

	t.Run("off the route", func(t *testing.T) {
		_, ok := NextInstruction(path, grid.Cell{X: 7, Y: 7}, 90)
		assert.False(t, ok)
	})

	t.Run("standing on the final cell", func(t *testing.T) {
		_, ok := NextInstruction(path, grid.Cell{X: 2, Y: 1}, 90)
		assert.False(t, ok)
	})

	t.Run("empty route", func(t *testing.T) {
		_, ok := NextInstruction(nil, grid.Cell{X: 1, Y: 1}, 90)
		assert.False(t, ok)
	})
}

func TestSignedDelta(t *testing.T) {
	assert.InDelta(t, 0.0, signedDelta(0), 1e-9)
	assert.InDelta(t, 180.0, signedDelta(180), 1e-9)
	assert.InDelta(t, 180.0, signedDelta(-180), 1e-9)
	assert.InDelta(t, -90.0, signedDelta(270), 1e-9)
	assert.InDelta(t, 10.0, signedDelta(-350), 1e-9)
	assert.InDelta(t, -10.0, signedDelta(350), 1e-9)
}
