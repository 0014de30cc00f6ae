package navigation

import (
	"math"

	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/pathfind"
)

// Instruction is one categorical turn cue spoken to the user.
type Instruction int

const (
	Straight Instruction = iota
	Right
	Left
	TurnAround
)

const (
	// straightTolerance is the half-width of the dead-ahead band in degrees.
	straightTolerance = 30
	// turnBoundary separates a quarter turn from a full turnaround.
	turnBoundary = 150
)

// String names the instruction.
func (i Instruction) String() string {
	switch i {
	case Straight:
		return "straight"
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return "turn-around"
	}
}

// Phrase returns the spoken form of the instruction.
func (i Instruction) Phrase() string {
	switch i {
	case Straight:
		return "Continue straight"
	case Right:
		return "Turn right"
	case Left:
		return "Turn left"
	default:
		return "Turn around"
	}
}

// NextInstruction derives the turn cue toward the next route cell from the
// user's position and heading. The boolean is false when the user stands off
// the route or on its final cell; both cases stay silent on purpose, the
// next committed step re-anchors them.
//
// The cue compares the heading the next hop requires against the heading the
// phone reports and classifies the signed difference: within 30 degrees
// either way is straight ahead, a quarter turn right is [30,150), a quarter
// turn left is (-150,-30], anything beyond is a turnaround.
func NextInstruction(path pathfind.Path, current grid.Cell, heading float64) (Instruction, bool) {
	idx := path.IndexOf(current)
	if idx < 0 || idx == len(path)-1 {
		return Straight, false
	}

	next := path[idx+1]
	bearing := normalize360(math.Atan2(float64(next.Y-current.Y), float64(next.X-current.X)) * 180 / math.Pi)
	required := normalize360(-(bearing - 90))
	diff := signedDelta(required - heading)

	switch {
	case math.Abs(diff) < straightTolerance:
		return Straight, true
	case diff >= straightTolerance && diff < turnBoundary:
		return Right, true
	case diff <= -straightTolerance && diff > -turnBoundary:
		return Left, true
	default:
		return TurnAround, true
	}
}

// signedDelta folds a degree difference into (-180,180].
func signedDelta(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}
