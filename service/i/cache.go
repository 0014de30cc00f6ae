package i

import (
	"time"

	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/grid"
)

// TrailPoint is one breadcrumb of a walk.
type TrailPoint struct {
	Cell grid.Cell `json:"cell"`
	At   time.Time `json:"at"`
}

// LiveCache holds the volatile side of navigation: the live position, the
// breadcrumb trail, and the lock that keeps each visitor to one session at a
// time even when the API runs on several nodes.
type LiveCache interface {
	// SetLive records the visitor's current cell.
	SetLive(userID uuid.UUID, c grid.Cell) error

	// Live returns the visitor's current cell, or nil when unknown.
	Live(userID uuid.UUID) (*grid.Cell, error)

	// ClearLive forgets the visitor's current cell.
	ClearLive(userID uuid.UUID) error

	// AppendTrail adds one breadcrumb to the visitor's walk history.
	AppendTrail(userID uuid.UUID, c grid.Cell, at time.Time) error

	// RecentTrail returns up to limit breadcrumbs, newest first.
	RecentTrail(userID uuid.UUID, limit int64) ([]TrailPoint, error)

	// AcquireSessionLock takes the per-visitor session lock and returns
	// its release function.
	AcquireSessionLock(userID uuid.UUID) (func() error, error)
}
