package i

import (
	"errors"

	"github.com/google/uuid"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/grid"
)

// ErrNotFound is returned by repositories when no record exists for the
// query. Callers that can degrade to defaults match on it.
var ErrNotFound = errors.New("record not found")

// UserRepo defines the interface for user persistence operations.
type UserRepo interface {
	// Save inserts or updates a user in the repository.
	// If the user already exists, it updates the record. Otherwise, it creates a new one.
	Save(user *dmn.User) error

	// ByID retrieves a user by their unique ID.
	// Returns an error if the user is not found or in case of an unexpected error.
	ByID(id uuid.UUID) (*dmn.User, error)

	// ByUsername retrieves a user by their username.
	// Returns an error if the user is not found or in case of an unexpected error.
	ByUsername(username string) (*dmn.User, error)
}

// GridRepo defines the interface for occupancy grid persistence.
type GridRepo interface {
	// Save inserts or replaces the user's grid.
	Save(userID uuid.UUID, g *grid.Grid) error

	// ByUser retrieves the user's saved grid. Returns ErrNotFound when the
	// user never saved one.
	ByUser(userID uuid.UUID) (*grid.Grid, error)
}

// RouteRepo defines the interface for planned route persistence.
type RouteRepo interface {
	// Save inserts or replaces the user's route record.
	Save(route *dmn.Route) error

	// ByUser retrieves the user's route record. Returns ErrNotFound when
	// the user never planned a route.
	ByUser(userID uuid.UUID) (*dmn.Route, error)

	// UpdateCurrent persists only the live walking position of the route.
	// A nil point clears it.
	UpdateCurrent(userID uuid.UUID, p *dmn.PixelPoint) error
}
