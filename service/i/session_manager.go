package i

import (
	"errors"

	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/navigation"
	"github.com/robel-ketema/wayfinder-api/pathfind"
)

var (
	// ErrNoSession is returned for operations that need a live session.
	ErrNoSession = errors.New("no live navigation session")

	// ErrNoRoute rejects starting a walk before a route is planned.
	ErrNoRoute = errors.New("no planned route to walk")

	// ErrSessionBusy means another node holds the visitor's session lock.
	ErrSessionBusy = errors.New("a navigation session is already live elsewhere")
)

// SessionManager runs live navigation sessions, one per visitor.
type SessionManager interface {
	// Start begins or resumes walking the planned route.
	Start(userID uuid.UUID) error

	// Stop pauses the visitor's walk. The session stays resumable until it
	// idles out.
	Stop(userID uuid.UUID) error

	// SetPath replaces the route a live session is following. Used when the
	// plan changes mid-walk; the last write wins.
	SetPath(userID uuid.UUID, p pathfind.Path) error

	// State returns the live navigation snapshot.
	State(userID uuid.UUID) (navigation.State, error)

	// Watch subscribes to live state snapshots. The returned cancel
	// function releases the subscription.
	Watch(userID uuid.UUID) (<-chan navigation.State, func(), error)

	// Active reports whether the visitor has a live session.
	Active(userID uuid.UUID) bool

	// StopAll tears down every live session. Used on shutdown.
	StopAll()
}
