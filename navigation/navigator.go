/*
Package navigation drives one visitor's walk along a planned route.

The Navigator consumes step and heading events from a motion tracker and
advances a tracked cell across the occupancy grid, one cell per detected
footstep, in the direction the current heading selects. Committed moves are
persisted and announced through pluggable collaborators; blocked moves keep
the position and warn the user instead.

All navigator state is guarded by one lock and mutated by a single event
loop, so steps are processed strictly in arrival order. Voice output and
persistence are dispatched on their own goroutines after the state change is
already committed; their completion is never awaited before the next event.
*/
package navigation

import (
	"errors"
	"strconv"
	"sync"

	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/motion"
	"github.com/robel-ketema/wayfinder-api/pathfind"
)

// Navigation-related errors.
var (
	ErrNilGrid    = errors.New("navigation: grid is required")
	ErrNilTracker = errors.New("navigation: tracker is required")
	ErrEmptyPath  = errors.New("navigation: no route to follow")
)

// Spoken cues not tied to a turn instruction.
const (
	cueWallAhead = "Wall ahead"
	cueBoundary  = "You have reached the edge of the map"
	cueArrived   = "You have arrived at your destination"
)

const stateBuffer = 16

// VoiceSink receives spoken cues. Implementations own their delivery; a
// failed or slow cue must never stall navigation.
type VoiceSink interface {
	Speak(text string)
}

// LocationRecorder persists each committed cell. Implementations own their
// timeouts and error handling; navigation never waits on them.
type LocationRecorder interface {
	RecordLocation(c grid.Cell)
}

// Status enumerates the navigator lifecycle.
type Status int

const (
	// Idle means no walk has started yet.
	Idle Status = iota
	// Navigating means steps advance the tracked position.
	Navigating
	// Arrived means the tracked position reached the route's final cell.
	Arrived
	// Stopped means the user paused the walk; steps are ignored.
	Stopped
)

// String names the status.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Navigating:
		return "navigating"
	case Arrived:
		return "arrived"
	default:
		return "stopped"
	}
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// State is a point-in-time snapshot of a navigator.
type State struct {
	Status    Status     `json:"status"`
	Current   *grid.Cell `json:"current,omitempty"`
	Heading   float64    `json:"heading"`
	StepCount uint64     `json:"stepCount"`
}

// Navigator tracks one visitor across the grid. It manages the walk
// lifecycle, processes sensor events, and publishes state snapshots.
type Navigator struct {
	grid      *grid.Grid     // occupancy snapshot for this walk
	path      pathfind.Path  // active route, replaced wholesale by SetPath
	status    Status         // lifecycle state
	current   grid.Cell      // tracked position, valid when hasCell
	hasCell   bool           // whether a position has been established
	heading   float64        // latest compass heading in [0,360)
	stepCount uint64         // steps processed since the walk started
	tracker   *motion.Tracker
	voice     VoiceSink
	recorder  LocationRecorder
	quit      chan bool       // signals the event loop to exit
	quitOnce  sync.Once       // guards double Shutdown
	StateChan chan State      // latest-effort state snapshots
	Wg        *sync.WaitGroup // tracks in-flight side effect goroutines
	sync.RWMutex
}

// Option configures optional Navigator parameters.
type Option func(*Navigator)

// Config carries the required Navigator collaborators.
type Config struct {
	Grid    *grid.Grid      // occupancy map snapshot for this walk
	Tracker *motion.Tracker // sensor event source
}

// New creates a navigator in the Idle state. Voice and persistence default
// to no-ops when not configured.
func New(c Config, options ...Option) (*Navigator, error) {
	if c.Grid == nil {
		return nil, ErrNilGrid
	}
	if c.Tracker == nil {
		return nil, ErrNilTracker
	}

	n := &Navigator{
		grid:      c.Grid,
		tracker:   c.Tracker,
		quit:      make(chan bool, 1),
		StateChan: make(chan State, stateBuffer),
		Wg:        &sync.WaitGroup{},
	}

	// Run optional configurations
	for _, opt := range options {
		opt(n)
	}

	if n.voice == nil {
		n.voice = noopVoice{}
	}
	if n.recorder == nil {
		n.recorder = noopRecorder{}
	}

	return n, nil
}

// Run consumes tracker events until Shutdown. It is the only goroutine that
// mutates position, so events apply strictly in arrival order.
func (n *Navigator) Run() {
	for {
		select {
		case <-n.quit:
			return
		case hu := <-n.tracker.Headings():
			n.handleHeading(hu)
		case ev := <-n.tracker.Steps():
			n.handleStep(ev)
		}
	}
}

// Shutdown stops the event loop and waits for in-flight side effects. The
// navigator must not be reused afterwards.
func (n *Navigator) Shutdown() {
	n.quitOnce.Do(func() {
		close(n.quit)
	})
	n.Wg.Wait()
}

// Done reports loop termination to state consumers.
func (n *Navigator) Done() <-chan bool {
	return n.quit
}

// Start begins or resumes the walk. The step counter restarts at zero. The
// tracked position is anchored to the route's first cell on the very first
// start and kept where the user stands on resume.
func (n *Navigator) Start() error {
	n.Lock()
	if len(n.path) == 0 {
		n.Unlock()
		return ErrEmptyPath
	}

	n.status = Navigating
	n.stepCount = 0
	if !n.hasCell {
		n.current = n.path[0]
		n.hasCell = true
	}
	n.Unlock()

	n.publishState()
	return nil
}

// Stop pauses the walk. Steps are ignored until the next Start. Stopping a
// walk that is not running is a no-op.
func (n *Navigator) Stop() {
	n.Lock()
	if n.status != Navigating {
		n.Unlock()
		return
	}
	n.status = Stopped
	n.Unlock()

	n.publishState()
}

// SetPath replaces the active route. The last write wins; the next processed
// step already follows the new route.
func (n *Navigator) SetPath(p pathfind.Path) {
	n.Lock()
	n.path = p
	n.Unlock()
}

// Path returns the active route. Callers treat it as immutable.
func (n *Navigator) Path() pathfind.Path {
	n.RLock()
	defer n.RUnlock()
	return n.path
}

// State returns a point-in-time snapshot.
func (n *Navigator) State() State {
	n.RLock()
	defer n.RUnlock()
	return n.snapshot()
}

// snapshot builds a State copy. Callers must hold at least the read lock.
func (n *Navigator) snapshot() State {
	s := State{
		Status:    n.status,
		Heading:   n.heading,
		StepCount: n.stepCount,
	}
	if n.hasCell {
		c := n.current
		s.Current = &c
	}
	return s
}

// handleHeading records the latest compass heading. Headings are tracked in
// every lifecycle state so the first step after Start already has one.
func (n *Navigator) handleHeading(hu motion.HeadingUpdate) {
	n.Lock()
	n.heading = hu.Degrees
	n.Unlock()
}

// handleStep advances the tracked position by one cell in the direction the
// current heading selects. Moves into walls or off the grid are refused with
// a spoken warning; committed moves are persisted and followed by the next
// turn cue.
func (n *Navigator) handleStep(motion.StepEvent) {
	n.Lock()
	if n.status != Navigating || !n.hasCell {
		n.Unlock()
		return
	}
	n.stepCount++

	candidate := SectorFor(n.heading).Apply(n.current)

	if !n.grid.InBounds(candidate) {
		n.Unlock()
		n.say(cueBoundary)
		n.publishState()
		return
	}
	if n.grid.IsWall(candidate) {
		n.Unlock()
		n.say(cueWallAhead)
		n.publishState()
		return
	}

	n.current = candidate
	arrived := len(n.path) > 0 && candidate == n.path.End()
	if arrived {
		n.status = Arrived
	}
	heading := n.heading
	path := n.path
	n.Unlock()

	n.record(candidate)
	n.publishState()

	if arrived {
		n.say(cueArrived)
		return
	}
	if ins, ok := NextInstruction(path, candidate, heading); ok {
		n.say(ins.Phrase())
	}
}

// say dispatches one spoken cue without awaiting delivery.
func (n *Navigator) say(text string) {
	n.Wg.Add(1)
	go func() {
		defer n.Wg.Done()
		n.voice.Speak(text)
	}()
}

// record dispatches persistence of a committed cell without awaiting it.
func (n *Navigator) record(c grid.Cell) {
	n.Wg.Add(1)
	go func() {
		defer n.Wg.Done()
		n.recorder.RecordLocation(c)
	}()
}

// publishState offers the current snapshot to the state channel. Snapshots
// are latest-effort; when no consumer keeps up the update is dropped.
func (n *Navigator) publishState() {
	n.RLock()
	s := n.snapshot()
	n.RUnlock()

	select {
	case n.StateChan <- s:
	default:
	}
}

// NavigatorWithVoice sets the spoken cue sink.
func NavigatorWithVoice(v VoiceSink) Option {
	return func(n *Navigator) {
		n.voice = v
	}
}

// NavigatorWithRecorder sets the location persistence sink.
func NavigatorWithRecorder(r LocationRecorder) Option {
	return func(n *Navigator) {
		n.recorder = r
	}
}

// NavigatorWithPath seeds the initial route.
func NavigatorWithPath(p pathfind.Path) Option {
	return func(n *Navigator) {
		n.path = p
	}
}

// NavigatorWithCell seeds the tracked position, resuming a previous walk
// instead of anchoring at the route's first cell.
func NavigatorWithCell(c grid.Cell) Option {
	return func(n *Navigator) {
		n.current = c
		n.hasCell = true
	}
}

// NavigatorWithHeading seeds the initial heading in degrees.
func NavigatorWithHeading(deg float64) Option {
	return func(n *Navigator) {
		n.heading = normalize360(deg)
	}
}

type noopVoice struct{}

func (noopVoice) Speak(string) {}

type noopRecorder struct{}

func (noopRecorder) RecordLocation(grid.Cell) {}
