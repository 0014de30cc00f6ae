package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/motion"
	"github.com/robel-ketema/wayfinder-api/navigation"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

const (
	defaultIdleTimeout = 30 * time.Minute
	watchBuffer        = 16
)

// session bundles one visitor's live navigation machinery.
type session struct {
	nav         *navigation.Navigator
	tracker     *motion.Tracker
	releaseLock func() error
	lastActive  time.Time
	watchers    map[chan navigation.State]struct{}
}

// SessionManager runs live navigation sessions, one per visitor. Starting a
// session acquires the visitor's distributed lock, snapshots their map and
// route, and wires sensor streams through a motion tracker into a navigator
// loop. Sessions that go quiet are reaped by a garbage collection ticker.
type SessionManager struct {
	sessions  map[uuid.UUID]*session
	sensors   i.SensorSource
	voice     i.VoicePublisher
	cache     i.LiveCache
	gridRepo  i.GridRepo
	routeRepo i.RouteRepo
	logger    i.Logger

	gridSize       int
	cellSize       float64
	stepThreshold  float64
	stepRefractory time.Duration
	idleTimeout    time.Duration

	garbageCollectionTicker *time.Ticker
	garbageCollectionStop   chan bool
	sync.RWMutex
}

// SessionManagerConfig holds the collaborators and tuning for a SessionManager.
type SessionManagerConfig struct {
	Sensors   i.SensorSource
	Voice     i.VoicePublisher
	Cache     i.LiveCache
	GridRepo  i.GridRepo
	RouteRepo i.RouteRepo
	Logger    i.Logger

	GridSize       int           // cells per side, defaulted when not positive
	CellSize       float64       // pixels per cell side, defaulted when not positive
	StepThreshold  float64       // step detector threshold, defaulted when not positive
	StepRefractory time.Duration // step detector refractory window, defaulted when not positive
	IdleTimeout    time.Duration // quiet time before a session is reaped, defaulted when not positive
}

// NewSessionManager creates the session manager and starts its garbage
// collection routine.
func NewSessionManager(c *SessionManagerConfig) (*SessionManager, error) {
	if c.GridSize <= 0 {
		c.GridSize = defaultGridSize
	}
	if c.CellSize <= 0 {
		c.CellSize = defaultCellSize
	}
	if c.StepThreshold <= 0 {
		c.StepThreshold = motion.DefaultStepThreshold
	}
	if c.StepRefractory <= 0 {
		c.StepRefractory = motion.DefaultRefractory
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}

	if _, err := grid.DefaultLayout(c.GridSize); err != nil {
		return nil, fmt.Errorf("grid size %d: %w", c.GridSize, err)
	}

	m := &SessionManager{
		sessions:       make(map[uuid.UUID]*session),
		sensors:        c.Sensors,
		voice:          c.Voice,
		cache:          c.Cache,
		gridRepo:       c.GridRepo,
		routeRepo:      c.RouteRepo,
		logger:         c.Logger,
		gridSize:       c.GridSize,
		cellSize:       c.CellSize,
		stepThreshold:  c.StepThreshold,
		stepRefractory: c.StepRefractory,
		idleTimeout:    c.IdleTimeout,
	}

	m.garbageCollectionTicker = time.NewTicker(m.idleTimeout)
	m.garbageCollectionStop = make(chan bool, 1)
	go m.sessionGarbageCollection()

	return m, nil
}

// Start begins or resumes the visitor's walk. The first start builds the
// session: distributed lock, map and route snapshots, tracker, navigator and
// sensor subscriptions. Later starts resume the existing session in place.
func (m *SessionManager) Start(userID uuid.UUID) error {
	m.Lock()
	defer m.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.lastActive = time.Now()
		return s.nav.Start()
	}

	s, err := m.newSession(userID)
	if err != nil {
		return err
	}
	m.sessions[userID] = s

	go s.nav.Run()
	go m.pumpStates(s)

	m.logger.Info(fmt.Sprintf("navigation session created for %s", userID))
	return s.nav.Start()
}

// Stop pauses the visitor's walk. The session stays resumable until it idles
// out.
func (m *SessionManager) Stop(userID uuid.UUID) error {
	m.RLock()
	s, ok := m.sessions[userID]
	m.RUnlock()
	if !ok {
		return i.ErrNoSession
	}

	s.nav.Stop()
	return nil
}

// SetPath replaces the route the visitor's live session is following.
func (m *SessionManager) SetPath(userID uuid.UUID, p pathfind.Path) error {
	m.RLock()
	s, ok := m.sessions[userID]
	m.RUnlock()
	if !ok {
		return i.ErrNoSession
	}

	s.nav.SetPath(p)
	return nil
}

// State returns the live navigation snapshot.
func (m *SessionManager) State(userID uuid.UUID) (navigation.State, error) {
	m.RLock()
	s, ok := m.sessions[userID]
	m.RUnlock()
	if !ok {
		return navigation.State{}, i.ErrNoSession
	}

	return s.nav.State(), nil
}

// Watch subscribes to the visitor's state snapshots, primed with the current
// one. The returned cancel function releases the subscription; the channel
// also closes when the session is torn down.
func (m *SessionManager) Watch(userID uuid.UUID) (<-chan navigation.State, func(), error) {
	m.Lock()
	defer m.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil, i.ErrNoSession
	}

	ch := make(chan navigation.State, watchBuffer)
	ch <- s.nav.State()
	s.watchers[ch] = struct{}{}

	cancel := func() {
		m.Lock()
		defer m.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}

	return ch, cancel, nil
}

// Active reports whether the visitor has a live session.
func (m *SessionManager) Active(userID uuid.UUID) bool {
	m.RLock()
	defer m.RUnlock()
	_, ok := m.sessions[userID]
	return ok
}

// StopAll tears down every live session and the garbage collector. Used on
// shutdown so distributed locks are released instead of left to expire.
func (m *SessionManager) StopAll() {
	m.garbageCollectionStop <- true
	m.garbageCollectionTicker.Stop()

	m.RLock()
	sessions := make(map[uuid.UUID]*session, len(m.sessions))
	for id, s := range m.sessions {
		sessions[id] = s
	}
	m.RUnlock()

	for id, s := range sessions {
		m.clean(id, s)
	}
}

// newSession builds the machinery for one visitor's walk. Callers hold the
// manager lock.
func (m *SessionManager) newSession(userID uuid.UUID) (*session, error) {
	release, err := m.cache.AcquireSessionLock(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", i.ErrSessionBusy, err)
	}

	g, err := m.loadGrid(userID)
	if err != nil {
		_ = release()
		return nil, err
	}

	route := m.loadRoute(userID)
	path := route.CellPath(m.cellSize)
	if len(path) == 0 {
		_ = release()
		return nil, i.ErrNoRoute
	}

	tracker := motion.NewTracker(
		motion.TrackerWithThreshold(m.stepThreshold),
		motion.TrackerWithRefractory(m.stepRefractory),
	)

	options := []navigation.Option{
		navigation.NavigatorWithPath(path),
		navigation.NavigatorWithVoice(&sessionVoice{userID: userID, voice: m.voice}),
		navigation.NavigatorWithRecorder(&sessionRecorder{
			userID:    userID,
			cache:     m.cache,
			routeRepo: m.routeRepo,
			cellSize:  m.cellSize,
			logger:    m.logger,
		}),
	}

	// Resume from the last recorded position when it is still usable on
	// the current map.
	if cell, err := m.cache.Live(userID); err == nil && cell != nil && g.InBounds(*cell) && !g.IsWall(*cell) {
		options = append(options, navigation.NavigatorWithCell(*cell))
	}

	nav, err := navigation.New(navigation.Config{Grid: g, Tracker: tracker}, options...)
	if err != nil {
		_ = release()
		return nil, err
	}

	if err := m.sensors.Subscribe(userID, tracker.HandleAcceleration, tracker.HandleMagnetic); err != nil {
		_ = release()
		return nil, fmt.Errorf("subscribing sensor streams: %w", err)
	}

	return &session{
		nav:         nav,
		tracker:     tracker,
		releaseLock: release,
		lastActive:  time.Now(),
		watchers:    make(map[chan navigation.State]struct{}),
	}, nil
}

// loadGrid returns the visitor's map, degrading to the default layout when
// none is stored or the stored one is unusable.
func (m *SessionManager) loadGrid(userID uuid.UUID) (*grid.Grid, error) {
	g, err := m.gridRepo.ByUser(userID)
	if err == nil {
		return g, nil
	}

	if !errors.Is(err, i.ErrNotFound) {
		m.logger.Warning(fmt.Sprintf("stored map for %s unusable, walking the default: %s", userID, err))
	}

	return grid.DefaultLayout(m.gridSize)
}

// loadRoute returns the visitor's route record, degrading to an empty one.
func (m *SessionManager) loadRoute(userID uuid.UUID) *dmn.Route {
	route, err := m.routeRepo.ByUser(userID)
	if err == nil {
		return route
	}

	if !errors.Is(err, i.ErrNotFound) {
		m.logger.Warning(fmt.Sprintf("stored route for %s unusable: %s", userID, err))
	}
	return &dmn.Route{UserID: userID, Algorithm: pathfind.AStar}
}

// pumpStates fans navigator snapshots out to watchers and keeps the session
// marked active while states flow.
func (m *SessionManager) pumpStates(s *session) {
	for {
		select {
		case <-s.nav.Done():
			return
		case st := <-s.nav.StateChan:
			m.Lock()
			s.lastActive = time.Now()
			for ch := range s.watchers {
				select {
				case ch <- st:
				default:
				}
			}
			m.Unlock()
		}
	}
}

// clean tears one session down: sensors, navigator loop, watchers, map entry
// and the distributed lock. An arrived walk also clears the live cell so the
// next session starts fresh from the route's head.
func (m *SessionManager) clean(userID uuid.UUID, s *session) {
	if err := m.sensors.Unsubscribe(userID); err != nil {
		m.logger.Warning(fmt.Sprintf("unsubscribing sensors for %s: %s", userID, err))
	}

	arrived := s.nav.State().Status == navigation.Arrived
	s.nav.Shutdown()

	m.Lock()
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	delete(m.sessions, userID)
	m.Unlock()

	if arrived {
		if err := m.cache.ClearLive(userID); err != nil {
			m.logger.Warning(fmt.Sprintf("clearing live cell for %s: %s", userID, err))
		}
	}

	if err := s.releaseLock(); err != nil {
		m.logger.Warning(fmt.Sprintf("releasing session lock for %s: %s", userID, err))
	}

	m.logger.Info(fmt.Sprintf("navigation session ended for %s", userID))
}

// sessionGarbageCollection reaps sessions that saw no state changes for the
// idle timeout.
func (m *SessionManager) sessionGarbageCollection() {
	for {
		select {
		case <-m.garbageCollectionStop:
			return
		case <-m.garbageCollectionTicker.C:
			m.reapIdle()
		}
	}
}

// reapIdle collects expired sessions outside the lock, then cleans them.
func (m *SessionManager) reapIdle() {
	expired := make(map[uuid.UUID]*session)

	m.RLock()
	for id, s := range m.sessions {
		if time.Since(s.lastActive) > m.idleTimeout {
			expired[id] = s
		}
	}
	m.RUnlock()

	for id, s := range expired {
		m.logger.Info(fmt.Sprintf("reaping idle navigation session for %s", id))
		m.clean(id, s)
	}
}

// sessionVoice narrows the broadcast publisher to one visitor's walk.
type sessionVoice struct {
	userID uuid.UUID
	voice  i.VoicePublisher
}

func (v *sessionVoice) Speak(text string) {
	v.voice.Speak(v.userID, text)
}

// sessionRecorder persists committed cells to the live cache, the breadcrumb
// trail and the route record. Failures are logged and swallowed; navigation
// never waits on storage.
type sessionRecorder struct {
	userID    uuid.UUID
	cache     i.LiveCache
	routeRepo i.RouteRepo
	cellSize  float64
	logger    i.Logger
}

func (r *sessionRecorder) RecordLocation(c grid.Cell) {
	if err := r.cache.SetLive(r.userID, c); err != nil {
		r.logger.Warning(fmt.Sprintf("recording live cell for %s: %s", r.userID, err))
	}

	if err := r.cache.AppendTrail(r.userID, c, time.Now()); err != nil {
		r.logger.Warning(fmt.Sprintf("appending trail for %s: %s", r.userID, err))
	}

	point := dmn.PixelFromCell(c, r.cellSize)
	if err := r.routeRepo.UpdateCurrent(r.userID, &point); err != nil {
		r.logger.Warning(fmt.Sprintf("persisting route position for %s: %s", r.userID, err))
	}
}
