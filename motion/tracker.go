/*
Package motion turns raw phone sensor streams into discrete navigation
events.

The Tracker consumes accelerometer and magnetometer samples in arrival order
and produces two event streams: StepEvent, emitted once per detected
footstep, and HeadingUpdate, emitted for every magnetometer sample.

Step detection is a peak latch with a refractory window. A step fires when
the acceleration magnitude crosses the threshold upward, and the latch must
drop below the threshold before another step can fire. Steps closer together
than the refractory window are ignored as bounce. Heading is the horizontal
field angle, normalized to [0,360); samples are taken as-is with no
smoothing.

Event channels use latest-effort delivery: when a consumer lags, new events
are dropped rather than blocking the sensor feed.
*/
package motion

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultStepThreshold is the acceleration magnitude, gravity included,
	// that counts as a footstep peak for a phone carried in hand.
	DefaultStepThreshold = 11.5

	// DefaultRefractory is the minimum spacing between two counted steps.
	DefaultRefractory = 300 * time.Millisecond

	defaultEventBuffer = 64
)

// TrackerOption configures optional Tracker parameters.
type TrackerOption func(*Tracker)

// Tracker holds the dead-reckoning sensor state for one walking user.
type Tracker struct {
	threshold  float64
	refractory time.Duration

	mu           sync.Mutex
	peakLatched  bool
	lastStepAt   time.Time
	heading      float64
	headingKnown bool

	steps    chan StepEvent
	headings chan HeadingUpdate
}

// NewTracker creates a tracker with the default threshold, refractory window
// and event buffers unless options say otherwise.
func NewTracker(options ...TrackerOption) *Tracker {
	t := &Tracker{}

	for _, opt := range options {
		opt(t)
	}

	if t.threshold <= 0 {
		t.threshold = DefaultStepThreshold
	}
	if t.refractory <= 0 {
		t.refractory = DefaultRefractory
	}
	if t.steps == nil {
		t.steps = make(chan StepEvent, defaultEventBuffer)
	}
	if t.headings == nil {
		t.headings = make(chan HeadingUpdate, defaultEventBuffer)
	}

	return t
}

// HandleAcceleration consumes one accelerometer sample, stamping it with the
// arrival time. Safe for concurrent use.
func (t *Tracker) HandleAcceleration(s AccelSample) {
	t.ingestAccel(s, time.Now())
}

// HandleMagnetic consumes one magnetometer sample, stamping it with the
// arrival time. Safe for concurrent use.
func (t *Tracker) HandleMagnetic(s MagSample) {
	t.ingestMag(s, time.Now())
}

// Steps returns the footstep event stream.
func (t *Tracker) Steps() <-chan StepEvent {
	return t.steps
}

// Headings returns the heading update stream.
func (t *Tracker) Headings() <-chan HeadingUpdate {
	return t.headings
}

// Heading returns the most recent heading and whether any magnetometer
// sample has arrived yet.
func (t *Tracker) Heading() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heading, t.headingKnown
}

// ingestAccel applies the peak latch to one sample. The latch engages on any
// threshold crossing, even inside the refractory window, so a long loud peak
// still counts as a single step.
func (t *Tracker) ingestAccel(s AccelSample, at time.Time) {
	magnitude := math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)

	t.mu.Lock()
	if magnitude <= t.threshold {
		t.peakLatched = false
		t.mu.Unlock()
		return
	}

	if t.peakLatched {
		t.mu.Unlock()
		return
	}
	t.peakLatched = true

	if !t.lastStepAt.IsZero() && at.Sub(t.lastStepAt) <= t.refractory {
		t.mu.Unlock()
		return
	}
	t.lastStepAt = at
	t.mu.Unlock()

	t.emitStep(StepEvent{Magnitude: magnitude, At: at})
}

// ingestMag converts one magnetometer sample to a heading update.
func (t *Tracker) ingestMag(s MagSample, at time.Time) {
	degrees := normalize360(math.Atan2(s.My, s.Mx) * 180 / math.Pi)

	t.mu.Lock()
	t.heading = degrees
	t.headingKnown = true
	t.mu.Unlock()

	t.emitHeading(HeadingUpdate{Degrees: degrees, At: at})
}

func (t *Tracker) emitStep(ev StepEvent) {
	select {
	case t.steps <- ev:
	default:
	}
}

func (t *Tracker) emitHeading(ev HeadingUpdate) {
	select {
	case t.headings <- ev:
	default:
	}
}

// normalize360 folds an angle into [0,360).
func normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// TrackerWithThreshold overrides the step detection threshold.
func TrackerWithThreshold(v float64) TrackerOption {
	return func(t *Tracker) {
		t.threshold = v
	}
}

// TrackerWithRefractory overrides the minimum spacing between steps.
func TrackerWithRefractory(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.refractory = d
	}
}

// TrackerWithEventBuffer overrides the event channel capacity.
func TrackerWithEventBuffer(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.steps = make(chan StepEvent, n)
			t.headings = make(chan HeadingUpdate, n)
		}
	}
}
