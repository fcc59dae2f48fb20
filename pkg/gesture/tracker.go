// Package gesture turns pointer and touch samples into carousel index
// decisions.
//
// A Tracker records where and when a gesture started. When the pointer is
// released the recorded origin and the release sample are combined into a
// Release, and Resolve classifies it as a click, a flick, a distance drag or
// an edge tap.
package gesture

import (
	"math"
	"time"
)

// Thresholds, in pixels and milliseconds.
const (
	// NoisePx is the displacement under which a gesture counts as a click.
	NoisePx = 5
	// SettlePx is the displacement under which a drag snaps back.
	SettlePx = 10
	// FlickMinPx is the minimum displacement of a flick.
	FlickMinPx = 100
	// FlickMaxElapsed is the maximum duration of a flick.
	FlickMaxElapsed = 200 * time.Millisecond
	// EdgeZone is the fraction of the container width treated as an edge.
	EdgeZone = 0.2
)

// Tracker holds the single in-flight gesture. The zero value is not usable;
// call NewTracker.
type Tracker struct {
	now     func() time.Time
	active  bool
	originX float64
	start   time.Time
}

// NewTracker creates a tracker reading time from now. A nil now uses time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

// Start records the origin of a new gesture, replacing any open one.
func (t *Tracker) Start(p Pointer) {
	x, ok := p.ClientX()
	if !ok {
		t.Clear()
		return
	}
	t.active = true
	t.originX = x
	t.start = t.now()
}

// Active reports whether a gesture is in progress.
func (t *Tracker) Active() bool {
	return t.active
}

// Clear forgets the current gesture.
func (t *Tracker) Clear() {
	t.active = false
	t.originX = 0
	t.start = time.Time{}
}

// Delta returns originX - currentX. A pointer moving left yields a positive
// delta, which advances the carousel.
func (t *Tracker) Delta(p Pointer) (float64, bool) {
	if !t.active {
		return 0, false
	}
	x, ok := p.ClientX()
	if !ok {
		return 0, false
	}
	return t.originX - x, true
}

// Elapsed returns the time since Start.
func (t *Tracker) Elapsed() time.Duration {
	if !t.active {
		return 0
	}
	return t.now().Sub(t.start)
}

// IsClick reports whether p should keep its native click behavior: no
// gesture is tracked, or the pointer moved less than NoisePx since it started.
func (t *Tracker) IsClick(p Pointer) bool {
	if !t.active {
		return true
	}
	if p == nil {
		return false
	}
	dx, ok := t.Delta(p)
	if !ok {
		return false
	}
	return math.Abs(dx) < NoisePx
}
