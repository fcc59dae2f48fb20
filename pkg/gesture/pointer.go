package gesture

// Pointer is a single pointer interaction sample: a mouse event or a touch
// event. Only the horizontal coordinate matters to the carousel.
type Pointer interface {
	// ClientX returns the horizontal viewport coordinate, or false when the
	// event carries no usable position.
	ClientX() (float64, bool)
}

// Mouse is a mouse (or pen) sample.
type Mouse struct {
	X float64
}

// ClientX implements Pointer.
func (m Mouse) ClientX() (float64, bool) {
	return m.X, true
}

// TouchPoint is a single finger position.
type TouchPoint struct {
	X float64
}

// Touch is a touch sample. The lists mirror the three touch lists a touch
// event carries; the first non-empty one wins, in the order Changed, Touches,
// Targets. Fallback is used when all three are empty.
type Touch struct {
	Changed  []TouchPoint
	Touches  []TouchPoint
	Targets  []TouchPoint
	Fallback *float64
}

// ClientX implements Pointer.
func (t Touch) ClientX() (float64, bool) {
	switch {
	case len(t.Changed) > 0:
		return t.Changed[0].X, true
	case len(t.Touches) > 0:
		return t.Touches[0].X, true
	case len(t.Targets) > 0:
		return t.Targets[0].X, true
	case t.Fallback != nil:
		return *t.Fallback, true
	}
	return 0, false
}
