// Package lazy decides which slide images must be materialized and when.
package lazy

import (
	"fmt"
	"strings"
)

// Mode is the image loading policy of a slider. It is fixed when the slider
// is initialized.
type Mode int

const (
	// Off loads every image up front.
	Off Mode = iota
	// Dynamic loads images as navigation reaches them.
	Dynamic
	// FirstSlide eagerly loads only the first slide and sizes the slider from it.
	FirstSlide
)

// ParseMode interprets the lazy attribute. present reports whether the
// attribute exists at all.
func ParseMode(value string, present bool) Mode {
	if !present {
		return Off
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "dynamic":
		return Dynamic
	case "first-slide":
		return FirstSlide
	default:
		return Off
	}
}

func (m Mode) String() string {
	switch m {
	case Dynamic:
		return "dynamic"
	case FirstSlide:
		return "first-slide"
	default:
		return "off"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unlike ParseMode it
// rejects unknown values.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "off", "false":
		*m = Off
	case "", "dynamic", "true":
		*m = Dynamic
	case "first-slide":
		*m = FirstSlide
	default:
		return fmt.Errorf("unknown lazy mode %q", text)
	}
	return nil
}

// InitialRange returns the slides to materialize when the slider starts.
func InitialRange(mode Mode, length int) []int {
	if length < 1 {
		return nil
	}
	if mode != Off {
		return []int{0}
	}
	out := make([]int, length)
	for i := range out {
		out[i] = i
	}
	return out
}

// TransitionRange returns the slides passed over when moving from one index
// to another: everything strictly after from up to and including to, in
// ascending order. Moving backwards yields to..from-1.
func TransitionRange(from, to int) []int {
	var out []int
	switch {
	case to < from:
		for k := to; k < from; k++ {
			out = append(out, k)
		}
	case from < to:
		for k := from + 1; k <= to; k++ {
			out = append(out, k)
		}
	}
	return out
}

// DragRange returns the slides to warm while a drag is projected to land on
// projected, clipped to the sequence.
func DragRange(current, projected, length int) []int {
	if length < 1 {
		return nil
	}
	projected = min(max(projected, 0), length-1)
	return TransitionRange(current, projected)
}

// LoadedSet records image sources that finished loading. It only grows.
type LoadedSet struct {
	seen map[string]struct{}
}

// NewLoadedSet creates an empty set.
func NewLoadedSet() *LoadedSet {
	return &LoadedSet{seen: make(map[string]struct{})}
}

// Add records src and reports whether it was new.
func (s *LoadedSet) Add(src string) bool {
	if _, ok := s.seen[src]; ok {
		return false
	}
	s.seen[src] = struct{}{}
	return true
}

// Has reports whether src was recorded.
func (s *LoadedSet) Has(src string) bool {
	_, ok := s.seen[src]
	return ok
}

// Len returns the number of recorded sources.
func (s *LoadedSet) Len() int {
	return len(s.seen)
}
