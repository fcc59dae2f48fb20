package lazy

import (
	"reflect"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		value   string
		present bool
		want    Mode
	}{
		{"", false, Off},
		{"dynamic", false, Off},
		{"", true, Dynamic},
		{"dynamic", true, Dynamic},
		{"  DYNAMIC ", true, Dynamic},
		{"first-slide", true, FirstSlide},
		{"First-Slide", true, FirstSlide},
		{"eager", true, Off},
		{"off", true, Off},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.value, tt.present); got != tt.want {
			t.Errorf("ParseMode(%q, %v) = %v, want %v", tt.value, tt.present, got, tt.want)
		}
	}
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Off, Dynamic, FirstSlide} {
		b, err := m.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Mode
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != m {
			t.Errorf("round trip of %v gave %v", m, got)
		}
	}

	var m Mode
	if err := m.UnmarshalText([]byte("sometimes")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestInitialRange(t *testing.T) {
	if got := InitialRange(Off, 3); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("Off: got %v", got)
	}
	if got := InitialRange(Dynamic, 3); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Dynamic: got %v", got)
	}
	if got := InitialRange(FirstSlide, 3); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("FirstSlide: got %v", got)
	}
	if got := InitialRange(Off, 0); got != nil {
		t.Errorf("empty: got %v", got)
	}
}

func TestTransitionRange(t *testing.T) {
	tests := []struct {
		from, to int
		want     []int
	}{
		{1, 4, []int{2, 3, 4}},
		{4, 1, []int{1, 2, 3}},
		{2, 2, nil},
		{0, 1, []int{1}},
	}
	for _, tt := range tests {
		if got := TransitionRange(tt.from, tt.to); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("TransitionRange(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDragRange(t *testing.T) {
	if got := DragRange(1, 9, 4); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("clipped forward range: got %v", got)
	}
	if got := DragRange(2, -3, 4); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("clipped backward range: got %v", got)
	}
	if got := DragRange(0, 0, 0); got != nil {
		t.Errorf("empty: got %v", got)
	}
}

func TestLoadedSet(t *testing.T) {
	s := NewLoadedSet()
	if !s.Add("a.png") {
		t.Fatal("first add should be new")
	}
	if s.Add("a.png") {
		t.Error("second add should be a duplicate")
	}
	s.Add("b.png")
	if !s.Has("b.png") || s.Has("c.png") {
		t.Error("membership mismatch")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
