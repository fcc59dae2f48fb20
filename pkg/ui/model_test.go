package ui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/carousel/pkg/lazy"
	"github.com/Dicklesworthstone/carousel/pkg/model"
	"github.com/Dicklesworthstone/carousel/pkg/slide"
	"github.com/Dicklesworthstone/carousel/pkg/slider"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	t      *testing.T
	m      *Model
	clock  *fakeClock
	loads  map[string]int
	opened []string
	copied []string
	index  []int
	ticks  []func(time.Time) tea.Msg
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var testImages = map[string]image.Image{
	"a.png":   solid(160, 90, color.RGBA{R: 255, A: 255}),
	"a-m.png": solid(90, 160, color.RGBA{R: 128, A: 255}),
	"b.png":   solid(160, 40, color.RGBA{G: 255, A: 255}),
	"c.png":   solid(160, 120, color.RGBA{B: 255, A: 255}),
	"c-m.png": solid(90, 90, color.RGBA{B: 128, A: 255}),
}

func testDeck() *model.Deck {
	return &model.Deck{
		Title: "Trip",
		Slides: []slide.Attributes{
			{ImageDesktop: "a.png", ImageMobile: "a-m.png", Title: "Beach", Link: "https://example.com/beach"},
			{ImageDesktop: "b.png", Title: "Forest"},
			{ImageDesktop: "c.png", ImageMobile: "c-m.png", Title: "Hills"},
		},
	}
}

func newHarness(t *testing.T, deck *model.Deck, opts Options) *harness {
	t.Helper()
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	opts.Renderer = r

	h := &harness{
		t:     t,
		clock: &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		loads: make(map[string]int),
	}
	opts.OpenURL = func(u string) error { h.opened = append(h.opened, u); return nil }
	opts.CopyText = func(s string) error { h.copied = append(h.copied, s); return nil }
	opts.OnIndex = func(i int, _ bool) { h.index = append(h.index, i) }

	h.m = NewModel(deck, opts)
	h.m.search.Cursor.SetMode(cursor.CursorStatic)
	h.m.now = h.clock.now
	h.m.tick = func(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
		h.ticks = append(h.ticks, fn)
		return nil
	}
	h.m.load = func(_ context.Context, src string) (image.Image, error) {
		h.loads[src]++
		if img, ok := testImages[src]; ok {
			return img, nil
		}
		return nil, errors.New("not found")
	}
	return h
}

// send delivers msg and runs every resulting command to completion.
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	_, cmd := h.m.Update(msg)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			h.run(c)
		}
		return
	}
	if msg == nil {
		return
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		return
	}
	h.send(msg)
}

func (h *harness) key(k string) {
	switch k {
	case "left":
		h.send(tea.KeyMsg{Type: tea.KeyLeft})
	case "right":
		h.send(tea.KeyMsg{Type: tea.KeyRight})
	case "enter":
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		h.send(tea.KeyMsg{Type: tea.KeyEsc})
	default:
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func (h *harness) mouse(action tea.MouseAction, x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
}

func (h *harness) size(w, ht int) {
	h.send(tea.WindowSizeMsg{Width: w, Height: ht})
}

// drainTicks fires every scheduled tick at the current time.
func (h *harness) drainTicks() {
	ticks := h.ticks
	h.ticks = nil
	for _, fn := range ticks {
		h.send(fn(h.clock.now()))
	}
}

// settleResize fires the pending resize tick.
func (h *harness) settleResize() {
	h.send(resizeMsg{seq: h.m.resizeSeq})
}

func TestInitializeOnFirstResize(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	assert.Equal(t, "Loading...", h.m.View())

	h.size(100, 30)
	s := h.m.Slider()
	require.True(t, s.Ready())
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Mobile())

	// Lazy loading is off: every desktop image is requested once.
	assert.Equal(t, map[string]int{"a.png": 1, "b.png": 1, "c.png": 1}, h.loads)
	assert.Equal(t, 3, s.Loaded())
	assert.Equal(t, []int{0}, h.index)

	content := h.m.host.part(slider.RoleContent).minHeight
	for _, v := range h.m.host.views {
		assert.LessOrEqual(t, len(h.m.slideLines(v.Slide, h.m.contentCols())), content)
	}
	assert.True(t, h.m.host.views[1].Expanded(), "the short slide fills the slider height")
	assert.False(t, h.m.host.views[2].Expanded(), "the tallest slide sets the height")
}

func TestKeyboardNavigationWraps(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.key("right")
	h.key("right")
	h.key("right")
	assert.Equal(t, 0, h.m.Index())
	h.key("left")
	assert.Equal(t, 2, h.m.Index())
	h.key("g")
	assert.Equal(t, 0, h.m.Index())
	h.key("G")
	assert.Equal(t, 2, h.m.Index())

	assert.Equal(t, []int{0, 1, 2, 0, 2, 0, 2}, h.index)
}

func TestDragFollowsPointerAndCommitsByDistance(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.mouse(tea.MouseActionPress, 40, 3)
	h.clock.advance(500 * time.Millisecond)
	h.mouse(tea.MouseActionMotion, 10, 3)

	cur := h.m.host.views[0]
	assert.Equal(t, -240.0, cur.Style().OffsetPx)
	assert.True(t, cur.Transition().None(), "drag styles apply without transition")

	h.mouse(tea.MouseActionRelease, 10, 3)
	assert.Equal(t, 1, h.m.Index())
	assert.Empty(t, h.opened)
}

func TestFlickSkipsAhead(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.mouse(tea.MouseActionPress, 60, 3)
	h.clock.advance(100 * time.Millisecond)
	h.mouse(tea.MouseActionRelease, 20, 3)
	assert.Equal(t, 2, h.m.Index())
}

func TestClickFollowsLink(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.mouse(tea.MouseActionPress, 40, 3)
	h.mouse(tea.MouseActionRelease, 40, 3)
	assert.Equal(t, []string{"https://example.com/beach"}, h.opened)
	assert.Equal(t, 0, h.m.Index())

	// Slide without a link: nothing to follow.
	h.key("right")
	h.mouse(tea.MouseActionPress, 40, 3)
	h.mouse(tea.MouseActionRelease, 40, 3)
	assert.Len(t, h.opened, 1)
}

func TestPointerLeavingContentEndsGesture(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.mouse(tea.MouseActionPress, 60, 3)
	h.clock.advance(time.Second)
	h.mouse(tea.MouseActionMotion, 1, 3)
	assert.False(t, h.m.Slider().Dragging())
	assert.Equal(t, 1, h.m.Index())

	// The release after leaving is ignored.
	h.mouse(tea.MouseActionRelease, 1, 3)
	assert.Equal(t, 1, h.m.Index())
}

func TestSideButtonsAndDots(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.mouse(tea.MouseActionPress, 0, 3)
	assert.Equal(t, 2, h.m.Index(), "previous wraps to the last slide")
	h.mouse(tea.MouseActionPress, 99, 3)
	assert.Equal(t, 0, h.m.Index())

	dots := h.m.dotLayout()
	require.Len(t, dots, 3)
	h.mouse(tea.MouseActionPress, dots[1].x, dots[1].y)
	assert.Equal(t, 1, h.m.Index())
}

func TestWheelNavigates(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.send(tea.MouseMsg{X: 40, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 1, h.m.Index())
	h.send(tea.MouseMsg{X: 40, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Equal(t, 0, h.m.Index())
}

func TestResizeSwitchesToMobileAfterDebounce(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)
	h.key("G")
	require.Equal(t, 2, h.m.Index())

	h.size(80, 30)
	assert.False(t, h.m.Mobile(), "layout waits for the resize to settle")
	h.send(resizeMsg{seq: h.m.resizeSeq - 1})
	assert.False(t, h.m.Mobile(), "stale resize ticks are ignored")

	h.settleResize()
	s := h.m.Slider()
	assert.True(t, s.Mobile())
	assert.Equal(t, 2, s.Len(), "only slides with a mobile image")
	assert.Equal(t, 1, s.Index(), "index clamps to the shorter sequence")
	assert.Equal(t, 1, h.loads["a-m.png"])
	assert.Equal(t, 1, h.loads["c-m.png"])

	h.size(120, 30)
	h.settleResize()
	assert.False(t, h.m.Mobile())
	assert.Equal(t, 3, h.m.Slider().Len())
}

func TestLazyFirstSlideLoadsOnDemand(t *testing.T) {
	mode := lazy.FirstSlide
	h := newHarness(t, testDeck(), Options{Lazy: &mode})
	h.size(100, 30)

	assert.Equal(t, map[string]int{"a.png": 1}, h.loads)
	h.key("right")
	assert.Equal(t, 1, h.loads["b.png"])
	assert.Zero(t, h.loads["c.png"])

	// The first slide alone sets the height.
	content := h.m.host.part(slider.RoleContent).minHeight
	assert.Equal(t, len(h.m.slideLines(h.m.host.views[0].Slide, h.m.contentCols())), content)
}

func TestSharedSourceLoadsOnce(t *testing.T) {
	deck := &model.Deck{Slides: []slide.Attributes{
		{ImageDesktop: "a.png"},
		{ImageDesktop: "a.png"},
	}}
	h := newHarness(t, deck, Options{})
	h.size(100, 30)

	assert.Equal(t, 1, h.loads["a.png"])
	for _, v := range h.m.host.views {
		assert.True(t, v.Loaded())
	}
	assert.Equal(t, 1, h.m.Slider().Loaded())
}

func TestFailedImageShowsPlaceholder(t *testing.T) {
	deck := &model.Deck{Slides: []slide.Attributes{{ImageDesktop: "missing.png", Title: "Gone"}}}
	h := newHarness(t, deck, Options{})
	h.size(100, 30)

	assert.Contains(t, h.m.View(), "missing.png")
	assert.False(t, h.m.host.views[0].Loaded())
	assert.False(t, h.m.sideNavShown(), "a single slide hides the side buttons")
	assert.Empty(t, h.m.dotLayout())
}

func TestSearchJumpsToTitle(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.key("/")
	require.True(t, h.m.searching)
	for _, r := range "Hil" {
		h.key(string(r))
	}
	require.NotEmpty(t, h.m.matches)
	h.key("enter")
	assert.False(t, h.m.searching)
	assert.Equal(t, 2, h.m.Index())

	h.key("/")
	h.key("x")
	h.key("esc")
	assert.Equal(t, 2, h.m.Index())
}

func TestCopyAndOpenLinkKeys(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)

	h.key("y")
	h.key("o")
	assert.Equal(t, []string{"https://example.com/beach"}, h.copied)
	assert.Equal(t, []string{"https://example.com/beach"}, h.opened)

	h.key("right")
	h.key("y")
	assert.Len(t, h.copied, 1)
	assert.True(t, h.m.statusErr)
}

func TestReloadKeepsIndex(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)
	h.key("G")

	bigger := testDeck()
	bigger.Slides = append(bigger.Slides, slide.Attributes{ImageDesktop: "b.png", Title: "Again"})
	h.send(ReloadMsg{Deck: bigger})
	assert.Equal(t, 4, h.m.Slider().Len())
	assert.Equal(t, 2, h.m.Index())

	smaller := &model.Deck{Slides: bigger.Slides[:2]}
	h.send(ReloadMsg{Deck: smaller})
	assert.Equal(t, 2, h.m.Slider().Len())
	assert.Equal(t, 1, h.m.Index())

	h.send(ReloadMsg{Err: errors.New("boom")})
	assert.True(t, h.m.statusErr)
	assert.Equal(t, 2, h.m.Slider().Len())
}

func TestReloadKeyUsesCallback(t *testing.T) {
	calls := 0
	h := newHarness(t, testDeck(), Options{Reload: func() (*model.Deck, error) {
		calls++
		return testDeck(), nil
	}})
	h.size(100, 30)
	h.key("r")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, h.m.Slider().Len())
}

func TestStartIndex(t *testing.T) {
	h := newHarness(t, testDeck(), Options{StartIndex: 7})
	h.size(100, 30)
	assert.Equal(t, 2, h.m.Index())
}

func TestAnimationTicksUntilTransitionEnds(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)
	h.clock.advance(time.Second)
	h.drainTicks()
	require.Empty(t, h.ticks)
	require.False(t, h.m.animating())

	h.key("right")
	require.Len(t, h.ticks, 1)
	assert.True(t, h.m.animating())

	h.clock.advance(100 * time.Millisecond)
	h.send(h.ticks[0](h.clock.now()))
	require.Len(t, h.ticks, 2, "still animating")

	h.clock.advance(time.Second)
	h.send(h.ticks[1](h.clock.now()))
	assert.Len(t, h.ticks, 2)
	assert.False(t, h.m.animating())
}

func TestViewRendersChrome(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	h.size(100, 30)
	h.clock.advance(time.Second)

	view := h.m.View()
	assert.Contains(t, view, "Trip")
	assert.Contains(t, view, "1/3")
	assert.Contains(t, view, GlyphPrev)
	assert.Contains(t, view, GlyphDotActive)
	assert.Contains(t, view, "Beach")
	assert.Contains(t, view, "example.com/beach")
	assert.Contains(t, view, "lazy: off")
	assert.LessOrEqual(t, len(strings.Split(view, "\n")), 30)

	h.key("?")
	assert.Contains(t, h.m.View(), "Carousel Help")
	h.key("x")
	assert.NotContains(t, h.m.View(), "Carousel Help")
}

func TestEmptyDeck(t *testing.T) {
	h := newHarness(t, &model.Deck{Slides: []slide.Attributes{{Title: "no image"}}}, Options{})
	h.size(100, 30)

	assert.Contains(t, h.m.View(), "No slides to show")
	h.key("right")
	h.mouse(tea.MouseActionPress, 40, 3)
	assert.Equal(t, 0, h.m.Index())
	assert.Empty(t, h.index)
}

func TestQuit(t *testing.T) {
	h := newHarness(t, testDeck(), Options{})
	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Error(t, h.m.ctx.Err())
}
