// Package ui hosts a carousel in the terminal with Bubble Tea.
//
// The Model implements slider.Host: the screen is split into a header, the
// slide strip flanked by previous/next columns, a row of navigation dots and
// a footer. Mouse drags on the strip are converted to pixels with the
// configured cell size and fed to the slider as pointer gestures, so swipes,
// flicks and edge taps behave as they do in a browser.
package ui

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/Dicklesworthstone/carousel/pkg/export"
	"github.com/Dicklesworthstone/carousel/pkg/gesture"
	"github.com/Dicklesworthstone/carousel/pkg/lazy"
	"github.com/Dicklesworthstone/carousel/pkg/loader"
	"github.com/Dicklesworthstone/carousel/pkg/model"
	"github.com/Dicklesworthstone/carousel/pkg/slide"
	"github.com/Dicklesworthstone/carousel/pkg/slider"
)

// Options configures a Model.
type Options struct {
	// CellWidth and CellHeight are the pixel size of one terminal cell.
	CellWidth  int
	CellHeight int
	// Breakpoint is the widest viewport in pixels that shows mobile images.
	Breakpoint int
	// ResizeDebounce delays layout work until resizes settle.
	ResizeDebounce time.Duration
	// Lazy overrides the deck's lazy attribute.
	Lazy *lazy.Mode
	// StartIndex is the slide shown first.
	StartIndex int

	Renderer *lipgloss.Renderer

	// OpenURL follows a slide link. Defaults to the system browser.
	OpenURL func(url string) error
	// CopyText puts text on the clipboard.
	CopyText func(text string) error
	// OnIndex is called whenever the shown slide changes.
	OnIndex func(index int, mobile bool)
	// Reload re-reads the deck from disk.
	Reload func() (*model.Deck, error)
}

// ReloadMsg replaces the deck. The current index is kept when it still exists.
type ReloadMsg struct {
	Deck *model.Deck
	Err  error
}

type imageLoadedMsg struct {
	src string
	img image.Image
	err error
}

type resizeMsg struct{ seq int }

type animateMsg struct{}

type statusClearMsg struct{ seq int }

// animationFrame is the redraw interval while a transition runs.
const animationFrame = time.Second / 60

type artKey struct {
	src        string
	cols, rows int
}

type titleKey struct {
	title string
	cols  int
}

// Model is the Bubble Tea model of the viewer.
type Model struct {
	opts  Options
	deck  *model.Deck
	theme Theme
	keys  KeyMap

	help    help.Model
	overlay HelpOverlayModel
	search  textinput.Model
	matches []fuzzy.Match

	slider *slider.Slider
	host   *host

	width, height int
	ready         bool
	inert         bool
	searching     bool
	pressed       bool

	ctx     context.Context
	cancel  context.CancelFunc
	images  map[string]image.Image
	failed  map[string]error
	loading map[string]bool
	pending []string

	arts   map[artKey][]string
	titles map[titleKey][]string
	glam   map[int]*glamour.TermRenderer

	resizeSeq int
	ticking   bool
	wantTick  bool

	lastIndex  int
	lastMobile bool

	status    string
	statusErr bool
	statusSeq int

	now  func() time.Time
	tick func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
	load func(ctx context.Context, src string) (image.Image, error)
}

// dotHit is the screen cell of a navigation dot.
type dotHit struct {
	x, y  int
	index int
}

// NewModel creates a viewer for deck.
func NewModel(deck *model.Deck, opts Options) *Model {
	if opts.CellWidth <= 0 {
		opts.CellWidth = 8
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = 16
	}
	if opts.Breakpoint <= 0 {
		opts.Breakpoint = slider.DefaultBreakpoint
	}
	if opts.OpenURL == nil {
		opts.OpenURL = export.OpenInBrowser
	}
	if opts.CopyText == nil {
		opts.CopyText = clipboard.WriteAll
	}

	theme := DefaultTheme(opts.Renderer)
	keys := DefaultKeyMap()

	ti := textinput.New()
	ti.Placeholder = "Jump to title..."
	ti.Prompt = "/ "
	ti.CharLimit = 100

	h := help.New()
	h.Styles.ShortKey = theme.Renderer.NewStyle().Foreground(theme.Primary)
	h.Styles.ShortDesc = theme.Renderer.NewStyle().Foreground(theme.Muted)
	h.Styles.ShortSeparator = theme.Renderer.NewStyle().Foreground(theme.Border)

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		opts:      opts,
		theme:     theme,
		keys:      keys,
		help:      h,
		overlay:   NewHelpOverlayModel(theme, keys),
		search:    ti,
		ctx:       ctx,
		cancel:    cancel,
		images:    make(map[string]image.Image),
		failed:    make(map[string]error),
		loading:   make(map[string]bool),
		arts:      make(map[artKey][]string),
		titles:    make(map[titleKey][]string),
		glam:      make(map[int]*glamour.TermRenderer),
		lastIndex: -1,
		now:       time.Now,
		tick:      tea.Tick,
		load:      loadImage,
	}
	m.setDeck(deck)
	return m
}

func loadImage(ctx context.Context, src string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, loader.DefaultFetchTimeout)
	defer cancel()
	return loader.DecodeImage(ctx, src)
}

// setDeck builds a fresh slider and host for deck.
func (m *Model) setDeck(deck *model.Deck) {
	if deck == nil {
		deck = &model.Deck{}
	}
	m.deck = deck
	m.slider = slider.New(
		slider.WithViewport(slider.Breakpoint{
			Width: func() float64 { return float64(m.width * m.opts.CellWidth) },
			Max:   float64(m.opts.Breakpoint),
		}),
		slider.WithClock(func() time.Time { return m.now() }),
	)

	m.host = &host{parts: map[slider.Role]*part{
		slider.RoleContainer: newPart(slider.RoleContainer, m.screenBounds),
		slider.RoleContent:   newPart(slider.RoleContent, m.contentBounds),
		slider.RoleButtons:   newPart(slider.RoleButtons, nil),
		slider.RoleSideNav:   newPart(slider.RoleSideNav, nil),
	}}

	measure := slide.MeasurerFunc(func(s *slide.Slide) int {
		return len(m.slideLines(s, m.contentCols()))
	})
	for _, attrs := range deck.Slides {
		s := slide.New(attrs, measure, m.request)
		if s == nil {
			continue
		}
		s.OnImage(func(ev slide.ImageEvent) {
			m.slider.ImageLoaded(ev.Source, ev.Complete)
		})
		m.host.views = append(m.host.views, &slideView{
			Slide:   s,
			now:     func() time.Time { return m.now() },
			onStyle: func() { m.wantTick = true },
		})
	}
}

// request queues an image load for the next command batch.
func (m *Model) request(_ *slide.Slide, src string) {
	m.pending = append(m.pending, src)
}

// attach initializes the slider once the screen size is known.
func (m *Model) attach(start int) {
	mode := m.deck.LazyMode()
	if m.opts.Lazy != nil {
		mode = *m.opts.Lazy
	}
	m.inert = !m.slider.Initialize(m.host, mode)
	if m.inert || m.slider.Len() == 0 {
		return
	}
	if start > 0 {
		m.slider.SetIndex(min(start, m.slider.Len()-1))
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Close cancels in-flight image loads.
func (m *Model) Close() {
	m.cancel()
}

// Index returns the shown slide.
func (m *Model) Index() int {
	return m.slider.Index()
}

// Mobile reports whether the mobile images are shown.
func (m *Model) Mobile() bool {
	return m.slider.Mobile()
}

// Slider exposes the carousel controller.
func (m *Model) Slider() *slider.Slider {
	return m.slider
}

// Deck returns the deck being shown.
func (m *Model) Deck() *model.Deck {
	return m.deck
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.overlay.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		if !m.ready {
			m.ready = true
			m.attach(m.opts.StartIndex)
			return m, m.flush()
		}
		m.resizeSeq++
		seq := m.resizeSeq
		return m, m.tick(m.opts.ResizeDebounce, func(time.Time) tea.Msg { return resizeMsg{seq: seq} })

	case resizeMsg:
		if msg.seq != m.resizeSeq {
			return m, nil
		}
		m.resetLayoutCaches()
		m.slider.Resize()
		return m, m.flush()

	case imageLoadedMsg:
		return m, m.imageLoaded(msg)

	case animateMsg:
		m.ticking = false
		if m.animating() {
			m.wantTick = true
		}
		return m, m.flush()

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status, m.statusErr = "", false
		}
		return m, nil

	case ReloadMsg:
		if msg.Err != nil {
			return m, m.flash(fmt.Sprintf("Reload failed: %v", msg.Err), true)
		}
		m.reload(msg.Deck)
		return m, tea.Batch(m.flush(), m.flash("Deck reloaded", false))

	case tea.MouseMsg:
		if !m.ready || m.inert {
			return m, nil
		}
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.overlay.IsVisible() {
		m.overlay, _ = m.overlay.Update(msg)
		return nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.overlay.Toggle()
		return nil
	}
	if !m.ready || m.inert || m.slider.Len() == 0 {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Prev):
		m.slider.ToLeft()
	case key.Matches(msg, m.keys.Next):
		m.slider.ToRight()
	case key.Matches(msg, m.keys.First):
		m.slider.SetIndex(0)
	case key.Matches(msg, m.keys.Last):
		m.slider.SetIndex(m.slider.Len() - 1)
	case key.Matches(msg, m.keys.Open):
		return m.openLink()
	case key.Matches(msg, m.keys.Copy):
		return m.copyLink()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue("")
		m.matches = nil
		return m.search.Focus()
	case key.Matches(msg, m.keys.Reload):
		return m.reloadCmd()
	default:
		return nil
	}
	return m.flush()
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		if len(m.matches) > 0 {
			m.slider.SetIndex(m.matches[0].Index)
		}
		return m.flush()
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter()
	return cmd
}

// filter matches the search query against the titles of the active slides.
func (m *Model) filter() {
	query := m.search.Value()
	if query == "" {
		m.matches = nil
		return
	}
	active := m.slider.Active()
	titles := make([]string, len(active))
	for i, e := range active {
		if v, ok := e.Element.(*slideView); ok {
			titles[i] = v.Title()
			if titles[i] == "" {
				titles[i] = v.Source()
			}
		}
	}
	m.matches = fuzzy.Find(query, titles)
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.overlay.IsVisible() {
		if msg.Action == tea.MouseActionPress {
			m.overlay.Hide()
		}
		return nil
	}
	p := gesture.Mouse{X: float64(msg.X * m.opts.CellWidth)}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelLeft:
			m.slider.ToLeft()
			return m.flush()
		case tea.MouseButtonWheelDown, tea.MouseButtonWheelRight:
			m.slider.ToRight()
			return m.flush()
		case tea.MouseButtonLeft:
		default:
			return nil
		}

		if idx, ok := m.dotAt(msg.X, msg.Y); ok {
			m.slider.SetIndex(idx)
			return m.flush()
		}
		switch m.sideButtonAt(msg.X, msg.Y) {
		case -1:
			m.slider.ToLeft()
			return m.flush()
		case 1:
			m.slider.ToRight()
			return m.flush()
		}
		if m.inContent(msg.X, msg.Y) {
			m.pressed = true
			m.slider.PointerDown(p)
		}
		return nil

	case tea.MouseActionMotion:
		if !m.pressed {
			return nil
		}
		if !m.inContent(msg.X, msg.Y) {
			m.pressed = false
			m.slider.PointerLeave(p)
			return m.flush()
		}
		m.slider.PointerMove(p)
		return m.flush()

	case tea.MouseActionRelease:
		if !m.pressed {
			return nil
		}
		m.pressed = false
		res := m.slider.PointerUp(p)
		if res.Click && res.Outcome.Kind == gesture.KindClick {
			return tea.Batch(m.flush(), m.openLink())
		}
		return m.flush()
	}
	return nil
}

// current returns the shown slide.
func (m *Model) current() *slideView {
	active := m.slider.Active()
	i := m.slider.Index()
	if i < 0 || i >= len(active) {
		return nil
	}
	v, _ := active[i].Element.(*slideView)
	return v
}

func (m *Model) openLink() tea.Cmd {
	v := m.current()
	if v == nil || v.Link() == "" {
		return nil
	}
	link := v.Link()
	if err := m.opts.OpenURL(link); err != nil {
		log.Printf("Warning: could not open %s: %v", link, err)
		return m.flash(fmt.Sprintf("Could not open link: %v", err), true)
	}
	return m.flash("Opened "+link, false)
}

func (m *Model) copyLink() tea.Cmd {
	v := m.current()
	if v == nil || v.Link() == "" {
		return m.flash("Slide has no link", true)
	}
	if err := m.opts.CopyText(v.Link()); err != nil {
		return m.flash(fmt.Sprintf("Clipboard error: %v", err), true)
	}
	return m.flash("Copied link", false)
}

func (m *Model) reloadCmd() tea.Cmd {
	if m.opts.Reload == nil {
		return nil
	}
	reload := m.opts.Reload
	return func() tea.Msg {
		deck, err := reload()
		return ReloadMsg{Deck: deck, Err: err}
	}
}

// reload swaps in a new deck, keeping the index when possible.
func (m *Model) reload(deck *model.Deck) {
	index := m.slider.Index()
	m.slider.Teardown()
	m.images = make(map[string]image.Image)
	m.failed = make(map[string]error)
	m.loading = make(map[string]bool)
	m.pending = nil
	m.pressed = false
	m.resetLayoutCaches()
	m.setDeck(deck)
	if m.ready {
		m.attach(index)
	}
}

func (m *Model) flash(text string, isErr bool) tea.Cmd {
	m.status, m.statusErr = text, isErr
	m.statusSeq++
	seq := m.statusSeq
	return m.tick(3*time.Second, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

// flush turns the side effects of slider calls into commands: queued image
// loads, an animation frame and the index callback.
func (m *Model) flush() tea.Cmd {
	var cmds []tea.Cmd
	for _, src := range m.pending {
		if cmd := m.loadCmd(src); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.pending = nil

	if m.wantTick && !m.ticking {
		m.ticking = true
		cmds = append(cmds, m.tick(animationFrame, func(time.Time) tea.Msg { return animateMsg{} }))
	}
	m.wantTick = false

	if m.ready && !m.inert && m.slider.Len() > 0 {
		idx, mobile := m.slider.Index(), m.slider.Mobile()
		if idx != m.lastIndex || mobile != m.lastMobile {
			m.lastIndex, m.lastMobile = idx, mobile
			if m.opts.OnIndex != nil {
				m.opts.OnIndex(idx, mobile)
			}
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) loadCmd(src string) tea.Cmd {
	if img, ok := m.images[src]; ok {
		return func() tea.Msg { return imageLoadedMsg{src: src, img: img} }
	}
	if err, ok := m.failed[src]; ok {
		return func() tea.Msg { return imageLoadedMsg{src: src, err: err} }
	}
	if m.loading[src] {
		return nil
	}
	m.loading[src] = true
	ctx, load, resolved := m.ctx, m.load, m.deck.Resolve(src)
	return func() tea.Msg {
		img, err := load(ctx, resolved)
		return imageLoadedMsg{src: src, img: img, err: err}
	}
}

func (m *Model) imageLoaded(msg imageLoadedMsg) tea.Cmd {
	delete(m.loading, msg.src)
	if msg.err != nil {
		if _, seen := m.failed[msg.src]; !seen {
			log.Printf("Warning: failed to load image %s: %v", msg.src, msg.err)
		}
		m.failed[msg.src] = msg.err
	} else {
		m.images[msg.src] = msg.img
	}
	for k := range m.arts {
		if k.src == msg.src {
			delete(m.arts, k)
		}
	}
	for _, v := range m.host.views {
		if v.Src() == msg.src {
			v.ImageLoaded(msg.src, msg.err == nil)
		}
	}
	return m.flush()
}

func (m *Model) animating() bool {
	at := m.now()
	for _, v := range m.host.views {
		if v.Visible() && v.animating(at) {
			return true
		}
	}
	return false
}

func (m *Model) resetLayoutCaches() {
	m.arts = make(map[artKey][]string)
	m.titles = make(map[titleKey][]string)
}

// Screen geometry, in cells.

func (m *Model) sideNavShown() bool {
	p := m.host.part(slider.RoleSideNav)
	return p != nil && p.display
}

func (m *Model) contentX() int {
	if m.sideNavShown() {
		return SideNavWidth
	}
	return 0
}

func (m *Model) contentCols() int {
	cols := m.width - 2*m.contentX()
	return max(cols, 0)
}

func (m *Model) footerRows() int {
	if m.width < BreakpointNarrow {
		return 1
	}
	return FooterRows
}

// stripRows is the space available to slides.
func (m *Model) stripRows() int {
	return max(m.height-HeaderRows-NavRows-m.footerRows(), 1)
}

// slideRows is the height the slider assigned to the strip.
func (m *Model) slideRows() int {
	rows := m.host.part(slider.RoleContent).minHeight
	return min(max(rows, 1), m.stripRows())
}

func (m *Model) screenBounds() slider.Rect {
	return slider.Rect{
		Width:  float64(m.width * m.opts.CellWidth),
		Height: float64(m.height * m.opts.CellHeight),
	}
}

func (m *Model) contentBounds() slider.Rect {
	return slider.Rect{
		X:      float64(m.contentX() * m.opts.CellWidth),
		Y:      float64(HeaderRows * m.opts.CellHeight),
		Width:  float64(m.contentCols() * m.opts.CellWidth),
		Height: float64(m.slideRows() * m.opts.CellHeight),
	}
}

func (m *Model) inContent(x, y int) bool {
	x0 := m.contentX()
	return x >= x0 && x < x0+m.contentCols() && y >= HeaderRows && y < HeaderRows+m.slideRows()
}

// sideButtonAt returns -1 for the previous button, 1 for the next button and
// 0 elsewhere.
func (m *Model) sideButtonAt(x, y int) int {
	if !m.sideNavShown() || y < HeaderRows || y >= HeaderRows+m.slideRows() {
		return 0
	}
	switch {
	case x < SideNavWidth:
		return -1
	case x >= m.width-SideNavWidth:
		return 1
	}
	return 0
}

func (m *Model) dotAt(x, y int) (int, bool) {
	for _, d := range m.dotLayout() {
		if y == d.y && (x == d.x || x == d.x+1) {
			return d.index, true
		}
	}
	return 0, false
}
