package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/carousel/pkg/config"
	"github.com/Dicklesworthstone/carousel/pkg/export"
	"github.com/Dicklesworthstone/carousel/pkg/lazy"
	"github.com/Dicklesworthstone/carousel/pkg/loader"
	"github.com/Dicklesworthstone/carousel/pkg/model"
	"github.com/Dicklesworthstone/carousel/pkg/slider"
	"github.com/Dicklesworthstone/carousel/pkg/store"
	"github.com/Dicklesworthstone/carousel/pkg/ui"
	"github.com/Dicklesworthstone/carousel/pkg/watcher"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	deck       string
	lazy       string
	index      int
	check      bool
	exportDir  string
	png        bool
	preview    bool
	port       int
	init       bool
	configPath string
	noState    bool
	noWatch    bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("carousel", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	help := fs.Bool("help", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.StringVar(&opts.deck, "deck", "", "Deck file or image directory (default: current directory)")
	fs.StringVar(&opts.lazy, "lazy", "", "Override lazy loading: off, dynamic or first-slide")
	fs.IntVar(&opts.index, "index", -1, "Slide to start on (default: last position)")
	fs.BoolVar(&opts.check, "check", false, "Verify every image and report aspect ratios")
	fs.StringVar(&opts.exportDir, "export", "", "Write a static site bundle to `dir`")
	fs.BoolVar(&opts.png, "png", false, "Also write PNG storyboards when exporting")
	fs.BoolVar(&opts.preview, "preview", false, "Serve the exported bundle in a browser")
	fs.IntVar(&opts.port, "port", 0, "Preview port (default: first free port from 9000)")
	fs.BoolVar(&opts.init, "init", false, "Create carousel.yaml from the images in the deck directory")
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "Config file")
	fs.BoolVar(&opts.noState, "no-state", false, "Do not remember positions")
	fs.BoolVar(&opts.noWatch, "no-watch", false, "Do not reload when the deck changes")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *help {
		fmt.Fprintln(stdout, "Usage: carousel [options]")
		fmt.Fprintln(stdout, "\nAn image carousel for the terminal.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if *showVersion {
		fmt.Fprintf(stdout, "carousel version %s\n", version)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if opts.lazy != "" {
		var m lazy.Mode
		if err := m.UnmarshalText([]byte(opts.lazy)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		cfg.Lazy = &m
	}

	if opts.init {
		if err := runInit(opts.deck, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	deck, err := loadDeck(opts.deck)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading deck: %v\n", err)
		fmt.Fprintln(stderr, "Point -deck at a carousel.yaml, a slides.jsonl or a directory of images.")
		return 1
	}
	if len(deck.Slides) == 0 {
		fmt.Fprintln(stdout, "The deck has no slides.")
		return 0
	}

	switch {
	case opts.check:
		return runCheck(deck, cfg, stdout, stderr)
	case opts.exportDir != "" || opts.preview:
		return runExport(deck, cfg, opts, stdout, stderr)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(stderr, "Error: carousel needs a terminal. Use -check or -export for scripted use.")
		return 1
	}
	if err := runTUI(deck, cfg, opts); err != nil {
		fmt.Fprintf(stderr, "Error running carousel: %v\n", err)
		return 1
	}
	return 0
}

func loadDeck(path string) (*model.Deck, error) {
	if path == "" {
		return loader.LoadDeck("")
	}
	return loader.LoadDeckFromFile(path)
}

// runCheck verifies every image of the deck and prints a report.
func runCheck(deck *model.Deck, cfg *config.Config, stdout, stderr io.Writer) int {
	reports, verr := loader.VerifyImages(context.Background(), deck, cfg.VerifyConcurrency)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("IMAGE", "FORMAT", "SIZE", "STATUS")
	for _, r := range reports {
		size, status := "-", "ok"
		if r.Err != nil {
			status = r.Err.Error()
		} else {
			size = fmt.Sprintf("%dx%d", r.Width, r.Height)
		}
		t.Row(r.Source, r.Format, size, status)
	}
	fmt.Fprintln(stdout, t.String())

	sum := loader.SummarizeAspects(reports)
	if sum.Count > 0 {
		fmt.Fprintf(stdout, "Aspect ratio: mean %.2f, stddev %.2f over %d images\n", sum.Mean, sum.StdDev, sum.Count)
	}
	if len(sum.Outliers) > 0 {
		fmt.Fprintf(stdout, "Outliers (will be letterboxed): %s\n", strings.Join(sum.Outliers, ", "))
	}

	if verr != nil {
		fmt.Fprintf(stderr, "Some images failed to load:\n%v\n", verr)
		return 1
	}
	return 0
}

// runExport writes the static bundle and optionally serves it.
func runExport(deck *model.Deck, cfg *config.Config, opts options, stdout, stderr io.Writer) int {
	dir := opts.exportDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "carousel-preview-")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	res, err := export.WriteBundle(export.BundleOptions{
		Dir:        dir,
		Deck:       deck,
		Breakpoint: cfg.Breakpoint,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error exporting: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %s (%d storyboards, %d images)\n", res.Index, len(res.Storyboards), len(res.Images))

	if opts.png {
		n, err := writePNGStoryboards(deck, dir)
		if err != nil {
			fmt.Fprintf(stderr, "Error writing PNG storyboards: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %d PNG storyboards\n", n)
	}

	if !opts.preview {
		return 0
	}
	if err := export.StartPreviewWithConfig(export.PreviewConfig{
		BundlePath:  dir,
		Port:        opts.port,
		OpenBrowser: true,
	}); err != nil {
		fmt.Fprintf(stderr, "Error serving preview: %v\n", err)
		return 1
	}
	return 0
}

// writePNGStoryboards draws one PNG per slide with image thumbnails. Images
// that fail to decode are drawn as empty frames.
func writePNGStoryboards(deck *model.Deck, dir string) (int, error) {
	ctx := context.Background()
	thumbs := make(map[string]image.Image)
	for _, src := range deck.Sources() {
		img, err := loader.DecodeImage(ctx, deck.Resolve(src))
		if err != nil {
			log.Printf("Warning: skipping thumbnail %s: %v", src, err)
			continue
		}
		thumbs[src] = loader.Fit(img, 320, 180)
	}

	n := 0
	for _, s := range deck.Slides {
		if !s.HasImage() {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("storyboard-%02d.png", n+1))
		if err := export.SaveStoryboard(export.StoryboardOptions{
			Path:       path,
			Deck:       deck,
			Index:      n,
			Thumbnails: thumbs,
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// runInit asks for the deck settings and writes carousel.yaml next to the
// images of dir.
func runInit(dir string, stdout io.Writer) error {
	if dir == "" {
		dir = "."
	}
	deck, err := loader.DeckFromImages(dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(deck.Path); err == nil {
		return fmt.Errorf("%s already exists", deck.Path)
	}

	title := filepath.Base(mustAbs(dir))
	mode := lazy.Off.String()
	confirm := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Deck title").
				Value(&title),
			huh.NewSelect[string]().
				Title("Lazy loading").
				Description(fmt.Sprintf("%d images found", len(deck.Slides))).
				Options(
					huh.NewOption("Load every image up front", lazy.Off.String()),
					huh.NewOption("Load images as slides are reached", lazy.Dynamic.String()),
					huh.NewOption("Load the first slide, size from it", lazy.FirstSlide.String()),
				).
				Value(&mode),
			huh.NewConfirm().
				Title("Write " + filepath.Base(deck.Path) + "?").
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !confirm {
		fmt.Fprintln(stdout, "Nothing written.")
		return nil
	}
	return writeInitDeck(deck, title, mode, stdout)
}

func writeInitDeck(deck *model.Deck, title, mode string, stdout io.Writer) error {
	deck.Title = strings.TrimSpace(title)
	if mode != lazy.Off.String() {
		deck.Lazy = &mode
	}
	if err := loader.SaveDeck(deck, deck.Path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s with %d slides\n", deck.Path, len(deck.Slides))
	return nil
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// runTUI runs the interactive viewer until the user quits.
func runTUI(deck *model.Deck, cfg *config.Config, opts options) error {
	if os.Getenv("CAROUSEL_DEBUG") != "" {
		f, err := tea.LogToFile("carousel-debug.log", "debug")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	key := mustAbs(deck.Path)
	start := max(opts.index, 0)

	var db *store.DB
	if !opts.noState && cfg.StatePath != "" {
		var err error
		db, err = store.OpenDBWithDriver(cfg.StateDriver, cfg.StatePath)
		if err != nil {
			log.Printf("Warning: state disabled: %v", err)
			db = nil
		} else {
			defer db.Close()
			if p, ok, err := db.Position(key); err == nil && ok && opts.index < 0 {
				cols, _, _ := term.GetSize(int(os.Stdout.Fd()))
				if idx, ok := restoreIndex(p, cols, cfg); ok {
					start = idx
				}
			}
		}
	}

	reload := func() (*model.Deck, error) {
		return loadDeck(opts.deck)
	}
	m := ui.NewModel(deck, ui.Options{
		CellWidth:      cfg.CellWidth,
		CellHeight:     cfg.CellHeight,
		Breakpoint:     cfg.Breakpoint,
		ResizeDebounce: cfg.ResizeDebounce,
		Lazy:           cfg.Lazy,
		StartIndex:     start,
		Reload:         reload,
		OnIndex: func(index int, mobile bool) {
			if db == nil {
				return
			}
			if err := db.SavePosition(store.Position{Deck: key, Index: index, Mobile: mobile}); err != nil {
				log.Printf("Warning: saving position: %v", err)
			}
			if err := db.RecordView(key, index); err != nil {
				log.Printf("Warning: recording view: %v", err)
			}
		},
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if cfg.Watch && !opts.noWatch {
		w, err := liveReload(deck, cfg.ReloadDebounce, reload, p.Send)
		if err != nil {
			log.Printf("Warning: live reload disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	_, err := p.Run()
	return err
}

// restoreIndex returns the saved index of p when it was recorded in the
// viewport class a terminal of cols columns starts in. The mobile and desktop
// sequences index different slides.
func restoreIndex(p store.Position, cols int, cfg *config.Config) (int, bool) {
	mobile := slider.Breakpoint{
		Width: func() float64 { return float64(cols * cfg.CellWidth) },
		Max:   float64(cfg.Breakpoint),
	}.IsMobile()
	if cols <= 0 || p.Mobile != mobile {
		return 0, false
	}
	return p.Index, true
}

// liveReload watches the deck and its local images, reloading the deck and
// following its new file set on every change.
func liveReload(deck *model.Deck, debounce time.Duration, reload func() (*model.Deck, error), send func(tea.Msg)) (*watcher.Watcher, error) {
	var w *watcher.Watcher
	ready := make(chan struct{})
	w, err := watcher.New(watchFiles(deck), watcher.NewDebouncer(debounce), func([]string) {
		<-ready
		d, err := reload()
		if err == nil {
			if serr := w.Set(watchFiles(d)); serr != nil {
				log.Printf("Warning: updating watch set: %v", serr)
			}
		}
		send(ui.ReloadMsg{Deck: d, Err: err})
	})
	if err != nil {
		return nil, err
	}
	close(ready)
	return w, nil
}

// watchFiles returns the deck file and its local images.
func watchFiles(deck *model.Deck) []string {
	files := []string{mustAbs(deck.Path)}
	for _, src := range deck.Sources() {
		if model.IsURL(src) {
			continue
		}
		files = append(files, mustAbs(deck.Resolve(src)))
	}
	return files
}
