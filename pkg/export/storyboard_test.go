package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/carousel/pkg/model"
	"github.com/Dicklesworthstone/carousel/pkg/slide"
)

func testDeck() *model.Deck {
	return &model.Deck{
		Title: "Trip",
		Slides: []slide.Attributes{
			{ImageDesktop: "a.png", ImageMobile: "a-m.png", Title: "Beach", Link: "https://example.com"},
			{ImageDesktop: "b.png"},
			{Title: "no image"},
			{ImageDesktop: "c.png", ImageMobile: "c-m.png", Title: "Hills"},
		},
	}
}

func TestLayout(t *testing.T) {
	sb := Layout(testDeck(), 1, 100, 50, false)
	if len(sb.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(sb.Frames))
	}
	wantX := []float64{-100, 0, 100}
	for i, f := range sb.Frames {
		if f.X != wantX[i] {
			t.Errorf("frame %d X = %v, want %v", i, f.X, wantX[i])
		}
		if f.Current != (i == 1) {
			t.Errorf("frame %d Current = %v", i, f.Current)
		}
	}

	mobile := Layout(testDeck(), 5, 100, 50, true)
	if len(mobile.Frames) != 2 {
		t.Fatalf("mobile layout should only contain slides with a mobile image, got %d", len(mobile.Frames))
	}
	if mobile.Index != 1 {
		t.Errorf("index should wrap to 1, got %d", mobile.Index)
	}
	if mobile.Frames[1].Source != "c-m.png" {
		t.Errorf("mobile frame source = %q", mobile.Frames[1].Source)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	Layout(testDeck(), 0, 100, 50, false).WriteSVG(&buf)
	out := buf.String()

	if !strings.Contains(out, "<svg") {
		t.Fatal("expected an svg document")
	}
	if got := strings.Count(out, "<circle"); got != 3 {
		t.Errorf("expected 3 nav dots, got %d", got)
	}
	for _, id := range []string{`id="slide-0"`, `id="slide-1"`, `id="slide-2"`} {
		if !strings.Contains(out, id) {
			t.Errorf("missing group %s", id)
		}
	}
	if !strings.Contains(out, "1. Beach") {
		t.Error("expected slide title label")
	}
}

func TestSaveStoryboard_SVGAndPNG(t *testing.T) {
	thumb := image.NewRGBA(image.Rect(0, 0, 400, 300))
	thumb.Set(0, 0, color.RGBA{G: 255, A: 255})

	tmp := t.TempDir()
	for _, name := range []string{"board.svg", "board.png"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(tmp, name)
			err := SaveStoryboard(StoryboardOptions{
				Path:       out,
				Deck:       testDeck(),
				Index:      2,
				Thumbnails: map[string]image.Image{"a.png": thumb},
			})
			if err != nil {
				t.Fatalf("SaveStoryboard error: %v", err)
			}
			info, err := os.Stat(out)
			if err != nil {
				t.Fatalf("output not created: %v", err)
			}
			if info.Size() == 0 {
				t.Fatalf("output file is empty")
			}
		})
	}

	f, err := os.Open(filepath.Join(tmp, "board.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds().Dx() != defaultFrameWidth*5 {
		t.Errorf("png width = %d, want %d", img.Bounds().Dx(), defaultFrameWidth*5)
	}
}

func TestSaveStoryboard_InvalidFormat(t *testing.T) {
	err := SaveStoryboard(StoryboardOptions{Path: "board.txt", Deck: testDeck()})
	if err == nil {
		t.Fatalf("expected error for invalid format")
	}
	if err := SaveStoryboard(StoryboardOptions{Path: "board.svg"}); err == nil {
		t.Fatalf("expected error without deck")
	}
}

func TestWriteBundle(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"a.png", "a-m.png", "b.png", "c.png", "c-m.png"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte("img"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	deck := testDeck()
	deck.Path = filepath.Join(src, "carousel.yaml")
	deck.Slides = append(deck.Slides, slide.Attributes{ImageDesktop: "https://example.com/remote.png"})

	dir := filepath.Join(t.TempDir(), "site")
	res, err := WriteBundle(BundleOptions{Dir: dir, Deck: deck})
	if err != nil {
		t.Fatalf("WriteBundle error: %v", err)
	}
	if len(res.Storyboards) != 4 {
		t.Errorf("expected 4 storyboards, got %d", len(res.Storyboards))
	}
	if len(res.Images) != 5 {
		t.Errorf("expected 5 copied images, got %d", len(res.Images))
	}

	html, err := os.ReadFile(res.Index)
	if err != nil {
		t.Fatal(err)
	}
	page := string(html)
	for _, want := range []string{
		"translateX(0)",
		"translateX(calc(1 * 100%))",
		"cubic-bezier(0.455, 0.03, 0.515, 0.955)",
		`media="(max-width: 736px)"`,
		"storyboard-04.svg",
		`href="https://example.com"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if strings.Contains(page, "ZgotmplZ") {
		t.Error("template escaped a value it should have kept")
	}
}

func TestBrowserCommand(t *testing.T) {
	tests := map[string]string{
		"linux":   "xdg-open",
		"darwin":  "open",
		"windows": "rundll32",
	}
	for goos, bin := range tests {
		cmd, err := browserCommand(goos, "https://example.com")
		if err != nil {
			t.Fatalf("%s: %v", goos, err)
		}
		if filepath.Base(cmd.Args[0]) != bin {
			t.Errorf("%s: got %q, want %q", goos, cmd.Args[0], bin)
		}
	}
	if _, err := browserCommand("plan9", "https://example.com"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

func TestOpenInBrowserRejectsSchemes(t *testing.T) {
	for _, u := range []string{"javascript:alert(1)", "ftp://example.com", "://bad"} {
		if err := OpenInBrowser(u); err == nil {
			t.Errorf("expected %q to be rejected", u)
		}
	}
}
