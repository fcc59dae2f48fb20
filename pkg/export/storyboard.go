// Package export renders decks for viewing outside the terminal.
//
// A storyboard is a diagram of the carousel strip at one index: the viewport,
// every slide laid out at its resting translation, and the navigation dots.
// Storyboards are written as SVG or PNG and bundled into a static site that
// the preview server can serve.
package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"

	"github.com/Dicklesworthstone/carousel/pkg/geometry"
	"github.com/Dicklesworthstone/carousel/pkg/loader"
	"github.com/Dicklesworthstone/carousel/pkg/model"
)

// Frame is one slide placed on the storyboard.
type Frame struct {
	Index   int
	Title   string
	Source  string
	X       float64
	Opacity float64
	Current bool
}

// Storyboard is the strip of a deck at one index.
type Storyboard struct {
	Title   string
	Index   int
	Width   float64
	Height  float64
	Frames  []Frame
	Mobile  bool
	Padding float64
}

// StoryboardOptions configures a storyboard.
type StoryboardOptions struct {
	Path   string
	Format string // "svg" or "png"; inferred from Path when empty
	Deck   *model.Deck
	Index  int
	Width  int
	Height int
	Mobile bool
	// Thumbnails maps image sources to decoded images drawn into PNG frames.
	Thumbnails map[string]image.Image
}

const (
	defaultFrameWidth  = 320
	defaultFrameHeight = 180
	navHeight          = 28
)

// Layout places the deck's slides around the given index.
func Layout(deck *model.Deck, index int, width, height float64, mobile bool) Storyboard {
	sb := Storyboard{Title: deck.Title, Width: width, Height: height, Mobile: mobile, Padding: width}

	var slides []int
	for i, s := range deck.Slides {
		if !s.HasImage() {
			continue
		}
		if mobile && strings.TrimSpace(s.ImageMobile) == "" {
			continue
		}
		slides = append(slides, i)
	}
	sb.Index = geometry.NormalizeIndex(index, len(slides))

	for pos, i := range slides {
		s := deck.Slides[i]
		src := s.ImageDesktop
		if mobile || src == "" {
			src = s.ImageMobile
		}
		style := geometry.StyleFor(sb.Index, pos)
		sb.Frames = append(sb.Frames, Frame{
			Index:   pos,
			Title:   s.Title,
			Source:  strings.TrimSpace(src),
			X:       style.X(width),
			Opacity: style.Opacity,
			Current: style.Centered(),
		})
	}
	return sb
}

// Canvas returns the full drawing size: the strip plus the navigation row.
func (sb Storyboard) Canvas() (int, int) {
	n := float64(len(sb.Frames))
	if n < 1 {
		n = 1
	}
	return int(sb.Width*n + 2*sb.Padding), int(sb.Height) + navHeight
}

// origin is the canvas x of the viewport's left edge.
func (sb Storyboard) origin() float64 {
	return sb.Padding + float64(sb.Index)*sb.Width
}

// WriteSVG draws the storyboard as SVG.
func (sb Storyboard) WriteSVG(w io.Writer) {
	cw, ch := sb.Canvas()
	canvas := svg.New(w)
	canvas.Start(cw, ch)
	canvas.Title(fmt.Sprintf("%s slide %d", sb.Title, sb.Index+1))
	canvas.Rect(0, 0, cw, ch, "fill:#1e1e2e")

	ox := sb.origin()
	fw, fh := int(sb.Width), int(sb.Height)
	for _, f := range sb.Frames {
		x := int(ox + f.X)
		opacity := 0.35
		if f.Current {
			opacity = 1
		}
		canvas.Gid(fmt.Sprintf("slide-%d", f.Index))
		canvas.Rect(x+2, 2, fw-4, fh-4, fmt.Sprintf("fill:#313244;stroke:#89b4fa;stroke-width:2;opacity:%.2f", opacity))
		if f.Source != "" {
			canvas.Image(x+4, 4, fw-8, fh-8, f.Source, fmt.Sprintf(`opacity="%.2f"`, opacity))
		}
		label := f.Title
		if label == "" {
			label = filepath.Base(f.Source)
		}
		canvas.Text(x+fw/2, fh-12, fmt.Sprintf("%d. %s", f.Index+1, label),
			"fill:#cdd6f4;font-family:sans-serif;font-size:12px;text-anchor:middle")
		canvas.Gend()
	}

	// Viewport outline
	canvas.Rect(int(ox), 0, fw, fh, "fill:none;stroke:#f38ba8;stroke-width:3;stroke-dasharray:6,4")

	for i := range sb.Frames {
		cx, cy := sb.dot(i)
		style := "fill:#585b70"
		if i == sb.Index {
			style = "fill:#f38ba8"
		}
		canvas.Circle(int(cx), int(cy), 5, style)
	}
	canvas.End()
}

func (sb Storyboard) dot(i int) (float64, float64) {
	n := float64(len(sb.Frames))
	start := sb.origin() + sb.Width/2 - (n-1)*8
	return start + float64(i)*16, sb.Height + navHeight/2
}

// DrawPNG rasterizes the storyboard with thumbnails where available.
func (sb Storyboard) DrawPNG(w io.Writer, thumbs map[string]image.Image) error {
	cw, ch := sb.Canvas()
	dc := gg.NewContext(cw, ch)
	dc.SetHexColor("#1e1e2e")
	dc.Clear()

	ox := sb.origin()
	for _, f := range sb.Frames {
		x := ox + f.X
		alpha := 0.35
		if f.Current {
			alpha = 1
		}
		dc.SetRGBA(0.19, 0.2, 0.27, alpha)
		dc.DrawRectangle(x+2, 2, sb.Width-4, sb.Height-4)
		dc.Fill()

		if img, ok := thumbs[f.Source]; ok && img != nil {
			thumb := loader.Fit(img, int(sb.Width)-8, int(sb.Height)-8)
			b := thumb.Bounds()
			dx := int(x) + 4 + (int(sb.Width)-8-b.Dx())/2
			dy := 4 + (int(sb.Height)-8-b.Dy())/2
			dc.DrawImage(fade(thumb, alpha), dx, dy)
		}

		dc.SetRGBA(0.54, 0.71, 0.98, alpha)
		dc.SetLineWidth(2)
		dc.DrawRectangle(x+2, 2, sb.Width-4, sb.Height-4)
		dc.Stroke()

		label := f.Title
		if label == "" {
			label = filepath.Base(f.Source)
		}
		dc.SetRGBA(0.8, 0.84, 0.96, alpha)
		dc.DrawStringAnchored(fmt.Sprintf("%d. %s", f.Index+1, label), x+sb.Width/2, sb.Height-12, 0.5, 0.5)
	}

	dc.SetHexColor("#f38ba8")
	dc.SetLineWidth(3)
	dc.DrawRectangle(ox, 0, sb.Width, sb.Height)
	dc.Stroke()

	for i := range sb.Frames {
		cx, cy := sb.dot(i)
		if i == sb.Index {
			dc.SetHexColor("#f38ba8")
		} else {
			dc.SetHexColor("#585b70")
		}
		dc.DrawCircle(cx, cy, 5)
		dc.Fill()
	}
	return dc.EncodePNG(w)
}

func fade(img image.Image, alpha float64) image.Image {
	if alpha >= 1 {
		return img
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = uint8(float64(c.A) * alpha)
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// SaveStoryboard lays out the deck and writes it to opts.Path.
func SaveStoryboard(opts StoryboardOptions) error {
	if opts.Deck == nil {
		return fmt.Errorf("storyboard: no deck")
	}
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.Path)), ".")
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported storyboard format %q (want svg or png)", format)
	}

	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultFrameWidth
	}
	if h <= 0 {
		h = defaultFrameHeight
	}
	sb := Layout(opts.Deck, opts.Index, float64(w), float64(h), opts.Mobile)

	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("create storyboard: %w", err)
	}
	defer f.Close()

	if format == "svg" {
		sb.WriteSVG(f)
		return nil
	}
	if err := sb.DrawPNG(f, opts.Thumbnails); err != nil {
		return fmt.Errorf("encode storyboard: %w", err)
	}
	return nil
}
