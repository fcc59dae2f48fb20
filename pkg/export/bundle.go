package export

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/carousel/pkg/geometry"
	"github.com/Dicklesworthstone/carousel/pkg/model"
	"github.com/Dicklesworthstone/carousel/pkg/slider"
)

// BundleOptions configures a static site bundle.
type BundleOptions struct {
	Dir    string
	Deck   *model.Deck
	Width  int
	Height int

	// Breakpoint is the widest viewport in pixels served the mobile images.
	Breakpoint int
}

// BundleResult lists what was written.
type BundleResult struct {
	Index       string
	Storyboards []string
	Images      []string
}

type bundleSlide struct {
	Index      int
	Title      string
	Link       string
	Desktop    string
	Mobile     string
	Transform  template.CSS
	Opacity    float64
	Storyboard string
}

type bundlePage struct {
	Title      string
	Slides     []bundleSlide
	Transition template.CSS
	Breakpoint int
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { background: #1e1e2e; color: #cdd6f4; font-family: sans-serif; margin: 0; }
.slider-outer-container { overflow: hidden; }
.slider-content-wrapper { position: relative; }
.slide { position: absolute; top: 0; left: 0; width: 100%; transition: {{.Transition}}; }
.slide:first-child { position: relative; }
.slide img { width: 100%; display: block; }
picture source { display: none; }
.storyboards img { max-width: 100%; margin: 1em 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="slider-outer-container">
<div class="slider-content-wrapper">
{{- range .Slides}}
<div class="slide" style="transform: {{.Transform}}; opacity: {{.Opacity}}">
<picture>
{{- if .Mobile}}<source media="(max-width: {{$.Breakpoint}}px)" srcset="{{.Mobile}}">{{end}}
<img src="{{if .Desktop}}{{.Desktop}}{{else}}{{.Mobile}}{{end}}" alt="{{.Title}}" loading="lazy">
</picture>
{{- if .Title}}<p>{{if .Link}}<a href="{{.Link}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</p>{{end}}
</div>
{{- end}}
</div>
</div>
<div class="storyboards">
{{- range .Slides}}
<h2>Slide {{.Index}}</h2>
<img src="{{.Storyboard}}" alt="storyboard {{.Index}}">
{{- end}}
</div>
</body>
</html>
`))

// WriteBundle writes index.html, one storyboard per slide and copies of the
// deck's local images into opts.Dir.
func WriteBundle(opts BundleOptions) (*BundleResult, error) {
	if opts.Deck == nil {
		return nil, fmt.Errorf("bundle: no deck")
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create bundle directory: %w", err)
	}

	res := &BundleResult{}
	for _, src := range opts.Deck.Sources() {
		if model.IsURL(src) || filepath.IsAbs(src) || strings.HasPrefix(filepath.Clean(src), "..") {
			continue
		}
		dst := filepath.Join(opts.Dir, src)
		if err := copyFile(opts.Deck.Resolve(src), dst); err != nil {
			return nil, fmt.Errorf("copy %s: %w", src, err)
		}
		res.Images = append(res.Images, dst)
	}

	page := bundlePage{
		Title:      opts.Deck.Title,
		Transition: template.CSS(geometry.EaseTransition(geometry.DeltaT).CSS()),
		Breakpoint: opts.Breakpoint,
	}
	if page.Breakpoint <= 0 {
		page.Breakpoint = slider.DefaultBreakpoint
	}
	if page.Title == "" {
		page.Title = "Carousel"
	}

	pos := 0
	for _, s := range opts.Deck.Slides {
		if !s.HasImage() {
			continue
		}
		name := fmt.Sprintf("storyboard-%02d.svg", pos+1)
		path := filepath.Join(opts.Dir, name)
		err := SaveStoryboard(StoryboardOptions{
			Path:   path,
			Deck:   opts.Deck,
			Index:  pos,
			Width:  opts.Width,
			Height: opts.Height,
		})
		if err != nil {
			return nil, err
		}
		res.Storyboards = append(res.Storyboards, path)

		style := geometry.StyleFor(0, pos)
		page.Slides = append(page.Slides, bundleSlide{
			Index:      pos + 1,
			Title:      s.Title,
			Link:       s.Link,
			Desktop:    strings.TrimSpace(s.ImageDesktop),
			Mobile:     strings.TrimSpace(s.ImageMobile),
			Transform:  template.CSS(style.Transform()),
			Opacity:    style.Opacity,
			Storyboard: name,
		})
		pos++
	}

	res.Index = filepath.Join(opts.Dir, "index.html")
	f, err := os.Create(res.Index)
	if err != nil {
		return nil, fmt.Errorf("create index.html: %w", err)
	}
	defer f.Close()
	if err := pageTemplate.Execute(f, page); err != nil {
		return nil, fmt.Errorf("render index.html: %w", err)
	}
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
