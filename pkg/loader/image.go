package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/carousel/pkg/model"
)

// DefaultFetchTimeout bounds a single remote image download.
const DefaultFetchTimeout = 10 * time.Second

var httpClient = &http.Client{Timeout: DefaultFetchTimeout}

// Open returns a reader for a resolved image source: an http(s) URL or a
// local path.
func Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !model.IsURL(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("opening image: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching image: server returned status: %s", resp.Status)
	}
	return resp.Body, nil
}

// DecodeImage loads and decodes the image at src.
func DecodeImage(ctx context.Context, src string) (image.Image, error) {
	r, err := Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", src, err)
	}
	return img, nil
}

// DecodeConfig reads only the header of the image at src.
func DecodeConfig(ctx context.Context, src string) (image.Config, string, error) {
	r, err := Open(ctx, src)
	if err != nil {
		return image.Config{}, "", err
	}
	defer r.Close()

	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decoding image config %s: %w", src, err)
	}
	return cfg, format, nil
}

// ImageReport describes one image referenced by a deck.
type ImageReport struct {
	Source string
	Format string
	Width  int
	Height int
	Err    error
}

// VerifyImages decodes the header of every image the deck references, at
// most limit at a time. Reports come back in deck order; the error joins
// every failure.
func VerifyImages(ctx context.Context, deck *model.Deck, limit int) ([]ImageReport, error) {
	sources := deck.Sources()
	reports := make([]ImageReport, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	var errs []error
	for i, src := range sources {
		g.Go(func() error {
			cfg, format, err := DecodeConfig(ctx, deck.Resolve(src))
			reports[i] = ImageReport{Source: src, Format: format, Width: cfg.Width, Height: cfg.Height, Err: err}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", src, err))
				mu.Unlock()
			}
			// Individual failures are collected rather than cancelling the rest.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, errors.Join(errs...)
}

// Fit scales img to fit within maxW x maxH, keeping its aspect ratio. Images
// that already fit are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || maxW <= 0 || maxH <= 0 {
		return img
	}
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Resize scales img to exactly w x h.
func Resize(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FitSize returns the largest size with the aspect ratio of w x h that fits
// within maxW x maxH. Both dimensions are at least 1.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	fw := maxW
	fh := h * maxW / w
	if fh > maxH {
		fh = maxH
		fw = w * maxH / h
	}
	return max(fw, 1), max(fh, 1)
}
