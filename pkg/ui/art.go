package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/carousel/pkg/loader"
)

// halfBlock draws two vertically stacked pixels per cell: the foreground
// color fills the top half, the background the bottom half.
const halfBlock = "▀"

// artSize returns the size in cells of an image drawn at most cols wide and
// maxRows tall. cellW and cellH are the pixel size of one terminal cell; each
// cell shows one pixel column and two pixel rows.
func artSize(imgW, imgH, cols, maxRows, cellW, cellH int) (int, int) {
	if imgW <= 0 || imgH <= 0 || cols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	// Height of one half-block in units of its width.
	pxAspect := float64(cellH) / 2 / float64(cellW)
	w := cols
	rows := int(float64(imgH)/float64(imgW)*float64(w)/pxAspect/2 + 0.5)
	if rows > maxRows {
		rows = maxRows
		w = int(float64(rows) * 2 * pxAspect * float64(imgW) / float64(imgH))
	}
	return max(w, 1), max(rows, 1)
}

// renderArt draws img as cols x rows half-block cells.
func renderArt(img image.Image, cols, rows int, t Theme) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	scaled := loader.Resize(img, cols, rows*2)
	lines := make([]string, rows)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		b.Reset()
		for c := 0; c < cols; c++ {
			top := scaled.At(c, 2*r)
			bottom := scaled.At(c, 2*r+1)
			b.WriteString(t.Renderer.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render(halfBlock))
		}
		lines[r] = b.String()
	}
	return lines
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
