package model

import (
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/carousel/pkg/lazy"
	"github.com/Dicklesworthstone/carousel/pkg/slide"
)

// Deck is an authored carousel: the slider attributes plus its slides.
type Deck struct {
	// Lazy is the raw lazy attribute; nil when the attribute is absent.
	Lazy   *string            `yaml:"lazy,omitempty" json:"lazy,omitempty"`
	Title  string             `yaml:"title,omitempty" json:"title,omitempty"`
	Slides []slide.Attributes `yaml:"slides" json:"slides"`

	// Path is the file the deck was loaded from, "" for decks built in memory.
	Path string `yaml:"-" json:"-"`
}

// UnmarshalYAML implements yaml.Unmarshaler. A bare "lazy:" key decodes to
// nil, so a present null value is kept as the empty attribute.
func (d *Deck) UnmarshalYAML(node *yaml.Node) error {
	type plain Deck
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if node.Kind == yaml.MappingNode && p.Lazy == nil {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "lazy" && node.Content[i+1].ShortTag() == "!!null" {
				empty := ""
				p.Lazy = &empty
				break
			}
		}
	}
	*d = Deck(p)
	return nil
}

// LazyMode interprets the lazy attribute.
func (d Deck) LazyMode() lazy.Mode {
	if d.Lazy == nil {
		return lazy.Off
	}
	return lazy.ParseMode(*d.Lazy, true)
}

// Dir returns the directory relative image sources are resolved against.
func (d Deck) Dir() string {
	if d.Path == "" {
		return "."
	}
	return filepath.Dir(d.Path)
}

// Resolve turns an image source into something loadable: URLs and absolute
// paths are returned as is, relative paths are joined to the deck directory.
func (d Deck) Resolve(src string) string {
	if src == "" || IsURL(src) || filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(d.Dir(), src)
}

// Sources returns every distinct image source the deck references, in order.
func (d Deck) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range d.Slides {
		for _, src := range []string{s.ImageDesktop, s.ImageMobile} {
			src = strings.TrimSpace(src)
			if src == "" || seen[src] {
				continue
			}
			seen[src] = true
			out = append(out, src)
		}
	}
	return out
}

// IsURL reports whether src is an http(s) URL.
func IsURL(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
