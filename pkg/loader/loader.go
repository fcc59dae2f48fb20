package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/carousel/pkg/model"
	"github.com/Dicklesworthstone/carousel/pkg/slide"
)

// DeckFiles are the file names LoadDeck looks for, in order.
var DeckFiles = []string{"carousel.yaml", "carousel.yml", "slides.jsonl"}

// ImageExtensions are the file extensions treated as images when a deck is
// built from a directory.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// LoadDeck loads the deck of a directory. It reads the first of DeckFiles
// that exists and otherwise builds a deck from the images in the directory.
func LoadDeck(dir string) (*model.Deck, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	for _, name := range DeckFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadDeckFromFile(path)
		}
	}
	return DeckFromImages(dir)
}

// LoadDeckFromFile reads a deck from a YAML or JSONL file, or from a
// directory of images.
func LoadDeckFromFile(path string) (*model.Deck, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no deck found at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat deck: %w", err)
	}
	if info.IsDir() {
		return LoadDeck(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".jsonl", ".ndjson":
		return loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported deck format: %s", path)
	}
}

func loadYAML(path string) (*model.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}
	var deck model.Deck
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	deck.Path = path
	return &deck, nil
}

// jsonlRecord is one line of a JSONL deck: either a slide or a line carrying
// only the lazy attribute.
type jsonlRecord struct {
	slide.Attributes
	Lazy *string `json:"lazy,omitempty"`
}

// UnmarshalJSON keeps a "lazy": null key as the empty attribute.
func (r *jsonlRecord) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Attributes); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	raw, ok := keys["lazy"]
	if !ok {
		return nil
	}
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	if value == nil {
		empty := ""
		value = &empty
	}
	r.Lazy = value
	return nil
}

func loadJSONL(path string) (*model.Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck file: %w", err)
	}
	defer file.Close()

	deck := &model.Deck{Path: path}
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Skip malformed lines but continue loading the rest
			continue
		}
		if rec.Lazy != nil {
			deck.Lazy = rec.Lazy
		}
		if rec.Attributes.HasImage() {
			deck.Slides = append(deck.Slides, rec.Attributes)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading deck file: %w", err)
	}
	return deck, nil
}

// DeckFromImages builds a deck with one slide per image file in dir, sorted
// by name and titled by file name.
func DeckFromImages(dir string) (*model.Deck, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !ImageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no deck file or images found in %s", dir)
	}
	sort.Strings(names)

	// Path points into dir so relative sources resolve against it.
	deck := &model.Deck{Path: filepath.Join(dir, DeckFiles[0])}
	for _, name := range names {
		deck.Slides = append(deck.Slides, slide.Attributes{
			ImageDesktop: name,
			Title:        strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	return deck, nil
}

// SaveDeck writes deck to path as YAML.
func SaveDeck(deck *model.Deck, path string) error {
	data, err := yaml.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write deck: %w", err)
	}
	return nil
}
