package doodle

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Entry is a single page of the coloring history: the user's sketch, the
// recognized label, the generated line art and optionally its colored
// version, each held as an encoded image. The byte fields marshal to base64
// in the JSON form.
type Entry struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Sketch    []byte    `json:"sketch,omitempty"`
	LineArt   []byte    `json:"line_art"`
	Colored   []byte    `json:"colored,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// History is the local collection of coloring pages, persisted as a JSON file.
type History struct {
	mu      sync.RWMutex
	path    string
	entries []*Entry
}

// NewHistory creates an empty history persisted at the given file path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Add appends a new entry holding the sketch and its generated line art
// and returns a copy of it.
func (h *History) Add(label string, sketch, lineArt []byte) Entry {
	entry := &Entry{
		ID:        uuid.NewString(),
		Label:     label,
		Sketch:    sketch,
		LineArt:   lineArt,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()

	return *entry
}

// SetColored stores the colored raster of an entry, replacing a previous one.
// It reports whether the entry exists.
func (h *History) SetColored(id string, colored []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries {
		if e.ID == id {
			e.Colored = colored
			return true
		}
	}
	return false
}

// Get returns a copy of the entry with the given id.
func (h *History) Get(id string) (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.entries {
		if e.ID == id {
			return *e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of all history entries in insertion order.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]Entry, 0, len(h.entries))
	for _, e := range h.entries {
		entries = append(entries, *e)
	}
	return entries
}

// Remove deletes the entry with the given id, reporting whether it existed.
func (h *History) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.entries {
		if e.ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Save writes the history to its backing JSON file.
func (h *History) Save() error {
	h.mu.RLock()
	data, err := json.MarshalIndent(h.entries, "", "  ")
	h.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("could not serialize the history: %v", err)
	}
	return os.WriteFile(h.path, data, 0644)
}

// Load replaces the in-memory entries with the contents of the backing JSON
// file. A missing file yields an empty history.
func (h *History) Load() error {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.mu.Lock()
			h.entries = nil
			h.mu.Unlock()
			return nil
		}
		return err
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("could not parse the history file: %v", err)
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()

	return nil
}

// Thumbnail decodes the colored raster of an entry, falling back to its line
// art, and scales it down to fit into a size×size box.
func (h *History) Thumbnail(id string, size int) (image.Image, error) {
	entry, ok := h.Get(id)
	if !ok {
		return nil, fmt.Errorf("no history entry with id %s", id)
	}

	encoded := entry.Colored
	if len(encoded) == 0 {
		encoded = entry.LineArt
	}
	img, err := DecodeImage(encoded)
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, size, size, imaging.Lanczos), nil
}
