// Package catalog provides the static item reference data used to recognize
// and price looted items.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Sentinel errors.
var (
	ErrEmptyCatalog = errors.New("item catalog is empty")
)

// Item holds the metadata for one catalog entry.
type Item struct {
	// Name is the canonical item name (the catalog key).
	Name string `json:"-"`

	// Classes lists the classes eligible to use the item, in file order.
	Classes []string `json:"classes"`

	// NoDrop is true when the item cannot be traded.
	NoDrop bool `json:"nodrop"`

	// MinBid is the minimum accepted bid, if the catalog sets one.
	MinBid *int `json:"min_dkp,omitempty"`
}

// ClassList returns the eligible classes joined with ", ".
func (i Item) ClassList() string {
	return strings.Join(i.Classes, ", ")
}

// Droppable returns "NO" for no-drop items and "Yes" otherwise.
func (i Item) Droppable() string {
	if i.NoDrop {
		return "NO"
	}
	return "Yes"
}

// Catalog is a read-only lookup from item name to metadata.
// It is safe for concurrent use once built.
type Catalog struct {
	items  map[string]Item
	folded map[string]string // lowercase name -> canonical name

	// lowered holds the lowercase names in sorted canonical order for Search.
	lowered []string
	sorted  []string
}

// New builds a catalog from a name -> item mapping.
// Returns ErrEmptyCatalog if items is empty.
func New(items map[string]Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &Catalog{
		items:  make(map[string]Item, len(items)),
		folded: make(map[string]string, len(items)),
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		item := items[name]
		item.Name = name
		c.items[name] = item

		key := strings.ToLower(name)
		if _, dup := c.folded[key]; !dup {
			c.folded[key] = name
		}
		c.sorted = append(c.sorted, name)
		c.lowered = append(c.lowered, key)
	}
	return c, nil
}

// Parse decodes a JSON catalog document: an object mapping item names to
// {"classes": [...], "nodrop": bool, "min_dkp": int}.
func Parse(r io.Reader) (*Catalog, error) {
	var items map[string]Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return New(items)
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Names returns all canonical item names, sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.items))
	for name := range c.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds an item by name, ignoring case.
func (c *Catalog) Lookup(name string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	canonical, ok := c.folded[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Item{}, false
	}
	return c.items[canonical], true
}

// Search returns up to limit item names that fuzzily match query, best
// match first. A limit of zero or less returns every match.
func (c *Catalog) Search(query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if c == nil || query == "" {
		return nil
	}
	matches := fuzzy.Find(query, c.lowered)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = c.sorted[m.Index]
	}
	return names
}

// Canonical returns the catalog spelling of name, or name unchanged
// when it is not in the catalog.
func (c *Catalog) Canonical(name string) string {
	if item, ok := c.Lookup(name); ok {
		return item.Name
	}
	return name
}
