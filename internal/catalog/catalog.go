// Package catalog is the read-only product catalog: loaded once at
// startup, never mutated afterward.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}

type Store struct {
	mu   sync.RWMutex
	byID map[int]Product
}

// NewStore builds a catalog from the given products, or from the
// built-in seed when none are given.
func NewStore(products ...Product) *Store {
	if len(products) == 0 {
		products = seed()
	}
	s := &Store{byID: make(map[int]Product, len(products))}
	for _, p := range products {
		s.byID[p.ID] = p
	}
	return s
}

// Load reads a JSON array of products from path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}

	return NewStore(products...), nil
}

func seed() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Price: 750, Category: "computers"},
		{ID: 2, Name: "Mouse", Price: 25, Category: "accessories"},
		{ID: 3, Name: "Keyboard", Price: 45, Category: "accessories"},
		{ID: 4, Name: "Monitor", Price: 150, Category: "displays"},
		{ID: 5, Name: "USB Cable", Price: 10, Category: "accessories"},
		{ID: 6, Name: "Webcam", Price: 80, Category: "accessories"},
	}
}

func (s *Store) Find(id int) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	return p, ok
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category string
	Query    string
	MaxPrice float64
}

func (f Filter) matches(p Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	return true
}

// List returns matching products sorted by id.
func (s *Store) List(f Filter) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.byID))
	for _, p := range s.byID {
		if f.matches(p) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
