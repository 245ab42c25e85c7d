// Package catalog holds the static sourcing data: which center stocks which
// product, what a unit of each product weighs, and the hub that every
// delivery ends at. A Catalog is built once at start-up and never mutated.
package catalog

import (
	"fmt"
	"math"
	"sort"
)

// ErrInvalidCatalog is returned when catalog data fails validation.
type ErrInvalidCatalog struct {
	Field  string
	Reason string
}

func (e ErrInvalidCatalog) Error() string {
	return "catalog " + e.Field + ": " + e.Reason
}

// Catalog is safe for concurrent reads.
type Catalog struct {
	hub      string
	stock    map[string]map[string]struct{} // center -> products
	weights  map[string]float64
	centers  []string
	products []string
	eligible map[string][]string // product -> centers, sorted
}

// New validates and indexes the given data. Codes are normalised with
// NormalizeCode. Weights may cover products no center stocks.
func New(hub string, stock map[string][]string, weights map[string]float64) (*Catalog, error) {
	hub = NormalizeCode(hub)
	if hub == "" {
		return nil, ErrInvalidCatalog{Field: "hub", Reason: "must not be empty"}
	}

	c := &Catalog{
		hub:      hub,
		stock:    make(map[string]map[string]struct{}, len(stock)),
		weights:  make(map[string]float64, len(weights)),
		eligible: make(map[string][]string),
	}

	for rawCenter, products := range stock {
		center := NormalizeCode(rawCenter)
		if center == "" {
			return nil, ErrInvalidCatalog{Field: "centers", Reason: "center id must not be empty"}
		}
		if center == hub {
			return nil, ErrInvalidCatalog{Field: "centers", Reason: fmt.Sprintf("center %s collides with the hub", center)}
		}
		set, ok := c.stock[center]
		if !ok {
			set = make(map[string]struct{}, len(products))
			c.stock[center] = set
		}
		for _, raw := range products {
			product := NormalizeCode(raw)
			if product == "" {
				return nil, ErrInvalidCatalog{Field: "centers." + center, Reason: "product code must not be empty"}
			}
			set[product] = struct{}{}
		}
	}
	if len(c.stock) == 0 {
		return nil, ErrInvalidCatalog{Field: "centers", Reason: "at least one center is required"}
	}

	for raw, w := range weights {
		product := NormalizeCode(raw)
		if product == "" {
			return nil, ErrInvalidCatalog{Field: "weights", Reason: "product code must not be empty"}
		}
		if !(w > 0) || math.IsInf(w, 1) {
			return nil, ErrInvalidCatalog{Field: "weights." + product, Reason: "must be a positive finite number"}
		}
		c.weights[product] = w
	}

	for center, set := range c.stock {
		c.centers = append(c.centers, center)
		for product := range set {
			c.eligible[product] = append(c.eligible[product], center)
		}
	}
	sort.Strings(c.centers)
	for product, centers := range c.eligible {
		sort.Strings(centers)
		c.products = append(c.products, product)
	}
	sort.Strings(c.products)

	return c, nil
}

// Hub returns the destination node.
func (c *Catalog) Hub() string { return c.hub }

// Centers returns all center ids, sorted. The slice must not be modified.
func (c *Catalog) Centers() []string { return c.centers }

// Products returns every stocked product code, sorted. The slice must not be modified.
func (c *Catalog) Products() []string { return c.products }

// Eligible returns the sorted centers stocking product, or nil. The slice must not be modified.
func (c *Catalog) Eligible(product string) []string {
	return c.eligible[product]
}

// Weight returns the unit weight of product.
func (c *Catalog) Weight(product string) (float64, bool) {
	w, ok := c.weights[product]
	return w, ok
}

// Stocks reports whether center carries product.
func (c *Catalog) Stocks(center, product string) bool {
	_, ok := c.stock[center][product]
	return ok
}

// Inventory returns a copy of center -> sorted products.
func (c *Catalog) Inventory() map[string][]string {
	out := make(map[string][]string, len(c.stock))
	for center, set := range c.stock {
		products := make([]string, 0, len(set))
		for p := range set {
			products = append(products, p)
		}
		sort.Strings(products)
		out[center] = products
	}
	return out
}

// Weights returns a copy of the unit weight table.
func (c *Catalog) Weights() map[string]float64 {
	out := make(map[string]float64, len(c.weights))
	for p, w := range c.weights {
		out[p] = w
	}
	return out
}

// RequireWeights checks that each of products has a unit weight.
// With no arguments every stocked product is checked.
func (c *Catalog) RequireWeights(products ...string) error {
	if len(products) == 0 {
		products = c.products
	}
	var missing []string
	for _, p := range products {
		if _, ok := c.weights[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return ErrInvalidCatalog{Field: "weights", Reason: fmt.Sprintf("missing unit weight for %v", missing)}
	}
	return nil
}
