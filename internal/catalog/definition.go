package catalog

import (
	"fmt"
	"sort"

	"github.com/kosarica/sourcing-service/internal/costmodel"
)

// Definition is a loaded catalog together with the leg tables both cost
// models price against.
type Definition struct {
	Catalog   *Catalog
	Distances *costmodel.LegTable // kilometres, tiered model
	Costs     *costmodel.LegTable // flat cost per leg, matrix model
	Source    string
}

// document is the wire shape shared by the YAML and XLSX sources.
type document struct {
	Hub       string              `yaml:"hub"`
	Centers   map[string][]string `yaml:"centers"`
	Weights   map[string]float64  `yaml:"weights"`
	Distances []costmodel.Leg     `yaml:"distances"`
	Costs     []costmodel.Leg     `yaml:"costs"`
}

func (d *document) build(source string) (*Definition, error) {
	cat, err := New(d.Hub, d.Centers, d.Weights)
	if err != nil {
		return nil, err
	}

	distances, err := legTable(cat, "distances", d.Distances)
	if err != nil {
		return nil, err
	}
	costs, err := legTable(cat, "costs", d.Costs)
	if err != nil {
		return nil, err
	}

	return &Definition{
		Catalog:   cat,
		Distances: distances,
		Costs:     costs,
		Source:    source,
	}, nil
}

func legTable(cat *Catalog, field string, legs []costmodel.Leg) (*costmodel.LegTable, error) {
	nodes := make(map[string]struct{}, len(cat.centers)+1)
	nodes[cat.hub] = struct{}{}
	for _, c := range cat.centers {
		nodes[c] = struct{}{}
	}

	table := costmodel.NewLegTable()
	for i, leg := range legs {
		from, to := NormalizeCode(leg.From), NormalizeCode(leg.To)
		for _, n := range []string{from, to} {
			if _, ok := nodes[n]; !ok {
				return nil, ErrInvalidCatalog{
					Field:  fmt.Sprintf("%s[%d]", field, i),
					Reason: fmt.Sprintf("unknown node %q", n),
				}
			}
		}
		if err := table.Set(from, to, leg.Value); err != nil {
			return nil, ErrInvalidCatalog{Field: fmt.Sprintf("%s[%d]", field, i), Reason: err.Error()}
		}
	}
	return table, nil
}

// Warnings lists data gaps that do not prevent loading but make some
// orders unsatisfiable: centers without a hub leg and products without weight.
func (d *Definition) Warnings() []string {
	var out []string
	hub := d.Catalog.Hub()
	for _, center := range d.Catalog.Centers() {
		if d.Distances.Len() > 0 {
			if _, ok := d.Distances.Get(center, hub); !ok {
				out = append(out, fmt.Sprintf("no distance between %s and %s", center, hub))
			}
		}
		if d.Costs.Len() > 0 {
			if _, ok := d.Costs.Get(center, hub); !ok {
				out = append(out, fmt.Sprintf("no leg cost between %s and %s", center, hub))
			}
		}
	}
	if err := d.Catalog.RequireWeights(); err != nil {
		out = append(out, err.Error())
	}
	sort.Strings(out)
	return out
}

// Default returns the built-in three-center dataset with hub L1.
func Default() *Definition {
	doc := &document{
		Hub: "L1",
		Centers: map[string][]string{
			"C1": {"A", "B", "C", "G"},
			"C2": {"B", "C", "D", "E", "G", "H", "I"},
			"C3": {"C", "D", "E", "F", "G", "H", "I"},
		},
		Weights: map[string]float64{
			"A": 3, "B": 2, "C": 8, "D": 12, "E": 25,
			"F": 0.5, "G": 15, "H": 1, "I": 2,
		},
		Distances: []costmodel.Leg{
			{From: "C1", To: "L1", Value: 4},
			{From: "C2", To: "L1", Value: 2.5},
			{From: "C3", To: "L1", Value: 3},
			{From: "C1", To: "C2", Value: 4},
			{From: "C1", To: "C3", Value: 3},
			{From: "C2", To: "C3", Value: 2},
		},
		Costs: []costmodel.Leg{
			{From: "C1", To: "L1", Value: 50},
			{From: "C2", To: "L1", Value: 40},
			{From: "C3", To: "L1", Value: 45},
			{From: "C1", To: "C2", Value: 30},
			{From: "C1", To: "C3", Value: 25},
			{From: "C2", To: "C3", Value: 20},
		},
	}
	def, err := doc.build("builtin")
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return def
}
