// Package costmodel prices the legs of a sourcing trip.
//
// A Model answers two questions: what does it cost to carry a load from a
// center to the hub, and what does the unladen move from the hub out to the
// next center cost. Both variants are backed by a symmetric LegTable and
// report an unreachable leg as +Inf.
package costmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Model names accepted by NewByName.
const (
	ModelTiered = "tiered"
	ModelMatrix = "matrix"
)

var (
	// ErrUnknownModel is returned by NewByName for an unrecognised model name.
	ErrUnknownModel = errors.New("unknown cost model")

	// ErrInvalidLeg is returned when a leg value is negative, NaN or connects a node to itself.
	ErrInvalidLeg = errors.New("invalid leg")
)

// Model prices legs between nodes. Implementations must be symmetric and safe
// for concurrent use.
type Model interface {
	// LegCost is the cost of a laden leg carrying weight from one node to another.
	LegCost(from, to string, weight float64) float64
	// EmptyLegCost is the cost of an unladen move between two nodes.
	EmptyLegCost(from, to string) float64
	// Name identifies the model in results, logs and metrics.
	Name() string
}

// WeightSensitive is implemented by models whose laden leg price depends on
// the carried weight, so every priced product needs a unit weight.
type WeightSensitive interface {
	UsesWeight() bool
}

// Leg is one entry of a LegTable.
type Leg struct {
	From  string  `json:"from" yaml:"from"`
	To    string  `json:"to" yaml:"to"`
	Value float64 `json:"value" yaml:"value"`
}

type pairKey struct{ a, b string }

func keyFor(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// LegTable maps unordered node pairs to a non-negative value.
// It is filled once while loading a catalog and only read afterwards.
type LegTable struct {
	legs map[pairKey]float64
}

// NewLegTable returns an empty table.
func NewLegTable() *LegTable {
	return &LegTable{legs: make(map[pairKey]float64)}
}

// Set records the value for the pair (a, b). Setting (b, a) afterwards overwrites it.
func (t *LegTable) Set(a, b string, value float64) error {
	if a == "" || b == "" {
		return fmt.Errorf("%w: empty node id", ErrInvalidLeg)
	}
	if a == b {
		return fmt.Errorf("%w: %s connects to itself", ErrInvalidLeg, a)
	}
	if math.IsNaN(value) || value < 0 {
		return fmt.Errorf("%w: %s-%s has value %v", ErrInvalidLeg, a, b, value)
	}
	t.legs[keyFor(a, b)] = value
	return nil
}

// Get returns the value for the pair in either direction.
func (t *LegTable) Get(a, b string) (float64, bool) {
	v, ok := t.legs[keyFor(a, b)]
	return v, ok
}

// Cost returns the value for the pair, or +Inf when the pair is missing.
func (t *LegTable) Cost(a, b string) float64 {
	if v, ok := t.Get(a, b); ok {
		return v
	}
	return math.Inf(1)
}

// Len returns the number of distinct pairs.
func (t *LegTable) Len() int {
	return len(t.legs)
}

// Legs returns every pair, sorted by (From, To) with From < To.
func (t *LegTable) Legs() []Leg {
	out := make([]Leg, 0, len(t.legs))
	for k, v := range t.legs {
		out = append(out, Leg{From: k.a, To: k.b, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// NewByName builds the named model. Tiered reads distances, matrix reads flat costs.
func NewByName(name string, distances, costs *LegTable, schedule TierSchedule) (Model, error) {
	switch name {
	case ModelTiered:
		if distances == nil || distances.Len() == 0 {
			return nil, fmt.Errorf("tiered model: no distances configured")
		}
		if err := schedule.Validate(); err != nil {
			return nil, fmt.Errorf("tiered model: %w", err)
		}
		return NewTiered(distances, schedule), nil
	case ModelMatrix:
		if costs == nil || costs.Len() == 0 {
			return nil, fmt.Errorf("matrix model: no leg costs configured")
		}
		return NewMatrix(costs), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// Names lists the supported model names.
func Names() []string {
	return []string{ModelTiered, ModelMatrix}
}
