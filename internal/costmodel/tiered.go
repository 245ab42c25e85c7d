package costmodel

import (
	"fmt"
	"math"
)

// TierSchedule is the per-kilometre price ladder of the tiered model.
type TierSchedule struct {
	BaseRate   float64 `mapstructure:"base_rate" yaml:"base_rate" json:"base_rate"`
	StepRate   float64 `mapstructure:"step_rate" yaml:"step_rate" json:"step_rate"`
	FreeWeight float64 `mapstructure:"free_weight" yaml:"free_weight" json:"free_weight"`
	StepWeight float64 `mapstructure:"step_weight" yaml:"step_weight" json:"step_weight"`
}

// DefaultTierSchedule returns 10 per km up to 5 kg, plus 8 per started 5 kg above that.
func DefaultTierSchedule() TierSchedule {
	return TierSchedule{
		BaseRate:   10,
		StepRate:   8,
		FreeWeight: 5,
		StepWeight: 5,
	}
}

// Validate checks that the schedule yields finite, non-negative rates.
func (s TierSchedule) Validate() error {
	switch {
	case s.BaseRate < 0 || math.IsNaN(s.BaseRate):
		return fmt.Errorf("base_rate must be non-negative")
	case s.StepRate < 0 || math.IsNaN(s.StepRate):
		return fmt.Errorf("step_rate must be non-negative")
	case s.FreeWeight < 0 || math.IsNaN(s.FreeWeight):
		return fmt.Errorf("free_weight must be non-negative")
	case !(s.StepWeight > 0):
		return fmt.Errorf("step_weight must be positive")
	}
	return nil
}

// Rate returns the price per kilometre for the given load.
func (s TierSchedule) Rate(weight float64) float64 {
	if weight <= s.FreeWeight {
		return s.BaseRate
	}
	steps := math.Ceil((weight - s.FreeWeight) / s.StepWeight)
	return s.BaseRate + s.StepRate*steps
}

// Tiered prices a laden leg as rate(weight) times distance.
// The unladen move is charged at one unit per kilometre.
type Tiered struct {
	distances *LegTable
	schedule  TierSchedule
}

// NewTiered creates a tiered model over a distance table.
func NewTiered(distances *LegTable, schedule TierSchedule) *Tiered {
	return &Tiered{distances: distances, schedule: schedule}
}

func (t *Tiered) LegCost(from, to string, weight float64) float64 {
	d := t.distances.Cost(from, to)
	if math.IsInf(d, 1) {
		return d
	}
	return t.schedule.Rate(weight) * d
}

func (t *Tiered) EmptyLegCost(from, to string) float64 {
	return t.distances.Cost(from, to)
}

func (t *Tiered) Name() string { return ModelTiered }

func (t *Tiered) UsesWeight() bool { return true }

// Schedule returns the rate ladder in use.
func (t *Tiered) Schedule() TierSchedule { return t.schedule }
