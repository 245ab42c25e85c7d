package costmodel

// Matrix charges a fixed amount per leg regardless of load.
type Matrix struct {
	costs *LegTable
}

// NewMatrix creates a flat model over a cost table.
func NewMatrix(costs *LegTable) *Matrix {
	return &Matrix{costs: costs}
}

func (m *Matrix) LegCost(from, to string, _ float64) float64 {
	return m.costs.Cost(from, to)
}

func (m *Matrix) EmptyLegCost(from, to string) float64 {
	return m.costs.Cost(from, to)
}

func (m *Matrix) Name() string { return ModelMatrix }
