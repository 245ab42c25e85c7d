package optimizer

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/costmodel"
)

// flatModel charges pickup[center] for a laden leg and inbound[center] for
// the move out to it. Missing entries are unreachable.
type flatModel struct {
	hub     string
	pickup  map[string]float64
	inbound map[string]float64
}

func (m *flatModel) LegCost(from, to string, _ float64) float64 {
	center := from
	if from == m.hub {
		center = to
	}
	if v, ok := m.pickup[center]; ok {
		return v
	}
	return math.Inf(1)
}

func (m *flatModel) EmptyLegCost(from, to string) float64 {
	center := to
	if to == m.hub {
		center = from
	}
	if v, ok := m.inbound[center]; ok {
		return v
	}
	return math.Inf(1)
}

func (m *flatModel) Name() string { return "flat" }

func tieredDefault() costmodel.Model {
	def := catalog.Default()
	return costmodel.NewTiered(def.Distances, costmodel.DefaultTierSchedule())
}

func TestBestRouteSingleCenterIsOnePickupLeg(t *testing.T) {
	r := NewRouteOptimizer(tieredDefault(), "L1")

	rr, err := r.Best(context.Background(), []CenterLoad{{Center: "C1", Products: []string{"A"}, Weight: 30}})
	require.NoError(t, err)

	assert.Equal(t, 200.0, rr.Cost)
	assert.Equal(t, Route{"C1"}, rr.Route)
	assert.Equal(t, 1, rr.Evaluated)
}

func TestBestRouteTriesEveryStart(t *testing.T) {
	r := NewRouteOptimizer(tieredDefault(), "L1")

	// A (3 kg) at C1, F (0.5 kg) at C3:
	//   C1 first: 40 + 3 + 30 = 73
	//   C3 first: 30 + 4 + 40 = 74
	rr, err := r.Best(context.Background(), []CenterLoad{
		{Center: "C3", Products: []string{"F"}, Weight: 0.5},
		{Center: "C1", Products: []string{"A"}, Weight: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 73.0, rr.Cost)
	assert.Equal(t, Route{"C1", "C3"}, rr.Route)
	assert.Equal(t, 2, rr.Evaluated)
}

func TestBestRouteEvaluatesAllPermutations(t *testing.T) {
	model := &flatModel{hub: "L1", pickup: map[string]float64{}, inbound: map[string]float64{}}
	var loads []CenterLoad
	for i := 1; i <= 5; i++ {
		c := fmt.Sprintf("C%d", i)
		model.pickup[c] = float64(10 * i)
		model.inbound[c] = float64(i)
		loads = append(loads, CenterLoad{Center: c})
	}

	rr, err := NewRouteOptimizer(model, "L1").Best(context.Background(), loads)
	require.NoError(t, err)

	assert.Equal(t, 120, rr.Evaluated)
	// all pickups (150) plus every inbound leg except the start's: cheapest skips C5's 5
	assert.Equal(t, 150.0+1+2+3+4, rr.Cost)
	assert.Equal(t, "C5", rr.Route[0])
}

func TestBestRouteMissingLegNeverWins(t *testing.T) {
	model := &flatModel{
		hub:     "L1",
		pickup:  map[string]float64{"C1": 10, "C2": 10},
		inbound: map[string]float64{"C1": 1}, // hub to C2 is blocked
	}

	// Only routes starting at C2 avoid the blocked move.
	rr, err := NewRouteOptimizer(model, "L1").Best(context.Background(), []CenterLoad{{Center: "C1"}, {Center: "C2"}})
	require.NoError(t, err)
	assert.Equal(t, 21.0, rr.Cost)
	assert.Equal(t, Route{"C2", "C1"}, rr.Route)

	model.inbound = map[string]float64{}
	rr, err = NewRouteOptimizer(model, "L1").Best(context.Background(), []CenterLoad{{Center: "C1"}, {Center: "C2"}})
	require.NoError(t, err)
	assert.True(t, math.IsInf(rr.Cost, 1))
	assert.Nil(t, rr.Route)
}

func TestBestRouteEmpty(t *testing.T) {
	rr, err := NewRouteOptimizer(tieredDefault(), "L1").Best(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rr.Cost)
	assert.Equal(t, 0, rr.Evaluated)
}

func TestBestRouteHonoursCancellation(t *testing.T) {
	model := &flatModel{hub: "L1", pickup: map[string]float64{}, inbound: map[string]float64{}}
	var loads []CenterLoad
	for i := 1; i <= 7; i++ { // 5040 routes, several context checks
		c := fmt.Sprintf("C%d", i)
		model.pickup[c] = 1
		model.inbound[c] = 1
		loads = append(loads, CenterLoad{Center: c})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRouteOptimizer(model, "L1").Best(ctx, loads)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextPermutation(t *testing.T) {
	p := []int{0, 1, 2}
	var seen [][]int
	for {
		seen = append(seen, append([]int(nil), p...))
		if !nextPermutation(p) {
			break
		}
	}
	assert.Equal(t, [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}, seen)
}
