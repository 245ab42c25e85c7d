package optimizer

import (
	"context"
	"math"
	"sort"

	"github.com/kosarica/sourcing-service/internal/costmodel"
)

// ctxCheckInterval is how many routes are priced between deadline checks.
const ctxCheckInterval = 1024

// RouteResult is the cheapest visiting order found for one assignment.
type RouteResult struct {
	Route     Route
	Cost      float64 // +Inf when every route crosses a missing leg
	Evaluated int
}

// RouteOptimizer prices every visiting order over the centers of one assignment.
type RouteOptimizer struct {
	model costmodel.Model
	hub   string
}

// NewRouteOptimizer creates a route optimizer delivering to hub.
func NewRouteOptimizer(model costmodel.Model, hub string) *RouteOptimizer {
	return &RouteOptimizer{model: model, hub: hub}
}

// Best tries every start center followed by every ordering of the rest and
// returns the first route with the lowest cost.
//
// A route is priced by walking it: each center adds a laden leg to the hub
// carrying the weight of everything assigned to it, and every center after
// the first adds the unladen hub to center leg that precedes it.
func (r *RouteOptimizer) Best(ctx context.Context, loads []CenterLoad) (RouteResult, error) {
	n := len(loads)
	if n == 0 {
		return RouteResult{}, nil
	}

	sorted := make([]CenterLoad, n)
	copy(sorted, loads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Center < sorted[j].Center })

	// Leg prices depend on the center only, never on the position in the route.
	pickup := make([]float64, n)
	inbound := make([]float64, n)
	for i, l := range sorted {
		pickup[i] = r.model.LegCost(l.Center, r.hub, l.Weight)
		inbound[i] = r.model.EmptyLegCost(r.hub, l.Center)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	bestPerm := make([]int, n)
	best := RouteResult{Cost: math.Inf(1)}

	for {
		best.Evaluated++
		if best.Evaluated%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return RouteResult{}, err
			}
		}

		if cost := walk(perm, pickup, inbound); cost < best.Cost {
			best.Cost = cost
			copy(bestPerm, perm)
		}
		if !nextPermutation(perm) {
			break
		}
	}

	if !math.IsInf(best.Cost, 1) {
		best.Route = make(Route, n)
		for i, idx := range bestPerm {
			best.Route[i] = sorted[idx].Center
		}
	}
	return best, nil
}

// walk prices one visiting order. Centers in a route are distinct, so each
// center's load is picked up exactly once.
func walk(perm []int, pickup, inbound []float64) float64 {
	total := 0.0
	for i, c := range perm {
		total += pickup[c]
		if i+1 < len(perm) {
			total += inbound[perm[i+1]]
		}
		if math.IsInf(total, 1) {
			return total
		}
	}
	return total
}

// nextPermutation rearranges p into the next permutation in lexicographic
// order and reports false once p was the last one.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}
