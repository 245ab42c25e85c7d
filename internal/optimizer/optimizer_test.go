package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/costmodel"
)

func newTestOptimizer(t *testing.T, modelName string, mutate func(*Config)) *Optimizer {
	t.Helper()
	def := catalog.Default()
	model, err := costmodel.NewByName(modelName, def.Distances, def.Costs, costmodel.DefaultTierSchedule())
	require.NoError(t, err)

	config := Defaults()
	if mutate != nil {
		mutate(config)
	}
	require.NoError(t, config.Validate())
	return NewOptimizer(def.Catalog, model, config, NewMetricsRecorder())
}

func allProducts(qty int) Order {
	return Order{"A": qty, "B": qty, "C": qty, "D": qty, "E": qty, "F": qty, "G": qty, "H": qty, "I": qty}
}

// Expected values follow the original service on its built-in dataset,
// including its round-half-to-even rounding.
func TestQuoteTieredRegression(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	tests := []struct {
		name  string
		order Order
		want  int64
		raw   float64
	}{
		{"ten of A", Order{"A": 10}, 200, 200},
		{"one A", Order{"A": 1}, 40, 40},
		{"A and F from two centers", Order{"A": 1, "F": 1}, 73, 73},
		{"every product", allProducts(1), 320, 320.5},
		{"three E", Order{"E": 3}, 305, 305},
		{"A and E", Order{"A": 2, "E": 1}, 180, 179.5},
		{"light F", Order{"F": 1}, 30, 30},
		{"H and I together", Order{"H": 4, "I": 1}, 45, 45},
		{"one D", Order{"D": 1}, 65, 65},
		{"A and D", Order{"A": 1, "D": 1}, 108, 107.5},
		{"B and G", Order{"B": 3, "G": 1}, 105, 105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := opt.Quote(context.Background(), tt.order)
			require.NoError(t, err)
			assert.Equal(t, OutcomeOK, res.Outcome)
			assert.Equal(t, tt.want, res.MinimumCost)
			assert.Equal(t, tt.raw, res.RawCost)
			assert.Equal(t, costmodel.ModelTiered, res.Model)
		})
	}
}

func TestQuoteReportsWinningAssignmentAndRoute(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	res, err := opt.Quote(context.Background(), Order{"A": 1, "D": 1})
	require.NoError(t, err)

	assert.Equal(t, Assignment{"A": "C1", "D": "C2"}, res.Assignment)
	assert.Equal(t, Route{"C1", "C2"}, res.Route)
	assert.Equal(t, 2, res.AssignmentsEvaluated) // D at C2 or C3
	assert.Equal(t, 4, res.RoutesEvaluated)
}

func TestQuoteSingleProductSingleCenterIsOnePickupLeg(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	// 10 x 3 kg = 30 kg -> rate 10 + 8*5 = 50, C1 to hub is 4 km
	cost, outcome, err := opt.MinimumCost(context.Background(), Order{"A": 10})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome)
	assert.Equal(t, int64(200), cost)
}

func TestQuoteMatrixModel(t *testing.T) {
	cat, err := catalog.New("L1", map[string][]string{
		"C1": {"A"},
		"C2": {"X"},
	}, nil)
	require.NoError(t, err)
	costs := costmodel.NewLegTable()
	require.NoError(t, costs.Set("C2", "L1", 40))
	require.NoError(t, costs.Set("C1", "L1", 50))

	opt := NewOptimizer(cat, costmodel.NewMatrix(costs), nil, nil)

	cost, outcome, err := opt.MinimumCost(context.Background(), Order{"X": 7})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome)
	assert.Equal(t, int64(40), cost)

	// weights are never needed by the flat model
	cost, _, err = opt.MinimumCost(context.Background(), Order{"X": 1, "A": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(50+40+40), cost) // start at C1: 50, hub->C2 40, C2 pickup 40
}

func TestQuoteMatrixDefaultDataset(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelMatrix, nil)

	tests := []struct {
		order Order
		want  int64
	}{
		{Order{"D": 1}, 40},          // C2 beats C3
		{Order{"A": 100}, 50},        // weight is irrelevant
		{Order{"A": 1, "F": 1}, 140}, // C1 50 + hub->C3 45 + C3 45
	}
	for _, tt := range tests {
		cost, _, err := opt.MinimumCost(context.Background(), tt.order)
		require.NoError(t, err)
		assert.Equal(t, tt.want, cost, "order %v", tt.order)
	}
}

func TestQuoteEmptyOrders(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	for _, order := range []Order{
		nil,
		{},
		{"A": 0},
		{"A": -5, "B": 0},
		{"Z": 0}, // unstocked but not requested
	} {
		res, err := opt.Quote(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, res.Outcome, "order %v", order)
		assert.Equal(t, int64(0), res.MinimumCost)
		assert.Empty(t, res.Unstocked)
	}
}

func TestQuoteIgnoresNonPositiveLines(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	with, err := opt.Quote(context.Background(), Order{"A": 10, "E": 0, "F": -3})
	require.NoError(t, err)
	without, err := opt.Quote(context.Background(), Order{"A": 10})
	require.NoError(t, err)

	assert.Equal(t, without.MinimumCost, with.MinimumCost)
	assert.Equal(t, without.Assignment, with.Assignment)
}

func TestQuoteNormalisesAndMergesCodes(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	res, err := opt.Quote(context.Background(), Order{"a": 1, " A ": 1})
	require.NoError(t, err)
	// 2 x 3 kg = 6 kg -> rate 18 over 4 km
	assert.Equal(t, int64(72), res.MinimumCost)
	assert.Equal(t, Assignment{"A": "C1"}, res.Assignment)
}

func TestQuoteIsIdempotent(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)
	order := Order{"B": 2, "C": 1, "G": 1, "H": 3}

	first, err := opt.Quote(context.Background(), order)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := opt.Quote(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, first.MinimumCost, again.MinimumCost)
		assert.Equal(t, first.RawCost, again.RawCost)
		assert.Equal(t, first.Assignment, again.Assignment)
		assert.Equal(t, first.Route, again.Route)
	}
}

func TestQuoteMonotonicInRequiredCenters(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	// each step requires every center the previous step required
	steps := []Order{
		{"A": 1},                 // C1
		{"A": 1, "F": 1},         // C1, C3
		{"A": 1, "F": 1, "B": 1}, // B could come from C1 or C2
	}
	var prev int64
	for _, order := range steps {
		cost, _, err := opt.MinimumCost(context.Background(), order)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cost, prev, "order %v", order)
		prev = cost
	}
}

func TestQuoteRejectPolicy(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	res, err := opt.Quote(context.Background(), Order{"A": 1, "Z": 2, "Y": 1})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnsatisfiable, res.Outcome)
	assert.Equal(t, ReasonUnstocked, res.Reason)
	assert.Equal(t, int64(0), res.MinimumCost)
	assert.Equal(t, []string{"Y", "Z"}, res.Unstocked)
	assert.Empty(t, res.Dropped)
	assert.Nil(t, res.Assignment)
}

func TestQuoteDropPolicy(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.UnstockedPolicy = PolicyDrop
	})

	res, err := opt.Quote(context.Background(), Order{"A": 10, "Z": 2})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, int64(200), res.MinimumCost)
	assert.Equal(t, []string{"Z"}, res.Dropped)
	assert.Equal(t, []string{"Z"}, res.Unstocked)

	res, err = opt.Quote(context.Background(), Order{"Z": 2})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsatisfiable, res.Outcome)
	assert.Equal(t, ReasonUnstocked, res.Reason)
	assert.Equal(t, int64(0), res.MinimumCost)
}

func TestQuoteNoRoute(t *testing.T) {
	cat, err := catalog.New("L1", map[string][]string{
		"C1": {"A", "B"},
		"C2": {"B", "X"},
	}, map[string]float64{"A": 1, "B": 1, "X": 1})
	require.NoError(t, err)
	distances := costmodel.NewLegTable()
	require.NoError(t, distances.Set("C1", "L1", 4)) // C2 cannot reach the hub

	opt := NewOptimizer(cat, costmodel.NewTiered(distances, costmodel.DefaultTierSchedule()), nil, nil)

	res, err := opt.Quote(context.Background(), Order{"X": 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsatisfiable, res.Outcome)
	assert.Equal(t, ReasonNoRoute, res.Reason)
	assert.Equal(t, int64(0), res.MinimumCost)
	assert.Equal(t, 1, res.AssignmentsEvaluated)

	// B can avoid the blocked center
	res, err = opt.Quote(context.Background(), Order{"A": 1, "B": 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, int64(40), res.MinimumCost)
	assert.Equal(t, Assignment{"A": "C1", "B": "C1"}, res.Assignment)
}

func TestQuoteMissingWeight(t *testing.T) {
	cat, err := catalog.New("L1", map[string][]string{"C1": {"A"}}, nil)
	require.NoError(t, err)
	distances := costmodel.NewLegTable()
	require.NoError(t, distances.Set("C1", "L1", 4))

	opt := NewOptimizer(cat, costmodel.NewTiered(distances, costmodel.DefaultTierSchedule()), nil, nil)
	_, err = opt.Quote(context.Background(), Order{"A": 1})

	var invalid ErrInvalidOrder
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "A", invalid.Field)
}

func TestQuoteParallelMatchesSequential(t *testing.T) {
	sequential := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.Parallelism = 1
	})
	parallel := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.Parallelism = 8
		c.ParallelThreshold = 0
	})

	orders := []Order{
		allProducts(1),
		allProducts(3),
		{"B": 2, "C": 1, "G": 1, "H": 3, "I": 1},
		{"C": 1, "G": 1},
		{"A": 1, "D": 1},
	}
	for _, order := range orders {
		want, err := sequential.Quote(context.Background(), order)
		require.NoError(t, err)
		got, err := parallel.Quote(context.Background(), order)
		require.NoError(t, err)

		assert.Equal(t, want.MinimumCost, got.MinimumCost, "order %v", order)
		assert.Equal(t, want.RawCost, got.RawCost)
		assert.Equal(t, want.Assignment, got.Assignment)
		assert.Equal(t, want.Route, got.Route)
		assert.Equal(t, want.AssignmentsEvaluated, got.AssignmentsEvaluated)
		assert.Equal(t, want.RoutesEvaluated, got.RoutesEvaluated)
	}
}

func TestQuoteSearchTooLarge(t *testing.T) {
	tooMany := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.MaxAssignments = 5
	})
	_, err := tooMany.Quote(context.Background(), Order{"B": 1, "C": 1}) // 2 x 3 assignments
	assert.ErrorIs(t, err, ErrSearchTooLarge)

	tooWide := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.MaxRouteCenters = 2
	})
	_, err = tooWide.Quote(context.Background(), Order{"A": 1, "D": 1, "F": 1})
	assert.ErrorIs(t, err, ErrSearchTooLarge)

	// two centers at most is still fine
	_, err = tooWide.Quote(context.Background(), Order{"A": 1, "B": 1})
	assert.NoError(t, err)
}

func TestQuoteTooManyLines(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.MaxOrderLines = 2
	})
	_, err := opt.Quote(context.Background(), Order{"A": 1, "B": 1, "C": 1})
	var invalid ErrInvalidOrder
	assert.ErrorAs(t, err, &invalid)
}

func TestQuoteLineLimitIgnoresNonPositiveEntries(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, func(c *Config) {
		c.MaxOrderLines = 2
	})

	res, err := opt.Quote(context.Background(), Order{"A": 10, "X1": 0, "X2": -1, "B": 0})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, int64(200), res.MinimumCost)

	// duplicates after normalisation are one line
	res, err = opt.Quote(context.Background(), Order{"a": 4, " A ": 6, "F": 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, res.Outcome)
}

func TestPrepareAgreesWithAssignments(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	lines, unstocked, err := opt.prepare(Order{"C": 2, "B": 1, "Z": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Z"}, unstocked)

	want, _ := assignments(opt.Catalog(), []string{"B", "C"})
	enum := newEnumerator(lines)
	var got []Assignment
	for enum.Next() {
		got = append(got, enum.Assignment())
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 2.0, lines[0].weight)  // one B at 2 kg
	assert.Equal(t, 16.0, lines[1].weight) // two C at 8 kg
}

func TestQuoteTimeout(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := opt.Quote(ctx, allProducts(1))
	assert.ErrorIs(t, err, ErrSearchTimeout)
}

func TestQuoteCancelled(t *testing.T) {
	opt := newTestOptimizer(t, costmodel.ModelTiered, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := opt.Quote(ctx, allProducts(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrSearchTimeout)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"policy", func(c *Config) { c.UnstockedPolicy = "ignore" }, "unstocked_policy"},
		{"assignments", func(c *Config) { c.MaxAssignments = 0 }, "max_assignments"},
		{"centers", func(c *Config) { c.MaxRouteCenters = 11 }, "max_route_centers"},
		{"timeout", func(c *Config) { c.SearchTimeout = 0 }, "search_timeout"},
		{"lines", func(c *Config) { c.MaxOrderLines = 0 }, "max_order_lines"},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }, "parallelism"},
		{"threshold", func(c *Config) { c.ParallelThreshold = -1 }, "parallel_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(c)
			var invalid ErrInvalidConfig
			require.ErrorAs(t, c.Validate(), &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}
