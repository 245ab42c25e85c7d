package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/costmodel"
)

const tracerName = "github.com/kosarica/sourcing-service/internal/optimizer"

// Optimizer finds the cheapest way to source an order from the catalog's
// centers to its hub under one cost model. It keeps no per-request state
// and is safe for concurrent use.
type Optimizer struct {
	catalog *catalog.Catalog
	model   costmodel.Model
	routes  *RouteOptimizer
	config  *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewOptimizer creates an optimizer. A nil config uses Defaults().
func NewOptimizer(cat *catalog.Catalog, model costmodel.Model, config *Config, metrics *MetricsRecorder) *Optimizer {
	if config == nil {
		config = Defaults()
	}
	if metrics == nil {
		metrics = NewMetricsRecorder()
	}
	return &Optimizer{
		catalog: cat,
		model:   model,
		routes:  NewRouteOptimizer(model, cat.Hub()),
		config:  config,
		metrics: metrics,
		logger:  log.With().Str("component", "optimizer").Str("model", model.Name()).Logger(),
		tracer:  otel.Tracer(tracerName),
	}
}

// Model returns the name of the cost model in use.
func (o *Optimizer) Model() string { return o.model.Name() }

// Catalog returns the catalog the optimizer sources from.
func (o *Optimizer) Catalog() *catalog.Catalog { return o.catalog }

// MinimumCost returns only the rounded cost and outcome of Quote.
func (o *Optimizer) MinimumCost(ctx context.Context, order Order) (int64, Outcome, error) {
	res, err := o.Quote(ctx, order)
	if err != nil {
		return 0, "", err
	}
	return res.MinimumCost, res.Outcome, nil
}

// Quote computes the minimum sourcing cost for order.
//
// Every assignment of products to stocking centers is tried, and for each
// one every visiting order of its centers. Products no center stocks are
// handled by the configured Policy. An order that needs nothing costs 0.
func (o *Optimizer) Quote(ctx context.Context, order Order) (*Result, error) {
	start := time.Now()
	modelName := o.model.Name()

	ctx, span := o.tracer.Start(ctx, "optimizer.Quote",
		trace.WithAttributes(attribute.String("sourcing.model", modelName)))
	defer span.End()

	fail := func(reason string, err error) (*Result, error) {
		o.metrics.RecordQuoteError(modelName, reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return nil, err
	}

	lines, unstocked, err := o.prepare(order)
	if err != nil {
		return fail("invalid", err)
	}
	o.metrics.RecordOrderLines(len(lines) + len(unstocked))
	span.SetAttributes(
		attribute.Int("sourcing.products", len(lines)),
		attribute.Int("sourcing.unstocked", len(unstocked)),
	)

	result := &Result{Model: modelName, Unstocked: unstocked}
	finish := func() (*Result, error) {
		result.Duration = time.Since(start)
		o.metrics.RecordQuote(modelName, result.Outcome, result.Duration)
		o.metrics.RecordSearch(result.AssignmentsEvaluated, result.RoutesEvaluated)
		span.SetAttributes(
			attribute.String("sourcing.outcome", string(result.Outcome)),
			attribute.Int64("sourcing.minimum_cost", result.MinimumCost),
		)
		o.logger.Debug().
			Str("outcome", string(result.Outcome)).
			Int64("minimum_cost", result.MinimumCost).
			Int("assignments", result.AssignmentsEvaluated).
			Int("routes", result.RoutesEvaluated).
			Dur("duration", result.Duration).
			Msg("Quote computed")
		return result, nil
	}

	if len(unstocked) > 0 {
		if o.config.UnstockedPolicy != PolicyDrop {
			result.Outcome = OutcomeUnsatisfiable
			result.Reason = ReasonUnstocked
			return finish()
		}
		result.Dropped = unstocked
		if len(lines) == 0 {
			result.Outcome = OutcomeUnsatisfiable
			result.Reason = ReasonUnstocked
			return finish()
		}
	}
	if len(lines) == 0 {
		result.Outcome = OutcomeOK
		return finish()
	}

	enum := newEnumerator(lines)
	if n := enum.Count(); n > o.config.MaxAssignments {
		o.logger.Warn().Int("assignments", n).Int("limit", o.config.MaxAssignments).Msg("Order rejected, too many assignments")
		return fail("too_large", fmt.Errorf("%w: %d assignments (limit %d)", ErrSearchTooLarge, n, o.config.MaxAssignments))
	}
	if n := maxDistinctCenters(lines); n > o.config.MaxRouteCenters {
		o.logger.Warn().Int("centers", n).Int("limit", o.config.MaxRouteCenters).Msg("Order rejected, too many centers per route")
		return fail("too_large", fmt.Errorf("%w: up to %d centers per route (limit %d)", ErrSearchTooLarge, n, o.config.MaxRouteCenters))
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.config.SearchTimeout)
	defer cancel()

	var best searchBest
	if o.config.Parallelism > 1 && enum.Count() >= o.config.ParallelThreshold {
		best, err = o.searchParallel(searchCtx, lines, enum)
	} else {
		best, err = o.searchSequential(searchCtx, lines, enum)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			o.logger.Warn().Dur("timeout", o.config.SearchTimeout).Msg("Search timed out")
			return fail("timeout", fmt.Errorf("%w after %s", ErrSearchTimeout, o.config.SearchTimeout))
		}
		return fail("canceled", fmt.Errorf("search aborted: %w", err))
	}

	result.AssignmentsEvaluated = best.assignments
	result.RoutesEvaluated = best.routes

	if best.seq < 0 || math.IsInf(best.cost, 1) {
		result.Outcome = OutcomeUnsatisfiable
		result.Reason = ReasonNoRoute
		return finish()
	}

	result.RawCost = best.cost
	result.MinimumCost = decimal.NewFromFloat(best.cost).RoundBank(0).IntPart()
	result.Assignment = assignmentFor(lines, best.choice)
	result.Route = best.route
	result.Outcome = OutcomeOK
	if len(result.Dropped) > 0 {
		result.Outcome = OutcomePartial
	}
	return finish()
}

// prepare normalises codes, drops non-positive quantities, merges duplicates
// and splits the order into stocked lines and unstocked products.
func (o *Optimizer) prepare(order Order) ([]line, []string, error) {
	merged := make(map[string]int, len(order))
	for raw, qty := range order {
		if qty <= 0 {
			continue
		}
		code := catalog.NormalizeCode(raw)
		if code == "" {
			return nil, nil, ErrInvalidOrder{Field: "items", Reason: "product code must not be empty"}
		}
		if merged[code] > math.MaxInt-qty {
			return nil, nil, ErrInvalidOrder{Field: code, Reason: "quantity overflows"}
		}
		merged[code] += qty
	}
	// ignored lines do not count towards the limit
	if len(merged) > o.config.MaxOrderLines {
		return nil, nil, ErrInvalidOrder{Field: "items", Reason: fmt.Sprintf("exceeds maximum of %d products", o.config.MaxOrderLines)}
	}

	products := make([]string, 0, len(merged))
	for p := range merged {
		products = append(products, p)
	}
	sort.Strings(products)

	needsWeight := false
	if ws, ok := o.model.(costmodel.WeightSensitive); ok {
		needsWeight = ws.UsesWeight()
	}

	lines, unstocked := stockedLines(o.catalog, products)
	for i := range lines {
		l := &lines[i]
		w, ok := o.catalog.Weight(l.product)
		if !ok && needsWeight {
			return nil, nil, ErrInvalidOrder{Field: l.product, Reason: "product has no unit weight"}
		}
		l.quantity = merged[l.product]
		l.weight = float64(l.quantity) * w
	}
	return lines, unstocked, nil
}

// searchBest is the running global minimum. seq is the enumeration index
// of the winning assignment, -1 until a finite route is found.
type searchBest struct {
	seq         int
	cost        float64
	choice      []int
	route       Route
	assignments int
	routes      int
}

func newSearchBest() searchBest {
	return searchBest{seq: -1, cost: math.Inf(1)}
}

// offer keeps rr when it is cheaper, or equally cheap and enumerated earlier.
func (b *searchBest) offer(seq int, choice []int, rr RouteResult) {
	b.assignments++
	b.routes += rr.Evaluated
	if math.IsInf(rr.Cost, 1) {
		return
	}
	if rr.Cost < b.cost || (rr.Cost == b.cost && seq < b.seq) {
		b.seq = seq
		b.cost = rr.Cost
		b.choice = slices.Clone(choice)
		b.route = rr.Route
	}
}

func (o *Optimizer) searchSequential(ctx context.Context, lines []line, enum *Enumerator) (searchBest, error) {
	best := newSearchBest()
	for seq := 0; enum.Next(); seq++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		rr, err := o.routes.Best(ctx, loadsFor(lines, enum.Choice()))
		if err != nil {
			return best, err
		}
		best.offer(seq, enum.Choice(), rr)
	}
	return best, nil
}

// searchParallel evaluates assignments on up to Parallelism goroutines. Ties
// go to the lowest enumeration index, so the answer matches searchSequential.
func (o *Optimizer) searchParallel(ctx context.Context, lines []line, enum *Enumerator) (searchBest, error) {
	sem := semaphore.NewWeighted(int64(o.config.Parallelism))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		best     = newSearchBest()
		firstErr error
	)

	for seq := 0; enum.Next(); seq++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}

		choice := slices.Clone(enum.Choice())
		wg.Add(1)
		go func(seq int, choice []int) {
			defer wg.Done()
			defer sem.Release(1)
			o.metrics.IncrementWorkers()
			defer o.metrics.DecrementWorkers()

			rr, err := o.routes.Best(ctx, loadsFor(lines, choice))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			best.offer(seq, choice, rr)
		}(seq, choice)
	}
	wg.Wait()

	return best, firstErr
}
