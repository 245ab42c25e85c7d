// Package service assembles the catalog, cost models and optimizers that the
// server and the CLI share.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/sourcing-service/config"
	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/costmodel"
	"github.com/kosarica/sourcing-service/internal/optimizer"
)

// ErrNoPool is returned when the postgres source is selected without a pool.
var ErrNoPool = errors.New("postgres catalog source needs a database connection")

// Service holds one optimizer per configured cost model over a single catalog.
type Service struct {
	Definition   *catalog.Definition
	Optimizers   map[string]*optimizer.Optimizer
	DefaultModel string
}

// LoadCatalog reads the catalog from the configured source. pool is only
// used by the postgres source.
func LoadCatalog(ctx context.Context, cfg config.CatalogConfig, pool *pgxpool.Pool) (*catalog.Definition, error) {
	switch cfg.Source {
	case config.SourceFile:
		return catalog.LoadFile(cfg.Path)
	case config.SourcePostgres:
		if pool == nil {
			return nil, ErrNoPool
		}
		return catalog.LoadPostgres(ctx, pool, cfg.Schema)
	case config.SourceBuiltin, "":
		return catalog.Default(), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// New builds an optimizer for every model the catalog has leg data for.
// The default model must build; any other model that cannot is skipped.
func New(def *catalog.Definition, cfg *config.Config, metrics *optimizer.MetricsRecorder) (*Service, error) {
	logger := log.With().Str("component", "service").Logger()

	for _, w := range def.Warnings() {
		logger.Warn().Str("source", def.Source).Msg("Catalog: " + w)
	}

	optCfg := cfg.Optimizer
	byModel := make(map[string]*optimizer.Optimizer)
	for _, name := range costmodel.Names() {
		model, err := costmodel.NewByName(name, def.Distances, def.Costs, cfg.CostModel.Tiers)
		if err != nil {
			if name == cfg.CostModel.Default {
				return nil, fmt.Errorf("default cost model: %w", err)
			}
			logger.Warn().Err(err).Str("model", name).Msg("Cost model unavailable")
			continue
		}
		byModel[name] = optimizer.NewOptimizer(def.Catalog, model, &optCfg, metrics)
	}

	logger.Info().
		Str("source", def.Source).
		Str("hub", def.Catalog.Hub()).
		Int("centers", len(def.Catalog.Centers())).
		Int("products", len(def.Catalog.Products())).
		Int("models", len(byModel)).
		Msg("Catalog loaded")

	return &Service{
		Definition:   def,
		Optimizers:   byModel,
		DefaultModel: cfg.CostModel.Default,
	}, nil
}

// Optimizer returns the optimizer for name, or the default model when name is empty.
func (s *Service) Optimizer(name string) (*optimizer.Optimizer, error) {
	if name == "" {
		name = s.DefaultModel
	}
	opt, ok := s.Optimizers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", costmodel.ErrUnknownModel, name)
	}
	return opt, nil
}
