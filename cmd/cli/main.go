package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosarica/sourcing-service/config"
	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/database"
	"github.com/kosarica/sourcing-service/internal/service"
)

var (
	cfgFile     string
	catalogPath string
	cfg         *config.Config
	logger      *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sourcing",
	Short: "Sourcing Service CLI - order sourcing cost tool",
	Long: `A CLI tool for pricing orders against a catalog of distribution centers.
It computes the cheapest way to bring every ordered product to the hub and
can inspect, validate and seed the catalog.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file (.yaml, .yml or .xlsx); overrides catalog.source")
}

// persistentPreRun runs before each command and loads config and logger
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if catalogPath != "" {
		cfg.Catalog.Source = config.SourceFile
		cfg.Catalog.Path = catalogPath
	}

	logger = initLogger()
	return nil
}

// initLogger writes to stderr so command output stays machine readable
func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.WarnLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil && parsedLevel > level {
			level = parsedLevel
		}
	}

	noColor := cfg != nil && cfg.Logging.NoColor
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}).Level(level).With().Timestamp().Logger()
	log.Logger = l
	return &l
}

func initDatabase(ctx context.Context) error {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

// loadCatalog reads the configured catalog, connecting to the database
// when the source is postgres.
func loadCatalog(ctx context.Context) (*catalog.Definition, error) {
	if cfg.Catalog.Source == config.SourcePostgres {
		if err := initDatabase(ctx); err != nil {
			return nil, err
		}
		logger.Info().Msg("Database connected")
	}
	return service.LoadCatalog(ctx, cfg.Catalog, database.Pool())
}

func main() {
	defer database.Close()
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
