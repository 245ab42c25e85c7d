package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/sourcing-service/config"
	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/costmodel"
	"github.com/kosarica/sourcing-service/internal/database"
)

// catalogCmd groups catalog inspection commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect, validate and seed the catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print centers, weights and leg tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		return printCatalog(cmd.OutOrStdout(), def)
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the catalog and report data gaps",
	Long: `Load the catalog and report data gaps that make some orders unsatisfiable:
centers without a leg to the hub and products without a unit weight.
Exits non-zero when the catalog cannot be loaded or a gap is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		warnings := def.Warnings()
		for _, w := range warnings {
			fmt.Fprintf(out, "WARN  %s\n", w)
		}
		if len(warnings) > 0 {
			return fmt.Errorf("catalog %s has %d gap(s)", def.Source, len(warnings))
		}
		fmt.Fprintf(out, "OK    %s: %d centers, %d products\n",
			def.Source, len(def.Catalog.Centers()), len(def.Catalog.Products()))
		return nil
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the loaded catalog into the postgres schema",
	Long: `Replace the contents of the postgres catalog tables with the catalog read
from --catalog (or the built-in dataset). The schema and tables are created when missing.`,
	Example: `  DATABASE_URL=postgres://... sourcing catalog seed --catalog ./config/catalog.yaml`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Catalog.Source == config.SourcePostgres {
			return fmt.Errorf("seed needs a file or builtin catalog as input")
		}
		def, err := loadCatalog(ctx)
		if err != nil {
			return err
		}
		if err := initDatabase(ctx); err != nil {
			return err
		}
		if err := catalog.Seed(ctx, database.Pool(), cfg.Catalog.Schema, def); err != nil {
			return err
		}
		logger.Info().Str("schema", cfg.Catalog.Schema).Str("source", def.Source).Msg("Catalog seeded")
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s into schema %q\n", def.Source, cfg.Catalog.Schema)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogShowCmd, catalogValidateCmd, catalogSeedCmd)
}

func printCatalog(out io.Writer, def *catalog.Definition) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Source:\t%s\n", def.Source)
	fmt.Fprintf(w, "Hub:\t%s\n\n", def.Catalog.Hub())

	fmt.Fprintln(w, "CENTER\tPRODUCTS")
	inventory := def.Catalog.Inventory()
	for _, center := range def.Catalog.Centers() {
		fmt.Fprintf(w, "%s\t%s\n", center, strings.Join(inventory[center], ", "))
	}

	fmt.Fprintln(w, "\nPRODUCT\tUNIT WEIGHT")
	weights := def.Catalog.Weights()
	for _, p := range def.Catalog.Products() {
		if wt, ok := weights[p]; ok {
			fmt.Fprintf(w, "%s\t%g\n", p, wt)
		} else {
			fmt.Fprintf(w, "%s\t-\n", p)
		}
	}

	printLegs(w, "DISTANCE", def.Distances)
	printLegs(w, "COST", def.Costs)
	return w.Flush()
}

func printLegs(w io.Writer, label string, table *costmodel.LegTable) {
	legs := table.Legs()
	if len(legs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFROM\tTO\t%s\n", label)
	for _, leg := range legs {
		fmt.Fprintf(w, "%s\t%s\t%g\n", leg.From, leg.To, leg.Value)
	}
}
