package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/sourcing-service/internal/optimizer"
	"github.com/kosarica/sourcing-service/internal/service"
)

var (
	quoteOrder string
	quoteModel string
	quoteJSON  bool
)

// quoteCmd prices one order
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute the minimum sourcing cost of an order",
	Long: `Compute the minimum cost of bringing every product of an order to the hub.
The order is a JSON object of product code to integer quantity.`,
	Example: `  sourcing quote --order '{"A":10}'
  sourcing quote --order '{"A":1,"D":1}' --model matrix --json
  sourcing quote --order '{"A":1}' --catalog ./config/catalog.yaml`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteOrder, "order", "", "order as JSON, e.g. '{\"A\":10}' (required)")
	quoteCmd.Flags().StringVar(&quoteModel, "model", "", "cost model: tiered or matrix (default from config)")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the full result as JSON")
	_ = quoteCmd.MarkFlagRequired("order")
}

func runQuote(cmd *cobra.Command, args []string) error {
	var order optimizer.Order
	if err := json.Unmarshal([]byte(quoteOrder), &order); err != nil {
		return fmt.Errorf("invalid order: must be a JSON object of product code to integer quantity: %w", err)
	}

	ctx := cmd.Context()
	def, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	svc, err := service.New(def, cfg, optimizer.NewMetricsRecorder())
	if err != nil {
		return err
	}
	opt, err := svc.Optimizer(quoteModel)
	if err != nil {
		return err
	}

	res, err := opt.Quote(ctx, order)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if quoteJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printQuote(out, res)
}

func printQuote(out io.Writer, res *optimizer.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Minimum cost:\t%d\n", res.MinimumCost)
	fmt.Fprintf(w, "Outcome:\t%s\n", res.Outcome)
	if res.Reason != "" {
		fmt.Fprintf(w, "Reason:\t%s\n", res.Reason)
	}
	fmt.Fprintf(w, "Model:\t%s\n", res.Model)
	if len(res.Route) > 0 {
		fmt.Fprintf(w, "Route:\t%s -> %s\n", strings.Join(res.Route, " -> "), "hub")
	}
	if len(res.Unstocked) > 0 {
		fmt.Fprintf(w, "Unstocked:\t%s\n", strings.Join(res.Unstocked, ", "))
	}
	if len(res.Dropped) > 0 {
		fmt.Fprintf(w, "Dropped:\t%s\n", strings.Join(res.Dropped, ", "))
	}
	fmt.Fprintf(w, "Searched:\t%d assignments, %d routes in %s\n",
		res.AssignmentsEvaluated, res.RoutesEvaluated, res.Duration)
	return w.Flush()
}
