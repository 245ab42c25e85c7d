package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/optimizer"
)

// ============================================================================
// Sourcing Cost Endpoints
// ============================================================================

// CostResponse is returned by POST /calculate-cost
type CostResponse struct {
	MinimumCost int64    `json:"minimum_cost"`
	Outcome     string   `json:"outcome"`
	Reason      string   `json:"reason,omitempty"`
	Unstocked   []string `json:"unstocked,omitempty"`
	Dropped     []string `json:"dropped,omitempty"`
	Model       string   `json:"model"`
}

// QuoteRequest represents the detailed quote request
type QuoteRequest struct {
	Items map[string]int `json:"items" binding:"required"`
	Model string         `json:"model,omitempty" binding:"omitempty,oneof=tiered matrix"`
}

// QuoteResponse is the detailed quote with the winning plan
type QuoteResponse struct {
	MinimumCost          int64             `json:"minimum_cost"`
	RawCost              float64           `json:"raw_cost"`
	Outcome              string            `json:"outcome"`
	Reason               string            `json:"reason,omitempty"`
	Model                string            `json:"model"`
	Assignment           map[string]string `json:"assignment,omitempty"`
	Route                []string          `json:"route,omitempty"`
	Unstocked            []string          `json:"unstocked,omitempty"`
	Dropped              []string          `json:"dropped,omitempty"`
	AssignmentsEvaluated int               `json:"assignments_evaluated"`
	RoutesEvaluated      int               `json:"routes_evaluated"`
	DurationMs           float64           `json:"duration_ms"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// Global quoting state (initialized by the application)
var (
	quoteMu      sync.RWMutex
	optimizers   map[string]*optimizer.Optimizer
	defaultModel string
	catalogDef   *catalog.Definition
)

// InitQuoting registers the loaded catalog and one optimizer per cost model.
// This should be called during application startup
func InitQuoting(def *catalog.Definition, byModel map[string]*optimizer.Optimizer, defaultModelName string) {
	quoteMu.Lock()
	defer quoteMu.Unlock()
	catalogDef = def
	optimizers = byModel
	defaultModel = defaultModelName
}

func optimizerFor(model string) (*optimizer.Optimizer, error) {
	quoteMu.RLock()
	defer quoteMu.RUnlock()
	if optimizers == nil {
		return nil, errNotInitialized
	}
	if model == "" {
		model = defaultModel
	}
	opt, ok := optimizers[model]
	if !ok {
		return nil, fmt.Errorf("cost model %q is not configured", model)
	}
	return opt, nil
}

var errNotInitialized = errors.New("optimizer not initialized")

// statusClientClosedRequest is recorded when the caller went away mid-search.
// Nobody reads the response, so no body is written.
const statusClientClosedRequest = 499

// CalculateCost handles POST /calculate-cost
// @Summary Minimum sourcing cost
// @Description Returns the minimum cost to bring every ordered product to the hub. The body maps product codes to integer quantities; non-positive quantities are ignored.
// @Tags quotes
// @Accept json
// @Produce json
// @Param model query string false "Cost model" Enums(tiered, matrix)
// @Param order body map[string]int true "Product code to quantity"
// @Success 200 {object} CostResponse
// @Failure 400 {object} ErrorResponse "Malformed order"
// @Failure 422 {object} ErrorResponse "Search space too large"
// @Failure 504 {object} ErrorResponse "Search timed out"
// @Router /calculate-cost [post]
func CalculateCost(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	order, err := parseOrder(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	opt, err := optimizerFor(c.Query("model"))
	if err != nil {
		writeLookupError(c, err)
		return
	}

	res, err := opt.Quote(c.Request.Context(), order)
	if err != nil {
		writeQuoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, CostResponse{
		MinimumCost: res.MinimumCost,
		Outcome:     string(res.Outcome),
		Reason:      res.Reason,
		Unstocked:   res.Unstocked,
		Dropped:     res.Dropped,
		Model:       res.Model,
	})
}

// CreateQuote handles POST /v1/quotes
// @Summary Detailed sourcing quote
// @Description Returns the minimum cost together with the winning product to center assignment, the visiting order and search statistics.
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Order and optional cost model"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} ErrorResponse "Malformed order"
// @Failure 422 {object} ErrorResponse "Search space too large"
// @Failure 504 {object} ErrorResponse "Search timed out"
// @Router /v1/quotes [post]
func CreateQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	opt, err := optimizerFor(req.Model)
	if err != nil {
		writeLookupError(c, err)
		return
	}

	res, err := opt.Quote(c.Request.Context(), optimizer.Order(req.Items))
	if err != nil {
		writeQuoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, QuoteResponse{
		MinimumCost:          res.MinimumCost,
		RawCost:              res.RawCost,
		Outcome:              string(res.Outcome),
		Reason:               res.Reason,
		Model:                res.Model,
		Assignment:           res.Assignment,
		Route:                res.Route,
		Unstocked:            res.Unstocked,
		Dropped:              res.Dropped,
		AssignmentsEvaluated: res.AssignmentsEvaluated,
		RoutesEvaluated:      res.RoutesEvaluated,
		DurationMs:           float64(res.Duration.Microseconds()) / 1000,
	})
}

// parseOrder accepts only a JSON object whose values are integers.
func parseOrder(body []byte) (optimizer.Order, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data after order object")
	}

	items, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("order must be a JSON object of product code to quantity")
	}

	order := make(optimizer.Order, len(items))
	for product, v := range items {
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("quantity for %q must be an integer", product)
		}
		qty, err := strconv.Atoi(n.String())
		if err != nil {
			return nil, fmt.Errorf("quantity for %q must be an integer", product)
		}
		order[product] = qty
	}
	return order, nil
}

func writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, errNotInitialized) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Optimizer not initialized"})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func writeQuoteError(c *gin.Context, err error) {
	var invalid optimizer.ErrInvalidOrder
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, optimizer.ErrSearchTooLarge):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, optimizer.ErrSearchTimeout):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "Optimization timed out"})
	case errors.Is(err, context.Canceled):
		log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Quote abandoned by client")
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Quote failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
