package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/sourcing-service/internal/catalog"
	"github.com/kosarica/sourcing-service/internal/costmodel"
	"github.com/kosarica/sourcing-service/internal/optimizer"
)

// setupQuoting wires both cost models over the built-in catalog and returns
// a router with the quote and catalog endpoints.
func setupQuoting(t *testing.T, mutate func(*optimizer.Config)) *gin.Engine {
	t.Helper()

	def := catalog.Default()
	config := optimizer.Defaults()
	if mutate != nil {
		mutate(config)
	}
	metrics := optimizer.NewMetricsRecorder()

	byModel := make(map[string]*optimizer.Optimizer)
	for _, name := range costmodel.Names() {
		model, err := costmodel.NewByName(name, def.Distances, def.Costs, costmodel.DefaultTierSchedule())
		require.NoError(t, err)
		byModel[name] = optimizer.NewOptimizer(def.Catalog, model, config, metrics)
	}
	InitQuoting(def, byModel, costmodel.ModelTiered)
	t.Cleanup(func() { InitQuoting(nil, nil, "") })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/calculate-cost", CalculateCost)
	router.POST("/v1/quotes", CreateQuote)
	router.GET("/v1/catalog", GetCatalog)
	router.GET("/health", HealthCheck)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCalculateCostHappyPath(t *testing.T) {
	router := setupQuoting(t, nil)

	w := doJSON(t, router, http.MethodPost, "/calculate-cost", `{"A": 10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(200), resp.MinimumCost)
	assert.Equal(t, "ok", resp.Outcome)
	assert.Equal(t, "tiered", resp.Model)
}

func TestCalculateCostMatrixModel(t *testing.T) {
	router := setupQuoting(t, nil)

	w := doJSON(t, router, http.MethodPost, "/calculate-cost?model=matrix", `{"D": 1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(40), resp.MinimumCost)
	assert.Equal(t, "matrix", resp.Model)
}

func TestCalculateCostEmptyAndNonPositive(t *testing.T) {
	router := setupQuoting(t, nil)

	for _, body := range []string{`{}`, `{"A": 0, "B": -2}`} {
		w := doJSON(t, router, http.MethodPost, "/calculate-cost", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp CostResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(0), resp.MinimumCost, body)
		assert.Equal(t, "ok", resp.Outcome)
	}
}

func TestCalculateCostUnstocked(t *testing.T) {
	router := setupQuoting(t, nil)

	w := doJSON(t, router, http.MethodPost, "/calculate-cost", `{"A": 1, "Z": 3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(0), resp.MinimumCost)
	assert.Equal(t, "unsatisfiable", resp.Outcome)
	assert.Equal(t, "unstocked", resp.Reason)
	assert.Equal(t, []string{"Z"}, resp.Unstocked)
}

func TestCalculateCostValidation(t *testing.T) {
	router := setupQuoting(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `A=10`},
		{"array", `[{"A": 10}]`},
		{"string quantity", `{"A": "10"}`},
		{"fractional quantity", `{"A": 1.5}`},
		{"null quantity", `{"A": null}`},
		{"nested", `{"A": {"qty": 1}}`},
		{"trailing data", `{"A": 1} {"B": 2}`},
		{"unknown model", `{"A": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/calculate-cost"
			if tt.name == "unknown model" {
				path += "?model=haversine"
			}
			w := doJSON(t, router, http.MethodPost, path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCalculateCostSearchTooLarge(t *testing.T) {
	router := setupQuoting(t, func(c *optimizer.Config) {
		c.MaxAssignments = 1
	})

	w := doJSON(t, router, http.MethodPost, "/calculate-cost", `{"B": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCalculateCostTimeout(t *testing.T) {
	router := setupQuoting(t, func(c *optimizer.Config) {
		c.SearchTimeout = time.Nanosecond
		c.Parallelism = 1
	})

	// 288 assignments: the deadline has passed long before the search ends
	w := doJSON(t, router, http.MethodPost, "/calculate-cost",
		`{"A":1,"B":1,"C":1,"D":1,"E":1,"F":1,"G":1,"H":1,"I":1}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestQuoteClientGoneWritesNoBody(t *testing.T) {
	router := setupQuoting(t, nil)

	for _, tc := range []struct{ path, body string }{
		{"/calculate-cost", `{"A": 10}`},
		{"/v1/quotes", `{"items": {"A": 10}}`},
	} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.path, bytes.NewBufferString(tc.body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, statusClientClosedRequest, w.Code, tc.path)
		assert.Empty(t, w.Body.String(), tc.path)
	}
}

func TestCalculateCostNotInitialized(t *testing.T) {
	InitQuoting(nil, nil, "")
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/calculate-cost", CalculateCost)

	w := doJSON(t, router, http.MethodPost, "/calculate-cost", `{"A": 1}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateQuote(t *testing.T) {
	router := setupQuoting(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/quotes", `{"items": {"A": 1, "D": 1}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(108), resp.MinimumCost)
	assert.Equal(t, 107.5, resp.RawCost)
	assert.Equal(t, "ok", resp.Outcome)
	assert.Equal(t, map[string]string{"A": "C1", "D": "C2"}, resp.Assignment)
	assert.Equal(t, []string{"C1", "C2"}, resp.Route)
	assert.Equal(t, 2, resp.AssignmentsEvaluated)
	assert.Equal(t, 4, resp.RoutesEvaluated)
}

func TestCreateQuoteDropPolicy(t *testing.T) {
	router := setupQuoting(t, func(c *optimizer.Config) {
		c.UnstockedPolicy = optimizer.PolicyDrop
	})

	w := doJSON(t, router, http.MethodPost, "/v1/quotes", `{"items": {"A": 10, "Z": 1}, "model": "tiered"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Outcome)
	assert.Equal(t, int64(200), resp.MinimumCost)
	assert.Equal(t, []string{"Z"}, resp.Dropped)
}

func TestCreateQuoteValidation(t *testing.T) {
	router := setupQuoting(t, nil)

	for _, body := range []string{
		`{}`,
		`{"items": {"A": 1.5}}`,
		`{"items": {"A": 1}, "model": "haversine"}`,
		`{"items": ["A"]}`,
	} {
		w := doJSON(t, router, http.MethodPost, "/v1/quotes", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestGetCatalog(t *testing.T) {
	router := setupQuoting(t, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "L1", resp.Hub)
	assert.Equal(t, "builtin", resp.Source)
	assert.Equal(t, []string{"A", "B", "C", "G"}, resp.Centers["C1"])
	assert.Equal(t, 0.5, resp.Weights["F"])
	assert.Len(t, resp.Distances, 6)
	assert.Equal(t, []string{"matrix", "tiered"}, resp.Models)
	assert.Equal(t, "tiered", resp.DefaultModel)
}

func TestHealthCheck(t *testing.T) {
	router := setupQuoting(t, nil)

	w := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "loaded", resp.Catalog)
	assert.Equal(t, "not configured", resp.Database)

	InitQuoting(nil, nil, "")
	w = doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestParseOrder(t *testing.T) {
	order, err := parseOrder([]byte(`{"A": 10, "b": -1, "C": 0}`))
	require.NoError(t, err)
	assert.Equal(t, optimizer.Order{"A": 10, "b": -1, "C": 0}, order)

	_, err = parseOrder([]byte(`{"A": 1e2}`))
	assert.Error(t, err)
}
