package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/sourcing-service/internal/costmodel"
)

// CatalogResponse describes the loaded catalog
type CatalogResponse struct {
	Hub          string              `json:"hub"`
	Source       string              `json:"source"`
	Centers      map[string][]string `json:"centers"`
	Weights      map[string]float64  `json:"weights"`
	Distances    []costmodel.Leg     `json:"distances"`
	Costs        []costmodel.Leg     `json:"costs"`
	Models       []string            `json:"models"`
	DefaultModel string              `json:"default_model"`
}

// GetCatalog handles GET /v1/catalog
// @Summary Loaded catalog
// @Description Returns the hub, center inventories, unit weights, leg tables and the configured cost models.
// @Tags catalog
// @Produce json
// @Success 200 {object} CatalogResponse
// @Failure 503 {object} ErrorResponse "Catalog not loaded"
// @Router /v1/catalog [get]
func GetCatalog(c *gin.Context) {
	quoteMu.RLock()
	def := catalogDef
	models := make([]string, 0, len(optimizers))
	for name := range optimizers {
		models = append(models, name)
	}
	model := defaultModel
	quoteMu.RUnlock()

	if def == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Catalog not loaded"})
		return
	}
	sort.Strings(models)

	c.JSON(http.StatusOK, CatalogResponse{
		Hub:          def.Catalog.Hub(),
		Source:       def.Source,
		Centers:      def.Catalog.Inventory(),
		Weights:      def.Catalog.Weights(),
		Distances:    def.Distances.Legs(),
		Costs:        def.Costs.Legs(),
		Models:       models,
		DefaultModel: model,
	})
}
