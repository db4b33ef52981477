package handler

import (
	"net/http"

	"bookora/internal/catalog"
	"bookora/internal/httputil"
)

// CatalogHandler serves the creatable genres and block types
type CatalogHandler struct {
	registry *catalog.Registry
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(registry *catalog.Registry) *CatalogHandler {
	return &CatalogHandler{registry: registry}
}

// CatalogResponse lists what the book editor may create
type CatalogResponse struct {
	Genres       []string                `json:"genres"`
	DefaultGenre string                  `json:"defaultGenre"`
	BlockTypes   []catalog.BlockTypeInfo `json:"blockTypes"`
}

// GetCatalog returns the genre and block type catalog
// GET /api/catalog
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, CatalogResponse{
		Genres:       h.registry.Genres(),
		DefaultGenre: h.registry.DefaultGenre(),
		BlockTypes:   h.registry.BlockTypes(),
	})
}
