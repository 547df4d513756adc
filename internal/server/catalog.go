package server

import (
	"log/slog"
	"net/http"

	"github.com/roofscope/roofscope/internal/repository"
)

// CatalogHandler serves read-only catalog listings for the dashboard.
type CatalogHandler struct {
	catalog repository.CatalogRepository
	logger  *slog.Logger
}

func NewCatalogHandler(catalog repository.CatalogRepository, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActiveProducts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	suppliers, err := h.catalog.ListEnabledSuppliers(r.Context(), orgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}
