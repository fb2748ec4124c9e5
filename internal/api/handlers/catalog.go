package handlers

import (
	"net/http"

	"github.com/fleetops/premia/backend/internal/catalog"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// CatalogHandler serves the sector and criterion catalogues
type CatalogHandler struct {
	sectors  *catalog.SectorRepository
	criteria *catalog.CriterionRepository
	logger   *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(sectors *catalog.SectorRepository, criteria *catalog.CriterionRepository, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		sectors:  sectors,
		criteria: criteria,
		logger:   log,
	}
}

// ListSectors returns the competing sectors
// GET /api/sectors
func (h *CatalogHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.sectors.ListActive(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list sectors")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve sectors")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sectors,
	})
}

// ListCriteria returns the scoring criteria in display order
// GET /api/criteria
func (h *CatalogHandler) ListCriteria(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.criteria.ListActive(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list criteria")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve criteria")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    criteria,
	})
}
