package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetops/premia/backend/internal/params"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// ParameterHandler handles target definition endpoints
type ParameterHandler struct {
	params *params.Service
	logger *logger.Logger
}

// NewParameterHandler creates a new parameter handler
func NewParameterHandler(svc *params.Service, log *logger.Logger) *ParameterHandler {
	return &ParameterHandler{
		params: svc,
		logger: log,
	}
}

// ListByPeriod returns the full target version log of a period
// GET /api/periods/{id}/parameters
func (h *ParameterHandler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	values, err := h.params.ListByPeriod(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(values),
			"items": values,
		},
	})
}

// DefineTargetRequest defines or supersedes a target version.
// Value stays text until the service parses it, so a malformed number
// comes back as a validation error instead of a decode failure.
type DefineTargetRequest struct {
	CriterionID   int64  `json:"criterion_id"`
	SectorID      *int64 `json:"sector_id,omitempty"`
	Name          string `json:"name"`
	Value         string `json:"value"`
	EffectiveFrom string `json:"effective_from"` // "2026-01-01"
	Justification string `json:"justification"`
}

// Define creates the next version of a target
// POST /api/periods/{id}/parameters
func (h *ParameterHandler) Define(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req DefineTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		respondError(w, http.StatusBadRequest, "effective_from must look like 2006-01-02")
		return
	}

	created, err := h.params.DefineTarget(r.Context(), actorFromRequest(r), params.DefineTargetInput{
		PeriodID:      id,
		CriterionID:   req.CriterionID,
		SectorID:      req.SectorID,
		Name:          req.Name,
		Value:         req.Value,
		EffectiveFrom: effectiveFrom,
		Justification: req.Justification,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}
