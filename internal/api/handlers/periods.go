package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fleetops/premia/backend/internal/period"
	"github.com/fleetops/premia/backend/internal/scoring"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// PeriodHandler handles period lifecycle and recompute endpoints
type PeriodHandler struct {
	periods *period.Service
	engine  *scoring.Engine
	logger  *logger.Logger
}

// NewPeriodHandler creates a new period handler
func NewPeriodHandler(periods *period.Service, engine *scoring.Engine, log *logger.Logger) *PeriodHandler {
	return &PeriodHandler{
		periods: periods,
		engine:  engine,
		logger:  log,
	}
}

// List returns all periods
// GET /api/periods
func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	periods, err := h.periods.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list periods")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    periods,
	})
}

// Get returns one period
// GET /api/periods/{id}
func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.periods.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// CreatePeriodRequest creates a new period in PLANNING
type CreatePeriodRequest struct {
	Month     string `json:"month"`      // "2026-01"
	StartDate string `json:"start_date"` // "2026-01-01"
	EndDate   string `json:"end_date"`   // "2026-01-31"
}

// Create creates a new period
// POST /api/periods
func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must look like 2006-01-02")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must look like 2006-01-02")
		return
	}

	p, err := h.periods.Create(r.Context(), actorFromRequest(r), period.CreateInput{
		Month:     req.Month,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// Advance moves a period one state forward
// POST /api/periods/{id}/advance
func (h *PeriodHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.periods.Advance(r.Context(), actorFromRequest(r), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// ClosePeriodRequest officializes a period
type ClosePeriodRequest struct {
	WinnerSectorID *int64 `json:"winner_sector_id,omitempty"`
	Justification  string `json:"justification"`
}

// Close officializes a period and declares its winner
// POST /api/periods/{id}/close
func (h *PeriodHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ClosePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.periods.Close(r.Context(), actorFromRequest(r), id, period.CloseInput{
		WinnerSectorID: req.WinnerSectorID,
		Justification:  req.Justification,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// Compute triggers a recomputation of the period's scores and ranking
// POST /api/periods/{id}/compute
func (h *PeriodHandler) Compute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Recompute(r.Context(), actorFromRequest(r), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// pathID parses the {id} path variable
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
