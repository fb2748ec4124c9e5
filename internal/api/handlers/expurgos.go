package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/expurgo"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// ExpurgoHandler handles correction-request endpoints
type ExpurgoHandler struct {
	workflow *expurgo.Workflow
	logger   *logger.Logger
}

// NewExpurgoHandler creates a new expurgo handler
func NewExpurgoHandler(workflow *expurgo.Workflow, log *logger.Logger) *ExpurgoHandler {
	return &ExpurgoHandler{
		workflow: workflow,
		logger:   log,
	}
}

// ListByPeriod returns the period's correction requests
// GET /api/periods/{id}/expurgos
func (h *ExpurgoHandler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	events, err := h.workflow.ListByPeriod(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(events),
			"items": events,
		},
	})
}

// RequestExpurgoRequest files a new correction request
type RequestExpurgoRequest struct {
	SectorID      int64    `json:"sector_id"`
	CriterionID   int64    `json:"criterion_id"`
	EventDate     string   `json:"event_date"` // "2026-01-15"
	Description   string   `json:"description"`
	Justification string   `json:"justification"`
	Magnitude     float64  `json:"magnitude"`
	Attachments   []string `json:"attachments,omitempty"`
}

// Request files a new correction request
// POST /api/periods/{id}/expurgos
func (h *ExpurgoHandler) Request(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req RequestExpurgoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "event_date must look like 2006-01-02")
		return
	}

	event, err := h.workflow.Request(r.Context(), actorFromRequest(r), expurgo.RequestInput{
		PeriodID:      id,
		SectorID:      req.SectorID,
		CriterionID:   req.CriterionID,
		EventDate:     eventDate,
		Description:   req.Description,
		Justification: req.Justification,
		Magnitude:     req.Magnitude,
		Attachments:   req.Attachments,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    event,
	})
}

// ReviewExpurgoRequest carries the approver's decision
type ReviewExpurgoRequest struct {
	Status        string   `json:"status"` // APPROVED | PARTIALLY_APPROVED | REJECTED
	Magnitude     *float64 `json:"magnitude,omitempty"`
	Justification string   `json:"justification"`
}

// Review resolves a PENDING request
// POST /api/expurgos/{id}/review
func (h *ExpurgoHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ReviewExpurgoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := h.workflow.Review(r.Context(), actorFromRequest(r), id, expurgo.ReviewInput{
		Status:        contracts.ExpurgoStatus(req.Status),
		Magnitude:     req.Magnitude,
		Justification: req.Justification,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    event,
	})
}

// Delete removes a request that is still PENDING
// DELETE /api/expurgos/{id}
func (h *ExpurgoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.workflow.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
