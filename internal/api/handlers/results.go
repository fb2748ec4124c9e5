package handlers

import (
	"fmt"
	"net/http"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/ingest"
	"github.com/fleetops/premia/backend/pkg/config"
	"github.com/fleetops/premia/backend/pkg/logger"
	"github.com/fleetops/premia/backend/pkg/redis"
)

// ResultsHandler serves computed scores, rankings and raw measurements
type ResultsHandler struct {
	scores       contracts.ScoreRepository
	measurements *ingest.Repository
	cache        *redis.Cache
	cfg          *config.Config
	logger       *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(
	scores contracts.ScoreRepository,
	measurements *ingest.Repository,
	cache *redis.Cache,
	cfg *config.Config,
	log *logger.Logger,
) *ResultsHandler {
	return &ResultsHandler{
		scores:       scores,
		measurements: measurements,
		cache:        cache,
		cfg:          cfg,
		logger:       log,
	}
}

// rankingResponse is the cached payload of GetRanking
type rankingResponse struct {
	Count     int                       `json:"count"`
	Items     []*contracts.FinalRanking `json:"items"`
	WinnerTie bool                      `json:"winner_tie"`
}

// GetRanking returns the period's final ranking with tie flags
// GET /api/periods/{id}/ranking
func (h *ResultsHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	cacheKey := fmt.Sprintf("period:%d:ranking", id)
	var cached rankingResponse
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    cached,
			"cached":  true,
		})
		return
	}

	rankings, err := h.scores.ListRanking(ctx, id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list final rankings")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve ranking")
		return
	}

	winnerTie := false
	leaders := 0
	for _, fr := range rankings {
		if fr.RankPosition == 1 {
			leaders++
		}
	}
	winnerTie = leaders > 1

	resp := rankingResponse{
		Count:     len(rankings),
		Items:     rankings,
		WinnerTie: winnerTie,
	}

	if err := h.cache.Set(ctx, cacheKey, resp, h.cfg.Redis.CacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache ranking")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    resp,
	})
}

// scoresResponse is the cached payload of GetScores
type scoresResponse struct {
	Count int                         `json:"count"`
	Items []*contracts.CriterionScore `json:"items"`
}

// GetScores returns the period's criterion scores
// GET /api/periods/{id}/scores
func (h *ResultsHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	cacheKey := fmt.Sprintf("period:%d:scores", id)
	var cached scoresResponse
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    cached,
			"cached":  true,
		})
		return
	}

	scores, err := h.scores.ListScores(ctx, id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list criterion scores")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scores")
		return
	}

	resp := scoresResponse{Count: len(scores), Items: scores}

	if err := h.cache.Set(ctx, cacheKey, resp, h.cfg.Redis.CacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache scores")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    resp,
	})
}

// GetMeasurements returns the period's raw measurement rows as
// deposited by the ingestion collaborator
// GET /api/periods/{id}/measurements
func (h *ResultsHandler) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	measurements, err := h.measurements.ListByPeriod(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list measurements")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve measurements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(measurements),
			"items": measurements,
		},
	})
}
