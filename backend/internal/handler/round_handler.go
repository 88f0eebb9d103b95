package handler

import (
	"errors"
	"net/http"
	"strconv"

	response "jkd-coach-app/backend/internal/infra/common"
	"jkd-coach-app/backend/internal/service/round"

	"github.com/gin-gonic/gin"
)

// RoundHandler adapts the round service to HTTP.
type RoundHandler struct {
	service *round.Service
}

// NewRoundHandler constructs the handler.
func NewRoundHandler(service *round.Service) *RoundHandler {
	return &RoundHandler{service: service}
}

// Create handles POST /api/rounds. The body is decoded as a free-form map so
// the scoring validator can report every offending field, including unknown
// value types, instead of gin's first-failure binding.
func (h *RoundHandler) Create(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "request body must be a JSON object", nil)
		return
	}

	result, verr, err := h.service.ScoreAndStore(c.Request.Context(), userID, payload)
	if verr != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrValidationFailed, "round metrics failed validation", verr.Fields)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to store round", nil)
		return
	}

	response.Created(c, result, nil)
}

// List handles GET /api/rounds?limit=N, newest first.
func (h *RoundHandler) List(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	rounds, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to load rounds", nil)
		return
	}

	response.Success(c, http.StatusOK, rounds, gin.H{"count": len(rounds)})
}

// Delete handles DELETE /api/rounds/:id.
func (h *RoundHandler) Delete(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	roundID := c.Param("id")
	if roundID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "round id is required", nil)
		return
	}

	err := h.service.Delete(c.Request.Context(), userID, roundID)
	switch {
	case err == nil:
		response.NoContent(c)
	case errors.Is(err, round.ErrRoundNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, "round not found", nil)
	case errors.Is(err, round.ErrRoundForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "round belongs to another user", nil)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to delete round", nil)
	}
}
