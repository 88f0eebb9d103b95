package handler

import (
	"errors"
	"net/http"

	response "jkd-coach-app/backend/internal/infra/common"
	"jkd-coach-app/backend/internal/service/coach"

	"github.com/gin-gonic/gin"
)

// CoachHandler serves the narrative advice endpoint.
type CoachHandler struct {
	service *coach.Service
}

// NewCoachHandler constructs the handler.
func NewCoachHandler(service *coach.Service) *CoachHandler {
	return &CoachHandler{service: service}
}

type adviceRequest struct {
	Question string `json:"question"`
}

// Advice handles POST /api/coach/advice. The body is optional; a question, if
// given, is passed through to the model prompt.
func (h *CoachHandler) Advice(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	var req adviceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "request body must be a JSON object", nil)
			return
		}
	}

	advice, err := h.service.Advise(c.Request.Context(), userID, req.Question)
	if err != nil {
		if errors.Is(err, coach.ErrNoRounds) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound, "log a round before asking for advice", nil)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to produce advice", nil)
		return
	}

	response.Success(c, http.StatusOK, advice, nil)
}
