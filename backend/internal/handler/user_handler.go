package handler

import (
	"errors"
	"net/http"

	response "jkd-coach-app/backend/internal/infra/common"
	"jkd-coach-app/backend/internal/service/user"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the profile endpoints.
type UserHandler struct {
	service *user.Service
}

// NewUserHandler constructs the handler.
func NewUserHandler(service *user.Service) *UserHandler {
	return &UserHandler{service: service}
}

type updateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=64"`
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=128"`
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound, "user not found", nil)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to load profile", nil)
		return
	}

	response.Success(c, http.StatusOK, profile, nil)
}

// Update handles PUT /api/users/me.
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, user.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound, "user not found", nil)
		case errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken):
			response.FailWithError(c, http.StatusConflict, err, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to update profile", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, profile, nil)
}
