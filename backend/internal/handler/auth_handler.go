package handler

import (
	"errors"
	"net/http"

	"jkd-coach-app/backend/internal/infra/captcha"
	response "jkd-coach-app/backend/internal/infra/common"
	"jkd-coach-app/backend/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler adapts the auth service to HTTP.
type AuthHandler struct {
	service *auth.Service
	captcha auth.CaptchaManager
}

// NewAuthHandler constructs the handler. captcha may be nil when the feature
// is disabled.
func NewAuthHandler(service *auth.Service, captcha auth.CaptchaManager) *AuthHandler {
	return &AuthHandler{service: service, captcha: captcha}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FullName    string `json:"full_name" binding:"max=128"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type sessionPayload struct {
	User   any            `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}

	user, tokens, err := h.service.Register(c.Request.Context(), auth.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		CaptchaID:   req.CaptchaID,
		CaptchaCode: req.CaptchaCode,
	})
	if err != nil {
		h.failRegister(c, err)
		return
	}

	response.Created(c, sessionPayload{User: user, Tokens: tokens}, nil)
}

func (h *AuthHandler) failRegister(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrEmailAndUsernameTaken):
		response.FailWithError(c, http.StatusConflict, err, response.ErrConflict)
	case errors.Is(err, auth.ErrPasswordTooShort):
		response.FailWithError(c, http.StatusBadRequest, err, response.ErrBadRequest)
	case errors.Is(err, auth.ErrCaptchaRequired):
		response.FailWithError(c, http.StatusBadRequest, err, response.ErrCaptchaRequired)
	case errors.Is(err, auth.ErrCaptchaExpired):
		response.FailWithError(c, http.StatusBadRequest, err, response.ErrCaptchaExpired)
	case errors.Is(err, auth.ErrCaptchaInvalid):
		response.FailWithError(c, http.StatusBadRequest, err, response.ErrCaptchaInvalid)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "registration failed", nil)
	}
}

// Login handles POST /api/auth/login. Identifier accepts email or username.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}

	user, tokens, err := h.service.Login(c.Request.Context(), auth.LoginParams{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidLogin), errors.Is(err, auth.ErrAccountInactive):
			response.FailWithError(c, http.StatusUnauthorized, err, response.ErrInvalidCredentials)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "login failed", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, sessionPayload{User: user, Tokens: tokens}, nil)
}

// Refresh handles POST /api/auth/refresh, rotating the refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}

	user, tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenRequired):
			response.FailWithError(c, http.StatusBadRequest, err, response.ErrBadRequest)
		case errors.Is(err, auth.ErrRefreshTokenInvalid),
			errors.Is(err, auth.ErrRefreshTokenExpired),
			errors.Is(err, auth.ErrRefreshTokenRevoked):
			response.FailWithError(c, http.StatusUnauthorized, err, response.ErrUnauthorized)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "refresh failed", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, sessionPayload{User: user, Tokens: tokens}, nil)
}

// Logout handles POST /api/auth/logout, revoking the refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenRequired):
			response.FailWithError(c, http.StatusBadRequest, err, response.ErrBadRequest)
		case errors.Is(err, auth.ErrRefreshTokenInvalid):
			response.FailWithError(c, http.StatusUnauthorized, err, response.ErrUnauthorized)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "logout failed", nil)
		}
		return
	}

	response.NoContent(c)
}

// Captcha handles GET /api/auth/captcha, returning a new captcha image.
func (h *AuthHandler) Captcha(c *gin.Context) {
	if h.captcha == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, "captcha is not enabled", nil)
		return
	}

	id, image, err := h.captcha.Generate(c.Request.Context(), c.ClientIP())
	if err != nil {
		if errors.Is(err, captcha.ErrRateLimited) {
			response.FailWithError(c, http.StatusTooManyRequests, err, response.ErrTooManyRequests)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "captcha generation failed", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"captcha_id": id, "image": image}, nil)
}
