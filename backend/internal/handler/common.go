package handler

import (
	"net/http"

	response "jkd-coach-app/backend/internal/infra/common"
	"jkd-coach-app/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// extractUserID pulls the authenticated user ID placed by the auth
// middleware. A missing or mistyped value aborts with 401.
func extractUserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "authentication required", nil)
		return 0, false
	}
	userID, ok := raw.(uint)
	if !ok || userID == 0 {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid authentication context", nil)
		return 0, false
	}
	return userID, true
}
