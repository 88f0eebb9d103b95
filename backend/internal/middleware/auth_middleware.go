package middleware

import (
	"net/http"
	"strconv"
	"strings"

	response "jkd-coach-app/backend/internal/infra/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUserIDKey is where the middleware stores the authenticated user ID.
const ContextUserIDKey = "userID"

// AuthMiddleware verifies HS256-signed Bearer tokens and guards the
// protected routes.
type AuthMiddleware struct {
	secret string
}

// NewAuthMiddleware injects the JWT signing secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

// Handle returns the gin middleware. On success the user ID and raw claims
// land in the request context; refresh tokens are rejected here so they can
// never be used as access tokens.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "missing authorization header", nil)
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(authHeader[7:])
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return []byte(m.secret), nil
		})
		if err != nil || !token.Valid {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token claims", nil)
			c.Abort()
			return
		}

		if tokenType, _ := claims["token_type"].(string); tokenType != "access" {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "access token required", nil)
			c.Abort()
			return
		}

		userID, ok := subjectUserID(claims)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "invalid token subject", nil)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set("claims", claims)
		c.Next()
	}
}

// subjectUserID extracts the numeric user ID from the sub claim.
func subjectUserID(claims jwt.MapClaims) (uint, bool) {
	switch v := claims["sub"].(type) {
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(parsed), true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
