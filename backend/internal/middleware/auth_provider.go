package middleware

import "github.com/gin-gonic/gin"

// Authenticator abstracts the auth middleware so routes can be guarded by
// any implementation exposing Handle().
type Authenticator interface {
	Handle() gin.HandlerFunc
}
