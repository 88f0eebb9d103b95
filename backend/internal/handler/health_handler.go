package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports liveness plus the state of the backing stores.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthHandler constructs the handler. redis may be nil when the
// deployment runs without one.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Check handles GET /health. Store failures degrade the payload but keep the
// endpoint at 200 so orchestrators distinguish "process up" from "store down".
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	payload := gin.H{"status": "ok"}

	payload["database"] = "up"
	if h.db == nil {
		payload["database"] = "down"
	} else if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		payload["database"] = "down"
	}

	switch {
	case h.redis == nil:
		payload["redis"] = "disabled"
	case h.redis.Ping(ctx).Err() != nil:
		payload["redis"] = "down"
	default:
		payload["redis"] = "up"
	}

	c.JSON(http.StatusOK, payload)
}
