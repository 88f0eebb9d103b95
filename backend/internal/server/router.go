package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"jkd-coach-app/backend/internal/handler"
	"jkd-coach-app/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions bundles the handlers and middleware the router mounts. Nil
// handlers simply leave their routes unregistered.
type RouterOptions struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	RoundHandler     *handler.RoundHandler
	DashboardHandler *handler.DashboardHandler
	CoachHandler     *handler.CoachHandler
	HealthHandler    *handler.HealthHandler
	AuthMW           middleware.Authenticator
}

// NewRouter assembles the gin engine: recovery, CORS, request logging, the
// Prometheus endpoint and the REST routes.
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  false,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			if origin == "" {
				return false
			}
			if origin == "null" {
				return true
			}
			if strings.HasPrefix(origin, "http://localhost:") {
				return true
			}
			if strings.HasPrefix(origin, "http://127.0.0.1:") {
				return true
			}
			return false
		},
	}))
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: gin.LogFormatter(func(params gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s\" %d %s\n",
				params.ClientIP,
				params.TimeStamp.Format(time.RFC3339),
				params.Method,
				params.Path,
				params.StatusCode,
				params.Latency,
			)
		}),
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "jkd-coach-api", "status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.HealthHandler != nil {
		r.GET("/health", opts.HealthHandler.Check)
	} else {
		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		if opts.AuthHandler != nil {
			authGroup.GET("/captcha", opts.AuthHandler.Captcha)
			authGroup.POST("/register", opts.AuthHandler.Register)
			authGroup.POST("/login", opts.AuthHandler.Login)
			authGroup.POST("/refresh", opts.AuthHandler.Refresh)
			authGroup.POST("/logout", opts.AuthHandler.Logout)
		}

		// Everything below requires a valid access token.
		userGroup := api.Group("/users")
		if opts.AuthMW != nil {
			userGroup.Use(opts.AuthMW.Handle())
		}
		if opts.UserHandler != nil {
			userGroup.GET("/me", opts.UserHandler.Me)
			userGroup.PUT("/me", opts.UserHandler.Update)
		}

		if opts.RoundHandler != nil {
			rounds := api.Group("/rounds")
			if opts.AuthMW != nil {
				rounds.Use(opts.AuthMW.Handle())
			}
			rounds.POST("", opts.RoundHandler.Create)
			rounds.GET("", opts.RoundHandler.List)
			rounds.DELETE("/:id", opts.RoundHandler.Delete)
		}

		if opts.DashboardHandler != nil {
			dashboard := api.Group("/dashboard")
			if opts.AuthMW != nil {
				dashboard.Use(opts.AuthMW.Handle())
			}
			dashboard.GET("/stats", opts.DashboardHandler.Stats)
		}

		if opts.CoachHandler != nil {
			coachGroup := api.Group("/coach")
			if opts.AuthMW != nil {
				coachGroup.Use(opts.AuthMW.Handle())
			}
			coachGroup.POST("/advice", opts.CoachHandler.Advice)
		}
	}

	return r
}
