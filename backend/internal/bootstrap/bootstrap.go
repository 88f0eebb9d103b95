package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"jkd-coach-app/backend/internal/app"
	"jkd-coach-app/backend/internal/handler"
	"jkd-coach-app/backend/internal/infra/captcha"
	"jkd-coach-app/backend/internal/infra/email"
	"jkd-coach-app/backend/internal/infra/metrics"
	"jkd-coach-app/backend/internal/infra/model/openaicompat"
	"jkd-coach-app/backend/internal/infra/model/volcengine"
	"jkd-coach-app/backend/internal/infra/token"
	"jkd-coach-app/backend/internal/middleware"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/server"
	authsvc "jkd-coach-app/backend/internal/service/auth"
	coachsvc "jkd-coach-app/backend/internal/service/coach"
	roundsvc "jkd-coach-app/backend/internal/service/round"
	"jkd-coach-app/backend/internal/service/scoring"
	statssvc "jkd-coach-app/backend/internal/service/stats"
	usersvc "jkd-coach-app/backend/internal/service/user"

	"go.uber.org/zap"
)

// Application bundles the wired services and the HTTP router.
type Application struct {
	Resources *app.Resources
	AuthSvc   *authsvc.Service
	UserSvc   *usersvc.Service
	RoundSvc  *roundsvc.Service
	StatsSvc  *statssvc.Service
	CoachSvc  *coachsvc.Service
	Router    http.Handler
}

// BuildApplication wires repositories, services, handlers and the router on
// top of the bootstrapped resources.
func BuildApplication(ctx context.Context, logger *zap.SugaredLogger, resources *app.Resources) (*Application, error) {
	metrics.MustRegister()

	flags := resources.Flags
	if flags.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}

	userRepo := repository.NewUserRepository(resources.DB)
	roundRepo := repository.NewRoundRepository(resources.DB)

	tokens := token.NewJWTManager(flags.JWTSecret, flags.AccessTTL, flags.RefreshTTL)

	var refreshStore authsvc.RefreshTokenStore
	if resources.Redis != nil {
		refreshStore = token.NewRedisRefreshTokenStore(resources.Redis, "")
	} else {
		refreshStore = token.NewMemoryRefreshTokenStore()
		logger.Infow("using in-memory refresh token store; sessions won't survive restarts")
	}

	captchaManager, err := initCaptchaManager(resources, logger)
	if err != nil {
		return nil, err
	}

	mailer, err := initWelcomeMailer(logger)
	if err != nil {
		return nil, err
	}

	engine, err := scoring.NewEngine(scoring.DefaultPolicy())
	if err != nil {
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}

	authService := authsvc.NewService(userRepo, tokens, refreshStore, captchaManager, mailer)
	userService := usersvc.NewService(userRepo)
	roundService := roundsvc.NewService(roundRepo, engine)
	statsService := statssvc.NewService(roundRepo, engine)
	coachService := coachsvc.NewService(roundRepo, statsService, initChatInvoker(logger))

	authMiddleware := middleware.NewAuthMiddleware(flags.JWTSecret)

	router := server.NewRouter(server.RouterOptions{
		AuthHandler:      handler.NewAuthHandler(authService, captchaManager),
		UserHandler:      handler.NewUserHandler(userService),
		RoundHandler:     handler.NewRoundHandler(roundService),
		DashboardHandler: handler.NewDashboardHandler(statsService),
		CoachHandler:     handler.NewCoachHandler(coachService),
		HealthHandler:    handler.NewHealthHandler(resources.DB, resources.Redis),
		AuthMW:           authMiddleware,
	})

	return &Application{
		Resources: resources,
		AuthSvc:   authService,
		UserSvc:   userService,
		RoundSvc:  roundService,
		StatsSvc:  statsService,
		CoachSvc:  coachService,
		Router:    router,
	}, nil
}

// initCaptchaManager enables the registration captcha when configured; it
// needs Redis for answer storage and rate limiting.
func initCaptchaManager(resources *app.Resources, logger *zap.SugaredLogger) (authsvc.CaptchaManager, error) {
	captchaOpts, captchaEnabled, err := captcha.LoadOptionsFromEnv()
	if err != nil {
		logger.Errorw("load captcha config failed", "error", err)
		return nil, fmt.Errorf("load captcha config: %w", err)
	}

	if !captchaEnabled {
		return nil, nil
	}

	if resources.Redis == nil {
		return nil, fmt.Errorf("captcha enabled but redis not configured")
	}

	manager := captcha.NewManager(resources.Redis, captchaOpts)
	logger.Infow("captcha enabled", "prefix", captchaOpts.Prefix, "ttl", captchaOpts.TTL)
	return manager, nil
}

// initWelcomeMailer picks the first configured mail provider: Aliyun
// DirectMail, then SMTP. Returns nil when neither is set up.
func initWelcomeMailer(logger *zap.SugaredLogger) (authsvc.WelcomeMailer, error) {
	aliyunCfg, aliyunEnabled, err := email.LoadAliyunConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load aliyun mail config: %w", err)
	}
	if aliyunEnabled {
		sender, err := email.NewAliyunSender(aliyunCfg)
		if err != nil {
			return nil, fmt.Errorf("init aliyun mail sender: %w", err)
		}
		logger.Infow("welcome email via aliyun directmail", "account", aliyunCfg.AccountName)
		return sender, nil
	}

	smtpCfg, smtpEnabled, err := email.LoadSMTPConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load smtp config: %w", err)
	}
	if smtpEnabled {
		sender, err := email.NewSender(smtpCfg)
		if err != nil {
			return nil, fmt.Errorf("init smtp sender: %w", err)
		}
		logger.Infow("welcome email via smtp", "host", smtpCfg.Host)
		return sender, nil
	}

	return nil, nil
}

// initChatInvoker picks the chat model provider for coach advice: Volcengine
// Ark first, then any OpenAI-compatible endpoint. Nil means the coach
// endpoint serves the stored strategy text.
func initChatInvoker(logger *zap.SugaredLogger) coachsvc.ChatInvoker {
	if apiKey := strings.TrimSpace(os.Getenv("ARK_API_KEY")); apiKey != "" {
		model := strings.TrimSpace(os.Getenv("ARK_MODEL"))
		if model == "" {
			logger.Warnw("ARK_API_KEY set but ARK_MODEL missing, coach model disabled")
		} else {
			opts := []volcengine.Option{}
			if base := strings.TrimSpace(os.Getenv("ARK_BASE_URL")); base != "" {
				opts = append(opts, volcengine.WithBaseURL(base))
			}
			logger.Infow("coach advice via volcengine ark", "model", model)
			return coachsvc.NewVolcengineInvoker(volcengine.NewClient(apiKey, opts...), model)
		}
	}

	if apiKey := strings.TrimSpace(os.Getenv("CHAT_API_KEY")); apiKey != "" {
		model := strings.TrimSpace(os.Getenv("CHAT_MODEL"))
		if model == "" {
			logger.Warnw("CHAT_API_KEY set but CHAT_MODEL missing, coach model disabled")
			return nil
		}
		opts := []openaicompat.Option{}
		if base := strings.TrimSpace(os.Getenv("CHAT_BASE_URL")); base != "" {
			opts = append(opts, openaicompat.WithBaseURL(base))
		}
		logger.Infow("coach advice via openai-compatible endpoint", "model", model)
		return coachsvc.NewOpenAICompatInvoker(openaicompat.NewClient(apiKey, opts...), model)
	}

	logger.Infow("no chat model configured, coach advice uses stored game plans")
	return nil
}
