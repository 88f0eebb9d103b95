package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "jkd-coach-app/backend/internal/domain/user"
	"jkd-coach-app/backend/internal/infra/captcha"
	appLogger "jkd-coach-app/backend/internal/infra/logger"
	"jkd-coach-app/backend/internal/infra/metrics"
	"jkd-coach-app/backend/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrUsernameTaken         = errors.New("username already taken")
	ErrEmailAndUsernameTaken = errors.New("email and username already taken")
	ErrInvalidLogin          = errors.New("invalid username, email or password")
	ErrAccountInactive       = errors.New("user account is inactive")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters")
	ErrCaptchaRequired       = errors.New("captcha is required")
	ErrCaptchaInvalid        = errors.New("captcha verification failed")
	ErrCaptchaExpired        = errors.New("captcha expired or not found")
	ErrCaptchaRateLimited    = errors.New("captcha requests too frequent")
	ErrRefreshTokenInvalid   = errors.New("refresh token is invalid")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrRefreshTokenRevoked   = errors.New("refresh token revoked")
	ErrRefreshTokenRequired  = errors.New("refresh token is required")
)

const minPasswordLength = 8

// CaptchaManager aggregates captcha generation and verification so the
// implementation can be swapped at the service boundary.
type CaptchaManager interface {
	captcha.Generator
	captcha.Verifier
}

// TokenPair is the access/refresh token bundle issued after register, login
// or refresh. RefreshTokenID/RefreshTokenExpiresAt are internal metadata used
// to key the refresh store.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	ExpiresIn             int64     `json:"expires_in"` // seconds
	RefreshTokenID        string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}

// TokenManager abstracts token issuance and refresh-token parsing.
type TokenManager interface {
	GenerateTokens(ctx context.Context, user *domain.User) (TokenPair, error)
	ParseRefreshToken(token string) (RefreshTokenClaims, error)
}

// RefreshTokenClaims is the parsed identity of a refresh token.
type RefreshTokenClaims struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// RefreshTokenStore keeps the <userID, jti> fingerprints of live refresh
// tokens so logout and rotation can revoke them.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID uint, tokenID string, expiresAt time.Time) error
	Delete(ctx context.Context, userID uint, tokenID string) error
	Exists(ctx context.Context, userID uint, tokenID string) (bool, error)
}

// WelcomeMailer sends the post-registration welcome email; injected so the
// mail provider can vary per deployment.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, user *domain.User) error
}

type loggingWelcomeMailer struct {
	logger *zap.SugaredLogger
}

func (l *loggingWelcomeMailer) SendWelcome(_ context.Context, user *domain.User) error {
	if l == nil {
		return nil
	}
	l.logger.Infow("welcome email skipped, no mailer configured", "user_id", user.ID, "email", user.Email)
	return nil
}

// Service handles registration, login, token refresh and logout.
//
// Dependencies:
//   - UserRepository: reads and writes user rows.
//   - TokenManager: issues / parses access and refresh tokens.
//   - RefreshTokenStore: tracks live refresh tokens for rotation and logout.
//   - CaptchaManager: optional registration captcha.
//   - WelcomeMailer: optional, fire-and-forget welcome email.
type Service struct {
	users        *repository.UserRepository
	tokenManager TokenManager
	refreshStore RefreshTokenStore
	captcha      CaptchaManager
	mailer       WelcomeMailer
	logger       *zap.SugaredLogger
}

// NewService wires the auth service. captcha and mailer may be nil.
func NewService(users *repository.UserRepository, tm TokenManager, store RefreshTokenStore, cm CaptchaManager, mailer WelcomeMailer) *Service {
	baseLogger := appLogger.S().With("component", "auth.service")
	if mailer == nil {
		mailer = &loggingWelcomeMailer{logger: baseLogger}
	}
	return &Service{
		users:        users,
		tokenManager: tm,
		refreshStore: store,
		captcha:      cm,
		mailer:       mailer,
		logger:       baseLogger,
	}
}

// RegisterParams carries the registration inputs.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	CaptchaID   string
	CaptchaCode string
}

// LoginParams carries the login inputs. Identifier accepts email or username.
type LoginParams struct {
	Identifier string
	Password   string
}

// Register checks uniqueness and the optional captcha, hashes the password,
// persists the user and issues a TokenPair. The refresh token is stored
// immediately so the session can be renewed without re-login.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*domain.User, TokenPair, error) {
	log := s.scope("register").With(
		"email", params.Email,
		"username", params.Username,
	)

	log.Infow("register attempt")

	if len(params.Password) < minPasswordLength {
		return nil, TokenPair{}, ErrPasswordTooShort
	}

	if s.captcha != nil {
		if strings.TrimSpace(params.CaptchaID) == "" || strings.TrimSpace(params.CaptchaCode) == "" {
			log.Warn("captcha required but missing")
			return nil, TokenPair{}, ErrCaptchaRequired
		}

		if err := s.captcha.Verify(ctx, params.CaptchaID, params.CaptchaCode); err != nil {
			switch {
			case errors.Is(err, captcha.ErrCaptchaNotFound):
				log.Warnw("captcha expired or not found", "captcha_id", params.CaptchaID)
				return nil, TokenPair{}, ErrCaptchaExpired
			case errors.Is(err, captcha.ErrCaptchaMismatch):
				log.Warnw("captcha mismatch", "captcha_id", params.CaptchaID)
				return nil, TokenPair{}, ErrCaptchaInvalid
			default:
				log.Errorw("captcha verify failed", "error", err)
				return nil, TokenPair{}, fmt.Errorf("captcha verify: %w", err)
			}
		}
	}

	// Check both unique fields before failing so the caller learns about
	// every conflict at once.
	emailTaken := false
	if _, err := s.users.FindByEmail(ctx, params.Email); err == nil {
		emailTaken = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorw("check email unique failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("check email unique: %w", err)
	}

	usernameTaken := false
	if _, err := s.users.FindByUsername(ctx, params.Username); err == nil {
		usernameTaken = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorw("check username unique failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("check username unique: %w", err)
	}

	switch {
	case emailTaken && usernameTaken:
		log.Warnw("email and username already taken")
		return nil, TokenPair{}, ErrEmailAndUsernameTaken
	case emailTaken:
		log.Warnw("email already registered")
		return nil, TokenPair{}, ErrEmailTaken
	case usernameTaken:
		log.Warnw("username already taken")
		return nil, TokenPair{}, ErrUsernameTaken
	}

	hash, err := hashPassword(params.Password)
	if err != nil {
		log.Errorw("hash password failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     params.Username,
		Email:        params.Email,
		FullName:     strings.TrimSpace(params.FullName),
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		log.Errorw("create user failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueAndStoreTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	if err := s.mailer.SendWelcome(ctx, user); err != nil {
		// Welcome mail failure never blocks registration.
		log.Warnw("send welcome email failed", "error", err, "user_id", user.ID)
	}

	metrics.ObserveAuth("register", true)
	log.With("user_id", user.ID).Infow("user registered")

	return user, tokens, nil
}

// Login verifies credentials (email or username), updates the login
// timestamp and issues a fresh TokenPair.
func (s *Service) Login(ctx context.Context, params LoginParams) (*domain.User, TokenPair, error) {
	identifier := strings.TrimSpace(params.Identifier)
	log := s.scope("login").With("identifier", identifier)

	log.Infow("login attempt")

	var (
		user *domain.User
		err  error
	)

	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, identifier)
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		// Retry the other lookup in case the identifier shape misled us.
		if strings.Contains(identifier, "@") {
			user, err = s.users.FindByUsername(ctx, identifier)
		} else {
			user, err = s.users.FindByEmail(ctx, identifier)
		}
	}

	if err != nil {
		log.Warnw("login identifier not found or repo error", "error", err)
		metrics.ObserveAuth("login", false)
		return nil, TokenPair{}, ErrInvalidLogin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		log.Warnw("password mismatch")
		metrics.ObserveAuth("login", false)
		return nil, TokenPair{}, ErrInvalidLogin
	}

	if !user.IsActive {
		log.Warnw("inactive account", "user_id", user.ID)
		metrics.ObserveAuth("login", false)
		return nil, TokenPair{}, ErrAccountInactive
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		log.Errorw("update last login failed", "error", err, "user_id", user.ID)
		return nil, TokenPair{}, fmt.Errorf("update last login: %w", err)
	}

	tokens, err := s.issueAndStoreTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	metrics.ObserveAuth("login", true)
	log.With("user_id", user.ID).Infow("login success")

	return user, tokens, nil
}

// Refresh rotates a refresh token: the old jti is deleted and a fresh
// TokenPair is issued and stored, so a stolen token can be used once at most.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*domain.User, TokenPair, error) {
	log := s.scope("refresh")

	if strings.TrimSpace(rawToken) == "" {
		return nil, TokenPair{}, ErrRefreshTokenRequired
	}

	claims, err := s.tokenManager.ParseRefreshToken(rawToken)
	if err != nil {
		log.Warnw("parse refresh token failed", "error", err)
		return nil, TokenPair{}, ErrRefreshTokenInvalid
	}

	if !claims.ExpiresAt.IsZero() && time.Now().After(claims.ExpiresAt) {
		return nil, TokenPair{}, ErrRefreshTokenExpired
	}

	live, err := s.refreshStore.Exists(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		log.Errorw("refresh store lookup failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("refresh store lookup: %w", err)
	}
	if !live {
		log.Warnw("refresh token revoked or unknown", "user_id", claims.UserID)
		return nil, TokenPair{}, ErrRefreshTokenRevoked
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		log.Warnw("refresh user lookup failed", "error", err, "user_id", claims.UserID)
		return nil, TokenPair{}, ErrRefreshTokenInvalid
	}

	if err := s.refreshStore.Delete(ctx, claims.UserID, claims.TokenID); err != nil {
		log.Errorw("delete rotated refresh token failed", "error", err)
		return nil, TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	tokens, err := s.issueAndStoreTokens(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	log.With("user_id", user.ID).Infow("token refreshed")

	return user, tokens, nil
}

// Logout revokes the given refresh token. Unknown tokens are not an error:
// logout is idempotent.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	log := s.scope("logout")

	if strings.TrimSpace(rawToken) == "" {
		return ErrRefreshTokenRequired
	}

	claims, err := s.tokenManager.ParseRefreshToken(rawToken)
	if err != nil {
		log.Warnw("parse refresh token failed", "error", err)
		return ErrRefreshTokenInvalid
	}

	if err := s.refreshStore.Delete(ctx, claims.UserID, claims.TokenID); err != nil {
		log.Errorw("delete refresh token failed", "error", err)
		return fmt.Errorf("delete refresh token: %w", err)
	}

	log.With("user_id", claims.UserID).Infow("logout success")
	return nil
}

// issueAndStoreTokens generates a TokenPair and records its refresh
// fingerprint so the pair can later be rotated or revoked.
func (s *Service) issueAndStoreTokens(ctx context.Context, user *domain.User) (TokenPair, error) {
	tokens, err := s.tokenManager.GenerateTokens(ctx, user)
	if err != nil {
		s.logger.Errorw("generate tokens failed", "error", err, "user_id", user.ID)
		return TokenPair{}, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.refreshStore.Save(ctx, user.ID, tokens.RefreshTokenID, tokens.RefreshTokenExpiresAt); err != nil {
		s.logger.Errorw("store refresh token failed", "error", err, "user_id", user.ID)
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return tokens, nil
}

func (s *Service) scope(operation string) *zap.SugaredLogger {
	return s.logger.With("operation", operation)
}

// hashPassword salts and hashes the plaintext with bcrypt.
func hashPassword(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
