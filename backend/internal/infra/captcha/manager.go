package captcha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

var (
	ErrCaptchaNotFound = errors.New("captcha not found or expired")
	ErrCaptchaMismatch = errors.New("captcha code mismatch")
	ErrRateLimited     = errors.New("captcha requests too frequent")
)

type Generator interface {
	Generate(ctx context.Context, ip string) (id string, b64 string, err error)
}

type Verifier interface {
	Verify(ctx context.Context, id string, answer string) error
}

// Manager generates digit captchas, caches answers in Redis and rate-limits
// generation per client IP.
type Manager struct {
	store   *redis.Client
	driver  base64Captcha.Driver
	prefix  string
	ttl     time.Duration
	maxHits int64
	rlTTL   time.Duration
}

// Options bundles the image parameters and the rate-limit settings.
type Options struct {
	Prefix          string
	TTL             time.Duration
	Width           int
	Height          int
	Length          int
	MaxSkew         float64
	DotCount        int
	RateLimitPerMin int
	// RateLimitWindow is the per-IP counting window; the counter resets
	// once it elapses.
	RateLimitWindow time.Duration
}

const (
	defaultPrefix  = "captcha"
	defaultTTL     = 5 * time.Minute
	defaultWidth   = 240
	defaultHeight  = 80
	defaultLength  = 5
	defaultMaxSkew = 0.7
	defaultDot     = 80
)

// NewManager builds a captcha manager from the given options.
func NewManager(redisClient *redis.Client, opts Options) *Manager {
	if redisClient == nil {
		panic("captcha manager requires redis client")
	}

	prefix := opts.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}

	height := opts.Height
	if height <= 0 {
		height = defaultHeight
	}

	length := opts.Length
	if length <= 0 {
		length = defaultLength
	}

	maxSkew := opts.MaxSkew
	if maxSkew <= 0 {
		maxSkew = defaultMaxSkew
	}

	dotCount := opts.DotCount
	if dotCount <= 0 {
		dotCount = defaultDot
	}

	// Digit-only captcha for now; swap the Driver for richer images.
	driver := base64Captcha.NewDriverDigit(height, width, length, maxSkew, dotCount)

	maxHits := opts.RateLimitPerMin
	if maxHits < 0 {
		maxHits = 0
	}

	rlTTL := opts.RateLimitWindow
	if rlTTL <= 0 {
		rlTTL = time.Minute
	}

	return &Manager{
		store:   redisClient,
		driver:  driver,
		prefix:  prefix,
		ttl:     ttl,
		maxHits: int64(maxHits),
		rlTTL:   rlTTL,
	}
}

// Generate produces a base64 image and its captcha ID, caching the answer.
func (m *Manager) Generate(ctx context.Context, ip string) (string, string, error) {
	if err := m.checkRateLimit(ctx, ip); err != nil {
		return "", "", err
	}

	id, content, answer := m.driver.GenerateIdQuestionAnswer()

	item, err := m.driver.DrawCaptcha(content)
	if err != nil {
		return "", "", fmt.Errorf("draw captcha: %w", err)
	}

	b64 := item.EncodeB64string()

	if err := m.store.Set(ctx, m.key(id), strings.ToLower(answer), m.ttl).Err(); err != nil {
		return "", "", fmt.Errorf("store captcha: %w", err)
	}

	return id, b64, nil
}

// Verify compares the submitted answer against the cached one. The cached
// answer is consumed either way so a captcha cannot be replayed.
func (m *Manager) Verify(ctx context.Context, id string, answer string) error {
	if strings.TrimSpace(id) == "" {
		return ErrCaptchaNotFound
	}

	key := m.key(id)
	stored, err := m.store.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCaptchaNotFound
		}
		return fmt.Errorf("get captcha: %w", err)
	}

	if err := m.store.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete captcha: %w", err)
	}

	if !strings.EqualFold(strings.TrimSpace(answer), stored) {
		return ErrCaptchaMismatch
	}

	return nil
}

func (m *Manager) key(id string) string {
	return fmt.Sprintf("%s:%s", m.prefix, id)
}

// checkRateLimit counts requests per IP via INCR + EXPIRE and returns
// ErrRateLimited past the threshold.
func (m *Manager) checkRateLimit(ctx context.Context, ip string) error {
	if m.maxHits <= 0 || strings.TrimSpace(ip) == "" {
		return nil
	}

	key := fmt.Sprintf("%s:rl:%s", m.prefix, ip)
	count, err := m.store.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("captcha rate limit incr: %w", err)
	}

	if count == 1 {
		if err := m.store.Expire(ctx, key, m.rlTTL).Err(); err != nil {
			return fmt.Errorf("captcha rate limit expire: %w", err)
		}
	}

	if count > m.maxHits {
		return ErrRateLimited
	}

	return nil
}
