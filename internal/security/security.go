package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
)

// MaxUsernameLength is GitHub's limit for logins
const MaxUsernameLength = 39

// alphanumerics separated by single hyphens, no hyphen at either end
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+(-[A-Za-z0-9]+)*$`)

// NormalizeUsername trims whitespace and a leading "@"
func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// ValidateUsername checks a GitHub login. Returns a validation AppError.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return apperrors.NewValidationError("username is required")
	case len(username) > MaxUsernameLength:
		return apperrors.NewValidationError(fmt.Sprintf("username must be at most %d characters", MaxUsernameLength))
	case !usernamePattern.MatchString(username):
		return apperrors.NewValidationError("username may only contain letters, digits and single hyphens, and cannot start or end with a hyphen")
	}
	return nil
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	AllowedOrigins    []string      `json:"allowed_origins"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	LimiterIdleTTL    time.Duration `json:"limiter_idle_ttl"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxRequestsPerMin: 60,
		AllowedOrigins:    []string{"http://localhost:8080"},
		RequestTimeout:    30 * time.Second,
		LimiterIdleTTL:    time.Hour,
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware provides per-IP rate limiting and request guards
type SecurityMiddleware struct {
	config SecurityConfig

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	def := DefaultSecurityConfig()
	if config.MaxRequestsPerMin <= 0 {
		config.MaxRequestsPerMin = def.MaxRequestsPerMin
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	if config.LimiterIdleTTL <= 0 {
		config.LimiterIdleTTL = def.LimiterIdleTTL
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = def.AllowedOrigins
	}

	return &SecurityMiddleware{
		config:     config,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

func (sm *SecurityMiddleware) limiterFor(ip string, now time.Time) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, ok := sm.ipLimiters[ip]
	if !ok {
		rps := rate.Limit(float64(sm.config.MaxRequestsPerMin) / 60.0)
		burst := sm.config.MaxRequestsPerMin / 2
		if burst < 5 {
			burst = 5
		}
		entry = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
		sm.ipLimiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	now := time.Now()
	limiter := sm.limiterFor(c.ClientIP(), now)

	r := limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); !r.OK() || delay > 0 {
		r.CancelAt(now)
		apperrors.Respond(c, apperrors.NewClientRateLimitError(now.Add(delay)))
		return
	}

	c.Next()
}

// Cleanup drops limiters of addresses idle for longer than the configured
// TTL, every interval, until ctx is done
func (sm *SecurityMiddleware) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				sm.cleanupOldLimiters(now)
			}
		}
	}()
}

func (sm *SecurityMiddleware) cleanupOldLimiters(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for ip, entry := range sm.ipLimiters {
		if now.Sub(entry.lastSeen) > sm.config.LimiterIdleTTL {
			delete(sm.ipLimiters, ip)
			removed++
		}
	}
	return removed
}

// ValidateContentType rejects request bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		contentType := strings.ToLower(c.GetHeader("Content-Type"))
		if !strings.HasPrefix(contentType, "application/json") {
			err := apperrors.NewValidationError("Content-Type must be application/json")
			err.HTTPStatus = http.StatusUnsupportedMediaType
			apperrors.Respond(c, err)
			return
		}
	}

	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// AllowedOrigins returns the configured CORS origins
func (sm *SecurityMiddleware) AllowedOrigins() []string {
	return sm.config.AllowedOrigins
}
