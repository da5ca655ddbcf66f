package middleware

import (
	"strconv"
	"sync"
	"time"

	"command-bot/backend/pkg/errors"
	"command-bot/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterOptions configures the rate limiter
type RateLimiterOptions struct {
	// Limit defines events per second
	Limit rate.Limit
	// Burst defines maximum burst size allowed
	Burst int
	// ExpiryDuration defines how long to keep idle key state in memory
	ExpiryDuration time.Duration
	// KeyFunc extracts the limiting key from a request (e.g. IP, client ID)
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimiterOptions returns sensible defaults
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:          5,
		Burst:          10,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. It limits HTTP clients through
// Middleware and chat senders through Allow.
type RateLimiter struct {
	mu      sync.Mutex
	options RateLimiterOptions
	clients map[string]*client
	logger  *logger.Logger
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(log *logger.Logger, options ...RateLimiterOptions) *RateLimiter {
	opts := DefaultRateLimiterOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.KeyFunc == nil {
		opts.KeyFunc = DefaultRateLimiterOptions().KeyFunc
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &RateLimiter{
		options: opts,
		clients: make(map[string]*client),
		logger:  log,
		now:     time.Now,
	}
}

// Allow reports whether key may act now, consuming a token if so
func (r *RateLimiter) Allow(key string) bool {
	return r.getLimiter(key).AllowN(r.now(), 1)
}

// Middleware returns a Gin middleware for rate limiting
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := r.options.KeyFunc(c)

		if !r.Allow(key) {
			r.logger.Warn("Rate limit exceeded",
				"client", key,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			c.Header("Retry-After", "1")
			c.Header("X-RateLimit-Limit", strconv.Itoa(r.options.Burst))
			_ = c.Error(errors.NewTooManyRequestsError(errors.CodeRateLimited, "Too many requests. Please try again later."))
			c.Abort()
			return
		}

		c.Next()
	}
}

// Len returns the number of tracked keys
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Prune drops keys not seen within ExpiryDuration
func (r *RateLimiter) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	now := r.now()
	for key, cl := range r.clients {
		if now.Sub(cl.lastSeen) > r.options.ExpiryDuration {
			delete(r.clients, key)
			removed++
		}
	}
	return removed
}

func (r *RateLimiter) getLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.clients[key]
	if !exists {
		limiter := rate.NewLimiter(r.options.Limit, r.options.Burst)
		r.clients[key] = &client{limiter: limiter, lastSeen: r.now()}
		return limiter
	}

	v.lastSeen = r.now()
	return v.limiter
}
