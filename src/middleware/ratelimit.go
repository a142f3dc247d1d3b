package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window counter per client IP.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clients     map[string]*clientWindow
	lastSweep   int64
	mu          sync.Mutex
	now         func() time.Time
}

type clientWindow struct {
	index int64
	count int
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
	}
}

func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	index := rl.now().UnixNano() / rl.window.Nanoseconds()
	if index != rl.lastSweep {
		rl.removeOldWindows(index)
	}

	w, exists := rl.clients[clientIP]
	if !exists || w.index != index {
		// edge case: a new window resets the client's count
		rl.clients[clientIP] = &clientWindow{index: index, count: 1}
		return true
	}

	if w.count >= rl.maxRequests {
		return false
	}
	w.count++
	return true
}

// removeOldWindows drops every client whose window has ended, so the map only
// holds clients seen in the current window.
func (rl *RateLimiter) removeOldWindows(index int64) {
	for clientIP, w := range rl.clients {
		if w.index != index {
			delete(rl.clients, clientIP)
		}
	}
	rl.lastSweep = index
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := clientIP(c)

		if !rl.Allow(clientID) {
			log.Warn().
				Str("client_ip", clientID).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("max_requests", rl.maxRequests).
				Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Window", rl.window.String())

		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.IP()
}
