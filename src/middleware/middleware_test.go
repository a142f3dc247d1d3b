package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter(3, time.Second)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window resets the count")
}

func TestRateLimiterSubSecondWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter(1, 100*time.Millisecond)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("c"))
	assert.False(t, rl.Allow("c"))
	now = now.Add(100 * time.Millisecond)
	assert.True(t, rl.Allow("c"))
}

func TestRateLimiterEvictsEndedWindows(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter(5, time.Second)
	rl.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		assert.True(t, rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	assert.Len(t, rl.clients, 1000)

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.9.9.9"))
	assert.Len(t, rl.clients, 1, "clients from ended windows are dropped")
	assert.Contains(t, rl.clients, "10.9.9.9")
}

func TestRateLimiterMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(NewRateLimiter(2, time.Hour).Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "192.0.2.1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		if resp.StatusCode == http.StatusOK {
			assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestServiceAvailabilityMaintenance(t *testing.T) {
	sa := NewServiceAvailability(true, 0)
	app := fiber.New()
	app.Use(sa.Middleware())
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/api", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sa.SetMaintenanceMode(false)
	assert.False(t, sa.IsMaintenanceMode())
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), sa.InFlightRequests())
}

func TestServiceAvailabilityOverload(t *testing.T) {
	sa := NewServiceAvailability(false, 1)
	entered := make(chan struct{})
	release := make(chan struct{})

	app := fiber.New()
	app.Use(sa.Middleware())
	app.Get("/slow", func(c *fiber.Ctx) error {
		close(entered)
		<-release
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/fast", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	done := make(chan int, 1)
	go func() {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/slow", nil), -1)
		if err != nil {
			done <- 0
			return
		}
		done <- resp.StatusCode
	}()
	<-entered

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fast", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	for _, disabled := range []bool{true, false} {
		app := fiber.New()
		app.Use(RequestLogger(disabled))
		app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	}
}
