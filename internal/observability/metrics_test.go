package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/navigation/resolve", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/navigation/resolve", "POST", 200, 30*time.Millisecond)
	m.RecordError("/auth/sign-in", "POST", "UNAUTHORIZED")
	m.RecordRedirect("/auth/welcome")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/navigation/resolve|POST|200"])
	assert.Equal(t, int64(20), snap.AvgMillis["/navigation/resolve|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/auth/sign-in|POST|UNAUTHORIZED"])
	assert.Equal(t, int64(1), snap.Redirects["/auth/welcome"])

	assert.Equal(t, float64(1), testutil.ToFloat64(m.redirects.WithLabelValues("/auth/welcome")))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/leaderboard", "GET", 200, 5*time.Millisecond)
	m.RecordRedirect("/teacher/dashboard")

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `classroom_http_requests_total{method="GET",route="/leaderboard",status="200"} 1`)
	assert.Contains(t, text, `classroom_navigation_redirects_total{target="/teacher/dashboard"} 1`)
	assert.Contains(t, text, "classroom_http_request_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Second)
	m.RecordError("/", "GET", "X")
	m.RecordRedirect("/")
	assert.Empty(t, m.Snapshot().Requests)
}
