package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordTicketCreated("Critical")
	m.RecordTicketCreated("Critical")
	m.RecordNotification("slack", "sent")
	m.RecordSLABreach()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticketsByTier.WithLabelValues("Critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("slack", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slaBreaches))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordSLABreach()
	})
}

func TestRequestLoggerRecordsRouteAndExposesMetrics(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/tickets/:id", "GET", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "support_portal_http_requests_total")
}
