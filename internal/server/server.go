package server

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"softether-exporter/internal/model"
)

type Scraper interface {
	Scrape(ctx context.Context) []model.HubSnapshot
}

type HealthReporter interface {
	Snapshot() map[string]any
}

type Options struct {
	MetricsPath string
	// RateLimit is the allowed scrapes per second per client IP; 0 disables it.
	RateLimit float64
	Burst     int
	// Version returns the body served at /version.
	Version func() any
}

// NewRouter builds the HTTP surface. Every request to the metrics path runs
// a full scrape before the registry is rendered. The scrape always covers all
// hubs, even if the client goes away mid-request.
func NewRouter(logger *slog.Logger, scraper Scraper, gatherer prometheus.Gatherer, health HealthReporter, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), AccessLogMiddleware(logger))

	metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(logger.Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
	})

	handlers := []gin.HandlerFunc{}
	if opts.RateLimit > 0 {
		handlers = append(handlers, RateLimitMiddleware(NewRateLimiter(opts.RateLimit, opts.Burst), logger))
	}
	handlers = append(handlers, func(c *gin.Context) {
		scraper.Scrape(context.WithoutCancel(c.Request.Context()))
		metrics.ServeHTTP(c.Writer, c.Request)
	})
	r.GET(opts.MetricsPath, handlers...)

	landing := landingPage(opts.MetricsPath)
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", landing)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, health.Snapshot())
	})

	r.GET("/version", func(c *gin.Context) {
		if opts.Version == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "version unavailable"})
			return
		}
		c.JSON(http.StatusOK, opts.Version())
	})

	return r
}

func landingPage(metricsPath string) []byte {
	return []byte(fmt.Sprintf(`<html>
<head><title>SoftEther Exporter</title></head>
<body>
<h1>SoftEther Exporter</h1>
<p><a href="%s">Metrics</a></p>
</body>
</html>
`, html.EscapeString(metricsPath)))
}
