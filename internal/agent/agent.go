package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promversion "github.com/prometheus/common/version"

	"softether-exporter/internal/agent/version"
	"softether-exporter/internal/collector"
	"softether-exporter/internal/config"
	"softether-exporter/internal/exporter"
	"softether-exporter/internal/model"
	"softether-exporter/internal/server"
	"softether-exporter/internal/softether"
	"softether-exporter/internal/stream"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	exporter  *exporter.Exporter
	scraper   *collector.Scraper
	scheduler *collector.Scheduler
	sink      stream.Sink
	queue     *snapshotQueue
	health    *HealthStatus
	handler   http.Handler
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	sink, err := stream.NewSinkFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("stream sink: %w", err)
	}

	exp := exporter.New(exporter.Options{
		ClearStaleUsers:   cfg.ClearStaleUsers,
		RuntimeCollectors: true,
	})
	health := NewHealthStatus(cfg.Stream.Enabled())

	hubs := make([]collector.Hub, 0, len(cfg.Hubs))
	for _, h := range cfg.Hubs {
		hubs = append(hubs, collector.Hub{Name: h.Name, Password: cfg.Credential(h)})
	}
	invoker := softether.NewInvoker(cfg.VPNCmd, cfg.Server, cfg.CommandTimeout.Duration)
	scraper := collector.NewScraper(logger, invoker, &healthSink{Sink: exp, health: health}, hubs)

	a := &Agent{
		cfg:      cfg,
		logger:   logger,
		exporter: exp,
		scraper:  scraper,
		sink:     sink,
		health:   health,
	}
	if cfg.Stream.Enabled() {
		a.queue = newSnapshotQueue(cfg.Stream.BufferSize, logger)
		scraper.SetPublisher(a.queue)
		a.scheduler = collector.NewScheduler(logger, scraper, cfg.Stream.PushInterval.Duration)
	}

	a.handler = server.NewRouter(logger, scraper, exp.Registry(), health, server.Options{
		MetricsPath: cfg.MetricsPath,
		RateLimit:   cfg.ScrapeRateLimit,
		Burst:       cfg.ScrapeBurst,
		Version:     func() any { return version.Get(cfg) },
	})
	return a, nil
}

// Handler is the HTTP surface served on the listen address.
func (a *Agent) Handler() http.Handler {
	return a.handler
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting softether-exporter",
		"version", promversion.Info(),
		"server", a.cfg.Server,
		"hubs", len(a.cfg.Hubs),
		"listen_address", a.cfg.ListenAddress,
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	shutdownTimeout := a.cfg.ShutdownTimeout.Duration
	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", shutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(shutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", shutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("softether-exporter stopped")
	return nil
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}

// snapshotQueue decouples scrapes from the backend push. A full queue drops
// the batch rather than holding up the metrics response.
type snapshotQueue struct {
	ch     chan []model.HubSnapshot
	logger *slog.Logger
}

func newSnapshotQueue(size int, logger *slog.Logger) *snapshotQueue {
	if size <= 0 {
		size = 1
	}
	return &snapshotQueue{ch: make(chan []model.HubSnapshot, size), logger: logger}
}

func (q *snapshotQueue) Publish(snapshots []model.HubSnapshot) {
	select {
	case q.ch <- snapshots:
	default:
		q.logger.Warn("snapshot queue full, dropping batch", "hubs", len(snapshots))
	}
}
