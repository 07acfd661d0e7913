package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddress, err)
	}
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", "addr", ln.Addr().String(), "metrics_path", a.cfg.MetricsPath)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout.Duration)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("http server shutdown failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	if strings.TrimSpace(a.cfg.ProbeListenAddr) != "" {
		g.Go(func() error {
			return a.runProbeListener(gctx)
		})
	}
	if a.queue != nil {
		g.Go(func() error {
			return a.runPushLoop(gctx)
		})
		g.Go(func() error {
			return a.scheduler.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) runPushLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-a.queue.ch:
			if err := a.sink.SendHubSnapshots(ctx, batch); err != nil {
				a.health.SetStreamConnected(false)
				a.logger.Warn("snapshot push failed", "hubs", len(batch), "error", err)
				continue
			}
			a.health.SetStreamConnected(true)
		}
	}
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(a.cfg.HealthInterval.Duration)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.logHealth()
		}
	}
}

func (a *Agent) logHealth() {
	a.logger.Log(context.Background(), slog.LevelDebug, "agent health", "snapshot", a.health.Snapshot())
}

func (a *Agent) shutdown(ctx context.Context) {
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warn("stream sink close failed", "error", err)
	}
	a.health.SetStreamConnected(false)
}
