package collector

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the Scraper on a fixed interval, independent of metric
// pulls. It is used when snapshots are pushed to a backend.
type Scheduler struct {
	logger   *slog.Logger
	scraper  *Scraper
	interval time.Duration
}

func NewScheduler(logger *slog.Logger, scraper *Scraper, interval time.Duration) *Scheduler {
	return &Scheduler{logger: logger, scraper: scraper, interval: interval}
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scrapeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.scrapeOnce(ctx)
		}
	}
}

// scrapeOnce lets a started scrape finish even when ctx is canceled; ctx only
// stops the ticker loop.
func (s *Scheduler) scrapeOnce(ctx context.Context) {
	start := time.Now()
	snaps := s.scraper.Scrape(context.WithoutCancel(ctx))
	s.logger.Debug("scheduled scrape finished", "hubs_ok", len(snaps), "hubs", len(s.scraper.hubs), "duration", time.Since(start))
}
