package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"softether-exporter/internal/model"
	"softether-exporter/internal/softether"
)

type Scraper struct {
	logger    *slog.Logger
	reader    HubReader
	sink      Sink
	hubs      []Hub
	publisher Publisher
	now       func() time.Time
}

func NewScraper(logger *slog.Logger, reader HubReader, sink Sink, hubs []Hub) *Scraper {
	return &Scraper{
		logger: logger,
		reader: reader,
		sink:   sink,
		hubs:   append([]Hub(nil), hubs...),
		now:    time.Now,
	}
}

// SetPublisher registers p to receive the snapshots of each scrape.
func (s *Scraper) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Scraper) Hubs() []Hub {
	return append([]Hub(nil), s.hubs...)
}

// Scrape queries every configured hub in order and writes the results into
// the sink. A failing hub is marked down and the scrape moves on; its other
// series keep their previous values. Build info is written last, whatever
// the hub outcomes. Every hub is visited; callers that must not be cut short
// pass a context without cancellation.
func (s *Scraper) Scrape(ctx context.Context) []model.HubSnapshot {
	snapshots := make([]model.HubSnapshot, 0, len(s.hubs))
	for _, hub := range s.hubs {
		snap, ok := s.scrapeHub(ctx, hub)
		if ok {
			snapshots = append(snapshots, snap)
		}
	}
	s.sink.SetBuildInfo()

	if s.publisher != nil && len(snapshots) > 0 {
		s.publisher.Publish(snapshots)
	}
	return snapshots
}

func (s *Scraper) scrapeHub(ctx context.Context, hub Hub) (model.HubSnapshot, bool) {
	start := s.now()

	statusCSV, err := s.reader.Invoke(ctx, hub.Name, hub.Password, softether.CommandStatusGet)
	if err != nil {
		s.fail(hub, StageStatusQuery, err)
		return model.HubSnapshot{}, false
	}
	sessionCSV, err := s.reader.Invoke(ctx, hub.Name, hub.Password, softether.CommandSessionList)
	if err != nil {
		s.fail(hub, StageSessionQuery, err)
		return model.HubSnapshot{}, false
	}

	status, err := softether.DecodeStatus(statusCSV)
	if err != nil {
		s.fail(hub, StageStatusDecode, err)
		return model.HubSnapshot{}, false
	}
	sessions, err := softether.DecodeSessions(sessionCSV)
	if err != nil {
		s.fail(hub, StageSessionDecode, err)
		return model.HubSnapshot{}, false
	}

	users := AggregateUsers(sessions)
	elapsed := s.now().Sub(start)

	s.sink.SetUp(hub.Name, true)
	s.sink.SetStatus(hub.Name, status)
	s.sink.SetUserTransfers(hub.Name, users)
	s.sink.ObserveScrape(hub.Name, elapsed)

	s.logger.Debug("hub scraped", "hub", hub.Name, "sessions", len(sessions), "users", len(users), "duration", elapsed)
	return model.HubSnapshot{
		Hub:       hub.Name,
		Timestamp: start.UTC(),
		Duration:  elapsed,
		Status:    status,
		Sessions:  len(sessions),
		Users:     users,
	}, true
}

func (s *Scraper) fail(hub Hub, stage Stage, err error) {
	s.logger.Warn(fmt.Sprintf("hub %s failed", stage), "hub", hub.Name, "error", err)
	s.sink.SetUp(hub.Name, false)
	s.sink.IncScrapeError(hub.Name, stage)
}
