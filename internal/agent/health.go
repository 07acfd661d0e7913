package agent

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"softether-exporter/internal/collector"
)

type HealthStatus struct {
	streamEnabled   bool
	streamConnected atomic.Bool
	lastScrapeAt    atomic.Int64
	scrapes         atomic.Int64

	mu     sync.Mutex
	hubsUp map[string]bool
}

func NewHealthStatus(streamEnabled bool) *HealthStatus {
	return &HealthStatus{streamEnabled: streamEnabled, hubsUp: make(map[string]bool)}
}

func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.streamConnected.Store(ok)
}

func (h *HealthStatus) SetHubUp(hub string, up bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hubsUp[hub] = up
}

func (h *HealthStatus) MarkScrape(ts time.Time) {
	h.lastScrapeAt.Store(ts.UnixNano())
	h.scrapes.Add(1)
}

func (h *HealthStatus) Snapshot() map[string]any {
	h.mu.Lock()
	up := 0
	down := make([]string, 0)
	for hub, ok := range h.hubsUp {
		if ok {
			up++
		} else {
			down = append(down, hub)
		}
	}
	h.mu.Unlock()
	sort.Strings(down)

	out := map[string]any{
		"stream_enabled":   h.streamEnabled,
		"stream_connected": h.streamConnected.Load(),
		"scrapes":          h.scrapes.Load(),
		"hubs_up":          up,
		"hubs_down":        down,
	}
	if v := h.lastScrapeAt.Load(); v > 0 {
		out["last_scrape_at"] = time.Unix(0, v).UTC()
	}
	return out
}

// healthSink forwards to the metrics sink and keeps HealthStatus current.
type healthSink struct {
	collector.Sink
	health *HealthStatus
}

func (s *healthSink) SetUp(hub string, up bool) {
	s.Sink.SetUp(hub, up)
	s.health.SetHubUp(hub, up)
}

func (s *healthSink) SetBuildInfo() {
	s.Sink.SetBuildInfo()
	s.health.MarkScrape(time.Now().UTC())
}
