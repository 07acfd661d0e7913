package collector

import (
	"context"
	"time"

	"softether-exporter/internal/model"
	"softether-exporter/internal/softether"
)

// HubReader runs one vpncmd query for a hub and returns its raw CSV report.
type HubReader interface {
	Invoke(ctx context.Context, hub, password string, cmd softether.Command) ([]byte, error)
}

// Sink receives the results of a scrape. Implementations must be safe for
// concurrent scrapes.
type Sink interface {
	SetUp(hub string, up bool)
	SetStatus(hub string, status model.HubStatus)
	SetUserTransfers(hub string, users []model.UserTransfer)
	ObserveScrape(hub string, d time.Duration)
	IncScrapeError(hub string, stage Stage)
	SetBuildInfo()
}

// Publisher is handed the snapshots of every hub scraped successfully.
type Publisher interface {
	Publish(snapshots []model.HubSnapshot)
}

// Stage names the step of a hub scrape that failed.
type Stage string

const (
	StageStatusQuery   Stage = "status_query"
	StageSessionQuery  Stage = "session_query"
	StageStatusDecode  Stage = "status_decode"
	StageSessionDecode Stage = "session_decode"
)

// Hub is a configured virtual hub and the credential forwarded to vpncmd.
type Hub struct {
	Name     string
	Password string
}
