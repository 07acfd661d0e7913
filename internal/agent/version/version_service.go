package version

import (
	"time"

	promversion "github.com/prometheus/common/version"

	"softether-exporter/internal/config"
)

func Get(cfg config.Config) *GetVersionResponse {
	hubs := make([]string, 0, len(cfg.Hubs))
	for _, h := range cfg.Hubs {
		hubs = append(hubs, h.Name)
	}
	return &GetVersionResponse{
		Version:         promversion.Version,
		Revision:        promversion.Revision,
		Branch:          promversion.Branch,
		BuildDate:       promversion.BuildDate,
		GoVersion:       promversion.GoVersion,
		Server:          cfg.Server,
		Hubs:            hubs,
		StreamEnabled:   cfg.Stream.Enabled(),
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAtUnix:   time.Now().UTC().Unix(),
	}
}
