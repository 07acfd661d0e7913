package stream

import (
	"crypto/tls"
	"log/slog"

	"softether-exporter/internal/config"
)

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Sink, error) {
	if !cfg.Stream.Enabled() {
		return NopSink{}, nil
	}
	return NewGRPCClient(
		cfg.Stream.BackendGRPCAddr,
		tlsCfg,
		cfg.Stream.BackendToken,
		cfg.Stream.Method,
		cfg.Server,
		logger,
	), nil
}
