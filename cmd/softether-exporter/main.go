package main

import (
	"context"
	"log"
	"os"

	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	"softether-exporter/internal/agent"
	"softether-exporter/internal/config"
)

func main() {
	var (
		configFile    = kingpin.Arg("config", "Path to the TOML configuration file.").String()
		envFile       = kingpin.Flag("env-file", "Optional dotenv file read before SOFTETHER_* variables.").Default(".env").String()
		listenAddress = kingpin.Flag("web.listen-address", "Address to listen on for web interface and telemetry.").String()
		metricsPath   = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").String()
		logLevel      = kingpin.Flag("log.level", "Log level: debug, info, warn or error.").String()
	)
	kingpin.Version(version.Print("softether-exporter"))
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	cfg, err := config.Load(*configFile, config.Overrides{
		EnvFile:       *envFile,
		ListenAddress: *listenAddress,
		MetricsPath:   *metricsPath,
		LogLevel:      *logLevel,
	})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := agent.BuildLogger(cfg)
	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error("exporter initialization failed", "error", err)
		os.Exit(1)
	}

	if err := a.Run(context.Background()); err != nil {
		logger.Error("exporter runtime failed", "error", err)
		os.Exit(1)
	}
}
