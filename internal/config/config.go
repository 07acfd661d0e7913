package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const defaultStreamMethod = "/softether.metrics.v1.MetricsService/StreamHubSnapshots"

// Duration is a time.Duration read from TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Hub struct {
	Name     string `toml:"name"`
	Password string `toml:"password"`
}

type Stream struct {
	BackendGRPCAddr string   `toml:"backend_grpc_addr"`
	BackendToken    string   `toml:"backend_token"`
	Method          string   `toml:"method"`
	PushInterval    Duration `toml:"push_interval"`
	BufferSize      int      `toml:"buffer_size"`
	TLSEnabled      bool     `toml:"tls_enabled"`
	TLSSkipVerify   bool     `toml:"tls_skip_verify"`
	TLSCAPath       string   `toml:"tls_ca_path"`
	TLSCertPath     string   `toml:"tls_cert_path"`
	TLSKeyPath      string   `toml:"tls_key_path"`
}

func (s Stream) Enabled() bool {
	return strings.TrimSpace(s.BackendGRPCAddr) != ""
}

type Config struct {
	VPNCmd          string   `toml:"vpncmd"`
	Server          string   `toml:"server"`
	AdminPassword   string   `toml:"adminpassword"`
	ListenAddress   string   `toml:"listen_address"`
	MetricsPath     string   `toml:"metrics_path"`
	Hubs            []Hub    `toml:"hubs"`
	LogLevel        string   `toml:"log_level"`
	LogJSON         bool     `toml:"log_json"`
	CommandTimeout  Duration `toml:"command_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	ScrapeRateLimit float64  `toml:"scrape_rate_limit"`
	ScrapeBurst     int      `toml:"scrape_burst"`
	ClearStaleUsers bool     `toml:"clear_stale_users"`
	ProbeListenAddr string   `toml:"probe_listen_address"`
	HealthInterval  Duration `toml:"health_interval"`
	Stream          Stream   `toml:"stream"`
}

// Overrides carries command-line values; empty fields leave the loaded
// configuration alone.
type Overrides struct {
	EnvFile       string
	ListenAddress string
	MetricsPath   string
	LogLevel      string
}

func Default() Config {
	return Config{
		VPNCmd:          "vpncmd",
		Server:          "localhost",
		ListenAddress:   ":9411",
		MetricsPath:     "/metrics",
		LogLevel:        "info",
		ShutdownTimeout: Duration{20 * time.Second},
		ScrapeBurst:     1,
		HealthInterval:  Duration{30 * time.Second},
		Stream: Stream{
			Method:     defaultStreamMethod,
			BufferSize: 16,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path, a .env
// file, SOFTETHER_* environment variables and finally o, then validates it.
func Load(path string, o Overrides) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg.applyEnv()
	cfg.applyOverrides(o)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.VPNCmd = env("SOFTETHER_VPNCMD", c.VPNCmd)
	c.Server = env("SOFTETHER_SERVER", c.Server)
	c.AdminPassword = env("SOFTETHER_ADMIN_PASSWORD", c.AdminPassword)
	c.ListenAddress = env("SOFTETHER_LISTEN_ADDR", c.ListenAddress)
	c.MetricsPath = env("SOFTETHER_METRICS_PATH", c.MetricsPath)
	c.LogLevel = env("SOFTETHER_LOG_LEVEL", c.LogLevel)
	c.LogJSON = envBool("SOFTETHER_LOG_JSON", c.LogJSON)
	c.CommandTimeout.Duration = envDuration("SOFTETHER_COMMAND_TIMEOUT", c.CommandTimeout.Duration)
	c.ShutdownTimeout.Duration = envDuration("SOFTETHER_SHUTDOWN_TIMEOUT", c.ShutdownTimeout.Duration)
	c.ScrapeRateLimit = envFloat("SOFTETHER_SCRAPE_RATE_LIMIT", c.ScrapeRateLimit)
	c.ScrapeBurst = envInt("SOFTETHER_SCRAPE_BURST", c.ScrapeBurst)
	c.ClearStaleUsers = envBool("SOFTETHER_CLEAR_STALE_USERS", c.ClearStaleUsers)
	c.ProbeListenAddr = env("SOFTETHER_PROBE_ADDR", c.ProbeListenAddr)
	c.HealthInterval.Duration = envDuration("SOFTETHER_HEALTH_INTERVAL", c.HealthInterval.Duration)

	c.Stream.BackendGRPCAddr = env("SOFTETHER_BACKEND_GRPC_ADDR", c.Stream.BackendGRPCAddr)
	c.Stream.BackendToken = env("SOFTETHER_BACKEND_TOKEN", c.Stream.BackendToken)
	c.Stream.Method = env("SOFTETHER_GRPC_STREAM_METHOD", c.Stream.Method)
	c.Stream.PushInterval.Duration = envDuration("SOFTETHER_PUSH_INTERVAL", c.Stream.PushInterval.Duration)
	c.Stream.BufferSize = envInt("SOFTETHER_STREAM_BUFFER_SIZE", c.Stream.BufferSize)
	c.Stream.TLSEnabled = envBool("SOFTETHER_TLS_ENABLED", c.Stream.TLSEnabled)
	c.Stream.TLSSkipVerify = envBool("SOFTETHER_TLS_SKIP_VERIFY", c.Stream.TLSSkipVerify)
	c.Stream.TLSCAPath = env("SOFTETHER_TLS_CA_PATH", c.Stream.TLSCAPath)
	c.Stream.TLSCertPath = env("SOFTETHER_TLS_CERT_PATH", c.Stream.TLSCertPath)
	c.Stream.TLSKeyPath = env("SOFTETHER_TLS_KEY_PATH", c.Stream.TLSKeyPath)
}

func (c *Config) applyOverrides(o Overrides) {
	if v := strings.TrimSpace(o.ListenAddress); v != "" {
		c.ListenAddress = v
	}
	if v := strings.TrimSpace(o.MetricsPath); v != "" {
		c.MetricsPath = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) normalize() {
	c.ListenAddress = normalizeListenAddr(c.ListenAddress)
	c.ProbeListenAddr = normalizeListenAddr(c.ProbeListenAddr)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	for i := range c.Hubs {
		c.Hubs[i].Name = strings.TrimSpace(c.Hubs[i].Name)
	}
}

// normalizeListenAddr turns ":9411" into "0.0.0.0:9411".
func normalizeListenAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, ":") {
		return "0.0.0.0" + addr
	}
	return addr
}

// Credential returns the password forwarded to vpncmd for h. A hub without
// its own password uses the server-wide admin password.
func (c Config) Credential(h Hub) string {
	if h.Password != "" {
		return h.Password
	}
	return c.AdminPassword
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.VPNCmd) == "" {
		return errors.New("vpncmd is required")
	}
	if strings.TrimSpace(c.Server) == "" {
		return errors.New("server is required")
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		return errors.New("listen_address is required")
	}
	if !strings.HasPrefix(c.MetricsPath, "/") || c.MetricsPath == "/" {
		return fmt.Errorf("metrics_path %q must start with / and not be the root", c.MetricsPath)
	}
	if len(c.Hubs) == 0 {
		return errors.New("at least one [[hubs]] entry is required")
	}
	seen := make(map[string]struct{}, len(c.Hubs))
	for i, h := range c.Hubs {
		if h.Name == "" {
			return fmt.Errorf("hubs[%d]: name is required", i)
		}
		if _, dup := seen[h.Name]; dup {
			return fmt.Errorf("hubs[%d]: duplicate hub %q", i, h.Name)
		}
		seen[h.Name] = struct{}{}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	if c.CommandTimeout.Duration < 0 {
		return errors.New("command_timeout must be >= 0")
	}
	if c.ShutdownTimeout.Duration <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	if c.HealthInterval.Duration <= 0 {
		return errors.New("health_interval must be > 0")
	}
	if c.ScrapeRateLimit < 0 {
		return errors.New("scrape_rate_limit must be >= 0")
	}
	if c.ScrapeRateLimit > 0 && c.ScrapeBurst <= 0 {
		return errors.New("scrape_burst must be > 0 when scrape_rate_limit is set")
	}
	if c.Stream.Enabled() {
		if strings.TrimSpace(c.Stream.Method) == "" {
			return errors.New("stream.method is required when stream.backend_grpc_addr is set")
		}
		if c.Stream.PushInterval.Duration < 0 {
			return errors.New("stream.push_interval must be >= 0")
		}
		if c.Stream.BufferSize <= 0 {
			return errors.New("stream.buffer_size must be > 0")
		}
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	s := c.Stream
	if !s.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: s.TLSSkipVerify}
	if s.TLSCAPath != "" {
		caBytes, err := os.ReadFile(s.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if s.TLSCertPath != "" || s.TLSKeyPath != "" {
		if s.TLSCertPath == "" || s.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(s.TLSCertPath, s.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
