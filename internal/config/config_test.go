package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnvFile(t *testing.T) Overrides {
	return Overrides{EnvFile: filepath.Join(t.TempDir(), "missing.env")}
}

const sampleTOML = `
vpncmd = "/usr/local/vpnserver/vpncmd"
server = "vpn.example.com:5555"
adminpassword = "admin-secret"
listen_address = ":9411"
command_timeout = "15s"
clear_stale_users = true

[[hubs]]
name = "DEFAULT"

[[hubs]]
name = "OFFICE"
password = "office-secret"

[stream]
backend_grpc_addr = "collector.example.com:3001"
push_interval = "1m"
`

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "softether.toml", sampleTOML)

	cfg, err := Load(path, noEnvFile(t))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.VPNCmd != "/usr/local/vpnserver/vpncmd" || cfg.Server != "vpn.example.com:5555" {
		t.Fatalf("unexpected tool settings: %+v", cfg)
	}
	if cfg.ListenAddress != "0.0.0.0:9411" {
		t.Fatalf("ListenAddress = %q", cfg.ListenAddress)
	}
	if cfg.CommandTimeout.Duration != 15*time.Second {
		t.Fatalf("CommandTimeout = %s", cfg.CommandTimeout)
	}
	if !cfg.ClearStaleUsers {
		t.Fatal("ClearStaleUsers not read")
	}
	if len(cfg.Hubs) != 2 || cfg.Hubs[1].Name != "OFFICE" {
		t.Fatalf("Hubs = %+v", cfg.Hubs)
	}
	if got := cfg.Credential(cfg.Hubs[0]); got != "admin-secret" {
		t.Fatalf("DEFAULT credential = %q, want global password", got)
	}
	if got := cfg.Credential(cfg.Hubs[1]); got != "office-secret" {
		t.Fatalf("OFFICE credential = %q, want hub password", got)
	}
	if !cfg.Stream.Enabled() || cfg.Stream.PushInterval.Duration != time.Minute {
		t.Fatalf("Stream = %+v", cfg.Stream)
	}
	if cfg.Stream.Method != defaultStreamMethod || cfg.Stream.BufferSize != 16 {
		t.Fatalf("stream defaults lost: %+v", cfg.Stream)
	}
	if cfg.MetricsPath != "/metrics" || cfg.ShutdownTimeout.Duration != 20*time.Second {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvAndOverrides(t *testing.T) {
	path := writeFile(t, "softether.toml", sampleTOML)
	t.Setenv("SOFTETHER_SERVER", "10.0.0.1:443")
	t.Setenv("SOFTETHER_COMMAND_TIMEOUT", "3s")
	t.Setenv("SOFTETHER_LISTEN_ADDR", "127.0.0.1:9000")

	o := noEnvFile(t)
	o.ListenAddress = ":9999"
	o.LogLevel = "DEBUG"
	cfg, err := Load(path, o)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server != "10.0.0.1:443" || cfg.CommandTimeout.Duration != 3*time.Second {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if cfg.ListenAddress != "0.0.0.0:9999" {
		t.Fatalf("flag should win over env, got %q", cfg.ListenAddress)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, "softether.toml", sampleTOML)
	envFile := writeFile(t, ".env", "SOFTETHER_ADMIN_PASSWORD=from-dotenv\n")
	t.Setenv("SOFTETHER_ADMIN_PASSWORD", "")
	os.Unsetenv("SOFTETHER_ADMIN_PASSWORD")

	cfg, err := Load(path, Overrides{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AdminPassword != "from-dotenv" {
		t.Fatalf("AdminPassword = %q", cfg.AdminPassword)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml"), noEnvFile(t)); err == nil {
		t.Fatal("expected error for missing file")
	}
	bad := writeFile(t, "bad.toml", "hubs = [[[")
	if _, err := Load(bad, noEnvFile(t)); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
	badDuration := writeFile(t, "dur.toml", "command_timeout = \"soon\"\n[[hubs]]\nname = \"A\"\n")
	if _, err := Load(badDuration, noEnvFile(t)); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Hubs = []Hub{{Name: "DEFAULT"}}
		return c
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := map[string]func(c *Config){
		"no hubs":          func(c *Config) { c.Hubs = nil },
		"empty hub name":   func(c *Config) { c.Hubs = []Hub{{Name: ""}} },
		"duplicate hub":    func(c *Config) { c.Hubs = []Hub{{Name: "A"}, {Name: "A"}} },
		"empty vpncmd":     func(c *Config) { c.VPNCmd = " " },
		"empty server":     func(c *Config) { c.Server = "" },
		"empty listen":     func(c *Config) { c.ListenAddress = "" },
		"relative path":    func(c *Config) { c.MetricsPath = "metrics" },
		"root path":        func(c *Config) { c.MetricsPath = "/" },
		"bad log level":    func(c *Config) { c.LogLevel = "verbose" },
		"negative timeout": func(c *Config) { c.CommandTimeout.Duration = -time.Second },
		"negative rate":    func(c *Config) { c.ScrapeRateLimit = -1 },
		"zero burst":       func(c *Config) { c.ScrapeRateLimit = 1; c.ScrapeBurst = 0 },
		"stream buffer": func(c *Config) {
			c.Stream.BackendGRPCAddr = "127.0.0.1:3001"
			c.Stream.BufferSize = 0
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNormalizeListenAddr(t *testing.T) {
	tests := map[string]string{
		":9411":          "0.0.0.0:9411",
		"127.0.0.1:9411": "127.0.0.1:9411",
		"":               "",
	}
	for in, want := range tests {
		if got := normalizeListenAddr(in); got != want {
			t.Errorf("normalizeListenAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTLSConfigDisabled(t *testing.T) {
	cfg := Default()
	tlsCfg, err := cfg.TLSConfig()
	if err != nil || tlsCfg != nil {
		t.Fatalf("TLSConfig() = %v, %v; want nil, nil", tlsCfg, err)
	}
	cfg.Stream.TLSEnabled = true
	cfg.Stream.TLSCertPath = "cert.pem"
	if _, err := cfg.TLSConfig(); err == nil {
		t.Fatal("expected error for cert without key")
	}
}
