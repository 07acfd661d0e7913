package version

type GetVersionResponse struct {
	Version         string   `json:"version"`
	Revision        string   `json:"revision"`
	Branch          string   `json:"branch"`
	BuildDate       string   `json:"build_date"`
	GoVersion       string   `json:"go_version"`
	Server          string   `json:"server"`
	Hubs            []string `json:"hubs"`
	StreamEnabled   bool     `json:"stream_enabled"`
	ProbeListenAddr string   `json:"probe_listen_addr,omitempty"`
	CheckedAtUnix   int64    `json:"checked_at_unix"`
}
