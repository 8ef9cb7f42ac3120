package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config is the persistent application configuration.
// It is constructed once at startup and injected into the components
// that need it; nothing reads it through a global.
type Config struct {
	// Display and arbitration settings
	Display DisplayConfig `json:"display"`

	// Ingestion sources
	Sources SourcesConfig `json:"sources"`

	// UI preferences
	UI UIConfig `json:"ui"`

	// LogLevel sets the log verbosity: "debug", "info", "warn",
	// or "error". Unknown names fall back to debug.
	LogLevel string `json:"log_level"`
}

// DisplayConfig holds the arbitration and lifecycle settings.
type DisplayConfig struct {
	// WarningShockValiditySeconds is the maximum age of a warning's
	// shock time at admission. Older warnings are dropped before they
	// reach the buffer.
	WarningShockValiditySeconds int `json:"warning_shock_validity_seconds"`

	// WarningMinDisplaySeconds is the guaranteed screen time of a
	// warning once it has been shown at least once.
	WarningMinDisplaySeconds int `json:"warning_min_display_seconds"`

	// BufferCapacity bounds each priority buffer.
	BufferCapacity int `json:"buffer_capacity"`

	// QueueCapacity bounds the inbound event queue.
	QueueCapacity int `json:"queue_capacity"`

	// DrainBatch is how many queued events one arbiter tick consumes.
	DrainBatch int `json:"drain_batch"`

	// TickIntervalMS is the arbiter's drain interval in milliseconds.
	TickIntervalMS int `json:"tick_interval_ms"`

	// Timezone is the IANA name of the display timezone. All shock
	// times are normalized into it before any age comparison.
	Timezone string `json:"timezone"`

	// WarningColor overrides the default warning text color.
	WarningColor string `json:"warning_color"`

	// UseCustomText replaces the report rotation with a fixed line.
	UseCustomText   bool   `json:"use_custom_text"`
	CustomText      string `json:"custom_text"`
	CustomTextColor string `json:"custom_text_color"`
}

// SourcesConfig holds the ingestion endpoints.
type SourcesConfig struct {
	// FanStudioURL is the combined push feed. Required when enabled.
	FanStudioURL     string `json:"fanstudio_url"`
	FanStudioEnabled bool   `json:"fanstudio_enabled"`

	// WolfxWSBase is the base URL for Wolfx WebSocket endpoints.
	WolfxWSBase string `json:"wolfx_ws_base"`

	// WolfxHTTPBase is the base URL for Wolfx JSON polling endpoints.
	WolfxHTTPBase string `json:"wolfx_http_base"`

	// WolfxSources lists the enabled Wolfx feeds (e.g. "sc_eew",
	// "jma_eew", "cenc_eqlist").
	WolfxSources []string `json:"wolfx_sources"`

	// P2PQuake endpoints.
	P2PQuakeHistoryURL string `json:"p2pquake_history_url"`
	P2PQuakeTsunamiURL string `json:"p2pquake_tsunami_url"`
	P2PQuakeEnabled    bool   `json:"p2pquake_enabled"`

	// NIEDURL is the NIED relay WebSocket endpoint.
	NIEDURL     string `json:"nied_url"`
	NIEDEnabled bool   `json:"nied_enabled"`

	// WeatherFeedURL is an Atom/RSS weather-alert feed.
	WeatherFeedURL     string `json:"weather_feed_url"`
	WeatherFeedEnabled bool   `json:"weather_feed_enabled"`

	// PollIntervalSeconds is the base interval for HTTP pollers.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

// UIConfig holds UI preferences.
type UIConfig struct {
	// ScrollSpeedMS is the per-step scroll delay in milliseconds.
	ScrollSpeedMS int `json:"scroll_speed_ms"`

	// FontScale is reserved for renderers that support it.
	FontScale float64 `json:"font_scale"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			WarningShockValiditySeconds: 300,
			WarningMinDisplaySeconds:    300,
			BufferCapacity:              20,
			QueueCapacity:               100,
			DrainBatch:                  5,
			TickIntervalMS:              100,
			Timezone:                    "Asia/Shanghai",
			WarningColor:                "#FF0000",
			UseCustomText:               false,
			CustomText:                  "系统运行中，等待最新地震信息...",
			CustomTextColor:             "#01FF00",
		},
		Sources: SourcesConfig{
			FanStudioURL:        "wss://ws.fanstudio.tech/all",
			FanStudioEnabled:    true,
			WolfxWSBase:         "wss://ws-api.wolfx.jp",
			WolfxHTTPBase:       "https://api.wolfx.jp",
			WolfxSources:        []string{"sc_eew", "jma_eew", "cenc_eqlist", "jma_eqlist"},
			P2PQuakeHistoryURL:  "https://api.p2pquake.net/v2/history?codes=551&limit=3",
			P2PQuakeTsunamiURL:  "https://api.p2pquake.net/v2/jma/tsunami?limit=1",
			P2PQuakeEnabled:     true,
			NIEDURL:             "wss://sismotide.top/nied",
			NIEDEnabled:         false,
			WeatherFeedEnabled:  false,
			PollIntervalSeconds: 5,
		},
		UI: UIConfig{
			ScrollSpeedMS: 40,
			FontScale:     1.0,
		},
		LogLevel: "debug",
	}
}

// Location resolves the configured display timezone, falling back to
// UTC when the name does not resolve.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TickInterval returns the arbiter drain interval as a duration.
func (c *Config) TickInterval() time.Duration {
	ms := c.Display.TickIntervalMS
	if ms <= 0 {
		ms = 100
	}
	return time.Duration(ms) * time.Millisecond
}

// ShockValidity returns the admission-time warning validity window.
func (c *Config) ShockValidity() time.Duration {
	return time.Duration(c.Display.WarningShockValiditySeconds) * time.Second
}

// MinDisplay returns the guaranteed warning screen time.
func (c *Config) MinDisplay() time.Duration {
	return time.Duration(c.Display.WarningMinDisplaySeconds) * time.Second
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quakeline", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	cfg.applyFloors()
	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// applyFloors backfills zero values from the defaults so a hand-edited
// config with missing fields still produces a working arbiter.
func (c *Config) applyFloors() {
	def := DefaultConfig()
	if c.Display.WarningShockValiditySeconds <= 0 {
		c.Display.WarningShockValiditySeconds = def.Display.WarningShockValiditySeconds
	}
	if c.Display.WarningMinDisplaySeconds <= 0 {
		c.Display.WarningMinDisplaySeconds = def.Display.WarningMinDisplaySeconds
	}
	if c.Display.BufferCapacity <= 0 {
		c.Display.BufferCapacity = def.Display.BufferCapacity
	}
	if c.Display.QueueCapacity <= 0 {
		c.Display.QueueCapacity = def.Display.QueueCapacity
	}
	if c.Display.DrainBatch <= 0 {
		c.Display.DrainBatch = def.Display.DrainBatch
	}
	if c.Display.TickIntervalMS <= 0 {
		c.Display.TickIntervalMS = def.Display.TickIntervalMS
	}
	if c.Display.Timezone == "" {
		c.Display.Timezone = def.Display.Timezone
	}
	if c.Display.WarningColor == "" {
		c.Display.WarningColor = def.Display.WarningColor
	}
	if c.Display.CustomText == "" {
		c.Display.CustomText = def.Display.CustomText
	}
	if c.Display.CustomTextColor == "" {
		c.Display.CustomTextColor = def.Display.CustomTextColor
	}
	if c.Sources.PollIntervalSeconds <= 0 {
		c.Sources.PollIntervalSeconds = def.Sources.PollIntervalSeconds
	}
	if c.UI.ScrollSpeedMS <= 0 {
		c.UI.ScrollSpeedMS = def.UI.ScrollSpeedMS
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}
