package config

import "time"

// Config is the complete niriglue configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	State     StateConfig     `yaml:"state"`
	API       APIConfig       `yaml:"api,omitempty"`
	Tile      TileConfig      `yaml:"tile,omitempty"`
	Wallpaper WallpaperConfig `yaml:"wallpaper,omitempty"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`

	// Fingerprint is the BLAKE3 hash of the loaded config file. Set by
	// Load, never read from YAML.
	Fingerprint string `yaml:"-"`
}

// ServiceConfig defines core daemon settings.
type ServiceConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// SocketPath overrides $NIRI_SOCKET when set.
	SocketPath string `yaml:"socket_path,omitempty"`

	// LockPath is the single-instance PID lock file.
	LockPath string `yaml:"lock_path"`

	// Reconnect backoff for the event-stream loop: start at Backoff,
	// double up to MaxBackoff, reset after a healthy stream.
	ReconnectBackoff    time.Duration `yaml:"reconnect_backoff"`
	ReconnectMaxBackoff time.Duration `yaml:"reconnect_max_backoff"`
}

// StateConfig defines handler state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines the local admin HTTP server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// TileConfig configures the auto-tiling handler.
type TileConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxAutoTiled is the window count up to which tiling is managed.
	MaxAutoTiled int `yaml:"max_auto_tiled"`

	// MaximizeSolos widens a lone tiled window to 100%.
	MaximizeSolos bool `yaml:"maximize_solos"`

	// MaximizeOnClose widens the last remaining window after a close.
	MaximizeOnClose bool `yaml:"maximize_on_close"`
}

// WallpaperConfig configures the per-workspace wallpaper handler.
type WallpaperConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`

	// RotateEvery reshuffles assignments on this interval; 0 disables
	// rotation.
	RotateEvery time.Duration `yaml:"rotate_every"`
}

// NotifyConfig configures desktop notifications.
type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`

	// MinInterval rate-limits notifications per key.
	MinInterval time.Duration `yaml:"min_interval"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel:            "INFO",
			LogFormat:           "json",
			LockPath:            "~/.local/state/niriglue/niriglue.lock",
			ReconnectBackoff:    2 * time.Second,
			ReconnectMaxBackoff: time.Minute,
		},
		State: StateConfig{
			Path: "~/.local/state/niriglue/state.db",
		},
		API: APIConfig{
			Enabled: true,
			Listen:  "127.0.0.1:8337",
		},
		Tile: TileConfig{
			Enabled:         true,
			MaxAutoTiled:    3,
			MaximizeSolos:   true,
			MaximizeOnClose: true,
		},
		Wallpaper: WallpaperConfig{
			Enabled:     false,
			Dir:         "~/.wallpaper",
			RotateEvery: 15 * time.Minute,
		},
		Notify: NotifyConfig{
			Enabled:     true,
			MinInterval: 30 * time.Second,
		},
	}
}
