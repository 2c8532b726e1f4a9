package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "niriglue", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "niriglue", "config.yaml")
}

// Load reads and parses configuration from a file. A missing file is not an
// error: defaults apply, since the daemon is useful without any config.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		expandPaths(cfg)
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := interpolateEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}

	fingerprint, err := FileFingerprint(absPath)
	if err != nil {
		return nil, err
	}
	cfg.Fingerprint = fingerprint

	expandPaths(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// interpolateEnv replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func interpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// expandPaths resolves leading ~ in path-valued settings.
func expandPaths(cfg *Config) {
	cfg.State.Path = expandHome(cfg.State.Path)
	cfg.Service.LockPath = expandHome(cfg.Service.LockPath)
	cfg.Wallpaper.Dir = expandHome(cfg.Wallpaper.Dir)
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func validate(cfg *Config) error {
	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is empty")
	}
	if cfg.Service.LockPath == "" {
		return fmt.Errorf("service.lock_path is empty")
	}
	if cfg.Service.ReconnectBackoff <= 0 {
		return fmt.Errorf("service.reconnect_backoff must be positive")
	}
	if cfg.Service.ReconnectMaxBackoff < cfg.Service.ReconnectBackoff {
		return fmt.Errorf("service.reconnect_max_backoff must be >= service.reconnect_backoff")
	}
	if cfg.API.Enabled && cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is empty with api.enabled")
	}
	if cfg.Tile.Enabled && cfg.Tile.MaxAutoTiled < 1 {
		return fmt.Errorf("tile.max_auto_tiled must be >= 1")
	}
	if cfg.Wallpaper.Enabled {
		if cfg.Wallpaper.Dir == "" {
			return fmt.Errorf("wallpaper.dir is empty with wallpaper.enabled")
		}
		if cfg.Wallpaper.RotateEvery < 0 {
			return fmt.Errorf("wallpaper.rotate_every must not be negative")
		}
	}
	if cfg.Notify.Enabled && cfg.Notify.MinInterval < 0 {
		return fmt.Errorf("notify.min_interval must not be negative")
	}
	return nil
}
