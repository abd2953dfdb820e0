// Package config manages the wlancryptd daemon configuration using
// koanf/v2.
//
// Supports YAML files and environment variables layered over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete wlancryptd configuration.
type Config struct {
	GRPC            GRPCConfig        `koanf:"grpc"`
	Metrics         MetricsConfig     `koanf:"metrics"`
	Log             LogConfig         `koanf:"log"`
	Countermeasures CMConfig          `koanf:"countermeasures"`
	Interfaces      []InterfaceConfig `koanf:"interfaces"`
}

// GRPCConfig holds the ConnectRPC server configuration.
type GRPCConfig struct {
	// Addr is the ConnectRPC listen address (e.g., ":50151").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9101").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// CMConfig holds the TKIP countermeasures window override (spec section
// 4.4). The standard fixes this at 60 seconds; tests and some lab
// deployments want it shorter.
type CMConfig struct {
	// WindowSeconds is the countermeasures re-arm window. Zero means use
	// wlancrypto.DefaultCountermeasuresWindowSeconds.
	WindowSeconds int64 `koanf:"window_seconds"`
}

// InterfaceConfig declares one radio interface's operating mode (spec
// section 4.5: AP vs station decides Michael key-half assignment). Each
// entry is applied via Manager.ConfigureInterface on daemon startup.
type InterfaceConfig struct {
	// Name identifies the interface (matches the iface argument the host
	// collaborator passes to Manager.InstallKey/Encrypt/Decrypt).
	Name string `koanf:"name"`
	// Mode is "ap" or "station".
	Mode string `koanf:"mode"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		GRPC: GRPCConfig{
			Addr: ":50151",
		},
		Metrics: MetricsConfig{
			Addr: ":9101",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Countermeasures: CMConfig{
			WindowSeconds: 60,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for wlancryptd configuration.
// Variables are named WLANCRYPT_<section>_<key>, e.g., WLANCRYPT_GRPC_ADDR.
const envPrefix = "WLANCRYPT_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (WLANCRYPT_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms WLANCRYPT_GRPC_ADDR -> grpc.addr. Only the first
// underscore separates section from key, so
// WLANCRYPT_COUNTERMEASURES_WINDOW_SECONDS -> countermeasures.window_seconds.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"grpc.addr":                      defaults.GRPC.Addr,
		"metrics.addr":                   defaults.Metrics.Addr,
		"metrics.path":                   defaults.Metrics.Path,
		"log.level":                      defaults.Log.Level,
		"log.format":                     defaults.Log.Format,
		"countermeasures.window_seconds": defaults.Countermeasures.WindowSeconds,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	ErrEmptyGRPCAddr        = errors.New("grpc.addr must not be empty")
	ErrInvalidWindowSeconds = errors.New("countermeasures.window_seconds must be >= 0")
	ErrEmptyInterfaceName   = errors.New("interfaces[] name must not be empty")
	ErrInvalidInterfaceMode = errors.New("interfaces[] mode must be \"ap\" or \"station\"")
	ErrDuplicateInterface   = errors.New("duplicate interface name")
)

// ValidModes lists the recognized interface mode strings.
var ValidModes = map[string]bool{
	"ap":      true,
	"station": true,
}

// Validate checks the configuration for logical errors.
func Validate(cfg *Config) error {
	if cfg.GRPC.Addr == "" {
		return ErrEmptyGRPCAddr
	}
	if cfg.Countermeasures.WindowSeconds < 0 {
		return ErrInvalidWindowSeconds
	}

	seen := make(map[string]struct{}, len(cfg.Interfaces))
	for i, ifc := range cfg.Interfaces {
		if ifc.Name == "" {
			return fmt.Errorf("interfaces[%d]: %w", i, ErrEmptyInterfaceName)
		}
		if !ValidModes[ifc.Mode] {
			return fmt.Errorf("interfaces[%d] mode %q: %w", i, ifc.Mode, ErrInvalidInterfaceMode)
		}
		if _, dup := seen[ifc.Name]; dup {
			return fmt.Errorf("interfaces[%d] name %q: %w", i, ifc.Name, ErrDuplicateInterface)
		}
		seen[ifc.Name] = struct{}{}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
