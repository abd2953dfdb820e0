package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go80211/wlancrypt/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.GRPC.Addr != ":50151" {
		t.Errorf("GRPC.Addr = %q, want %q", cfg.GRPC.Addr, ":50151")
	}
	if cfg.Metrics.Addr != ":9101" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9101")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Countermeasures.WindowSeconds != 60 {
		t.Errorf("Countermeasures.WindowSeconds = %d, want %d", cfg.Countermeasures.WindowSeconds, 60)
	}

	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
grpc:
  addr: ":60000"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
countermeasures:
  window_seconds: 10
interfaces:
  - name: "wlan0"
    mode: "ap"
  - name: "wlan1"
    mode: "station"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.GRPC.Addr != ":60000" {
		t.Errorf("GRPC.Addr = %q, want %q", cfg.GRPC.Addr, ":60000")
	}
	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}
	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
	if cfg.Countermeasures.WindowSeconds != 10 {
		t.Errorf("Countermeasures.WindowSeconds = %d, want %d", cfg.Countermeasures.WindowSeconds, 10)
	}

	if len(cfg.Interfaces) != 2 {
		t.Fatalf("Interfaces count = %d, want 2", len(cfg.Interfaces))
	}
	if cfg.Interfaces[0].Name != "wlan0" || cfg.Interfaces[0].Mode != "ap" {
		t.Errorf("Interfaces[0] = %+v, want {wlan0 ap}", cfg.Interfaces[0])
	}
	if cfg.Interfaces[1].Name != "wlan1" || cfg.Interfaces[1].Mode != "station" {
		t.Errorf("Interfaces[1] = %+v, want {wlan1 station}", cfg.Interfaces[1])
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override grpc.addr and log.level. Everything
	// else should inherit from DefaultConfig().
	yamlContent := `
grpc:
  addr: ":55555"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.GRPC.Addr != ":55555" {
		t.Errorf("GRPC.Addr = %q, want %q", cfg.GRPC.Addr, ":55555")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	if cfg.Metrics.Addr != ":9101" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9101")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, "/metrics")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
	if cfg.Countermeasures.WindowSeconds != 60 {
		t.Errorf("Countermeasures.WindowSeconds = %d, want default %d", cfg.Countermeasures.WindowSeconds, 60)
	}
}

func TestLoadEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	// Cannot run in parallel: t.Setenv forbids it.

	yamlContent := `
grpc:
  addr: ":50151"
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("WLANCRYPT_GRPC_ADDR", ":60000")
	t.Setenv("WLANCRYPT_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.GRPC.Addr != ":60000" {
		t.Errorf("GRPC.Addr = %q, want %q (from env)", cfg.GRPC.Addr, ":60000")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetricsAndCountermeasures(t *testing.T) {
	yamlContent := `
grpc:
  addr: ":50151"
metrics:
  addr: ":9101"
  path: "/metrics"
countermeasures:
  window_seconds: 60
`
	path := writeTemp(t, yamlContent)

	t.Setenv("WLANCRYPT_METRICS_ADDR", ":9200")
	t.Setenv("WLANCRYPT_METRICS_PATH", "/custom")
	t.Setenv("WLANCRYPT_COUNTERMEASURES_WINDOW_SECONDS", "5")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}
	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
	if cfg.Countermeasures.WindowSeconds != 5 {
		t.Errorf("Countermeasures.WindowSeconds = %d, want %d (from env)", cfg.Countermeasures.WindowSeconds, 5)
	}
}

func TestLoadPrecedenceDefaultThenFileThenEnv(t *testing.T) {
	// grpc.addr: default -> file -> env, each layer overriding the last.
	yamlContent := `
grpc:
  addr: ":40000"
`
	path := writeTemp(t, yamlContent)

	// No env set: file wins over default.
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}
	if cfg.GRPC.Addr != ":40000" {
		t.Fatalf("GRPC.Addr = %q, want %q (file over default)", cfg.GRPC.Addr, ":40000")
	}

	// Env set: env wins over file (which already won over default).
	t.Setenv("WLANCRYPT_GRPC_ADDR", ":41000")
	cfg, err = config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}
	if cfg.GRPC.Addr != ":41000" {
		t.Fatalf("GRPC.Addr = %q, want %q (env over file)", cfg.GRPC.Addr, ":41000")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name:    "empty grpc addr",
			modify:  func(cfg *config.Config) { cfg.GRPC.Addr = "" },
			wantErr: config.ErrEmptyGRPCAddr,
		},
		{
			name:    "negative window",
			modify:  func(cfg *config.Config) { cfg.Countermeasures.WindowSeconds = -1 },
			wantErr: config.ErrInvalidWindowSeconds,
		},
		{
			name: "empty interface name",
			modify: func(cfg *config.Config) {
				cfg.Interfaces = []config.InterfaceConfig{{Name: "", Mode: "ap"}}
			},
			wantErr: config.ErrEmptyInterfaceName,
		},
		{
			name: "invalid interface mode",
			modify: func(cfg *config.Config) {
				cfg.Interfaces = []config.InterfaceConfig{{Name: "wlan0", Mode: "bridge"}}
			},
			wantErr: config.ErrInvalidInterfaceMode,
		},
		{
			name: "duplicate interface name",
			modify: func(cfg *config.Config) {
				cfg.Interfaces = []config.InterfaceConfig{
					{Name: "wlan0", Mode: "ap"},
					{Name: "wlan0", Mode: "station"},
				}
			},
			wantErr: config.ErrDuplicateInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/wlancryptd.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

// writeTemp creates a temporary YAML file and returns its path. The file is
// automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "wlancryptd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
