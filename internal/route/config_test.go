package route

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") returned error: %v", err)
	}

	if cfg.Topology.NodeCount != 10 {
		t.Errorf("NodeCount = %d, want 10", cfg.Topology.NodeCount)
	}
	if cfg.Topology.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %v, want %v", cfg.Topology.Threshold, DefaultThreshold)
	}
	if cfg.Server.GRPCAddr != ":5001" {
		t.Errorf("GRPCAddr = %q, want \":5001\"", cfg.Server.GRPCAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, "georoute.toml", `
[log]
level = "debug"

[topology]
node_count = 40
threshold = 120.5
seed = 9

[simulation]
flows = 25
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Topology.NodeCount != 40 || cfg.Topology.Threshold != 120.5 || cfg.Topology.Seed != 9 {
		t.Errorf("topology = %+v, want 40 nodes, threshold 120.5, seed 9", cfg.Topology)
	}
	if cfg.Simulation.Flows != 25 {
		t.Errorf("Flows = %d, want 25", cfg.Simulation.Flows)
	}
	// 未出现的字段保留默认值
	if cfg.Topology.Width != DefaultAreaWidth || cfg.Simulation.CacheSize != 256 {
		t.Errorf("unset fields lost defaults: width %v cache %d", cfg.Topology.Width, cfg.Simulation.CacheSize)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "georoute.yaml", `
topology:
  node_count: 15
  width: 900
  height: 300
server:
  serve: true
  grpc_addr: "127.0.0.1:7000"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Topology.NodeCount != 15 || cfg.Topology.Width != 900 || cfg.Topology.Height != 300 {
		t.Errorf("topology = %+v, want 15 nodes in 900x300", cfg.Topology)
	}
	if !cfg.Server.Serve || cfg.Server.GRPCAddr != "127.0.0.1:7000" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Topology.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %v, want default %v", cfg.Topology.Threshold, DefaultThreshold)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}

	path := writeConfig(t, "broken.toml", "[topology\nnode_count = ")
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed TOML should fail")
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("GEOROUTE_NODE_COUNT", "77")
	t.Setenv("GEOROUTE_THRESHOLD", "42")
	t.Setenv("GEOROUTE_SEED", "5")
	t.Setenv("GEOROUTE_LOG_LEVEL", "warn")
	t.Setenv("GEOROUTE_GRPC_ADDR", "127.0.0.1:0")

	path := writeConfig(t, "georoute.toml", "[topology]\nnode_count = 3\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}

	if cfg.Topology.NodeCount != 77 {
		t.Errorf("NodeCount = %d, want env override 77", cfg.Topology.NodeCount)
	}
	if cfg.Topology.Threshold != 42 || cfg.Topology.Seed != 5 {
		t.Errorf("threshold %v seed %d, want 42 and 5", cfg.Topology.Threshold, cfg.Topology.Seed)
	}
	if cfg.Log.Level != "warn" || cfg.Server.GRPCAddr != "127.0.0.1:0" {
		t.Errorf("level %q addr %q", cfg.Log.Level, cfg.Server.GRPCAddr)
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("GEOROUTE_NODE_COUNT", "many")
	t.Setenv("GEOROUTE_THRESHOLD", "far")

	_, err := LoadConfig("")
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("LoadConfig() error = %v, want *multierror.Error", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(merr.Errors), err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology.NodeCount = 0
	cfg.Topology.Width = 50
	cfg.Topology.Threshold = -1
	cfg.Log.Output = "syslog"
	cfg.Simulation.Workers = 0

	err := cfg.Validate()
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("Validate() error = %v, want *multierror.Error", err)
	}
	if len(merr.Errors) != 5 {
		t.Errorf("got %d errors, want 5: %v", len(merr.Errors), err)
	}
	for _, want := range []error{ErrInvalidNodeCount, ErrInvalidBounds, ErrInvalidThreshold} {
		if !errors.Is(err, want) {
			t.Errorf("Validate() error does not wrap %v", want)
		}
	}
}

func TestValidateServeRequiresAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Serve = true
	cfg.Server.GRPCAddr = ""

	if err := cfg.Validate(); err == nil {
		t.Error("serving without a gRPC address should fail validation")
	}
}

func TestNewLoggerFile(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := NewLogger(LogConfig{Output: "file", LogDir: dir, Level: "info"}, "run-1")
	if err != nil {
		t.Fatalf("NewLogger() returned error: %v", err)
	}
	logger.Info().Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run-1.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestNewLoggerKeepsGlobalTimeFormat(t *testing.T) {
	saved := zerolog.TimeFieldFormat
	t.Cleanup(func() { zerolog.TimeFieldFormat = saved })

	zerolog.TimeFieldFormat = time.RFC3339
	if _, _, err := NewLogger(LogConfig{Output: "stdout", Level: "disabled"}, "run-2"); err != nil {
		t.Fatalf("NewLogger() returned error: %v", err)
	}
	if zerolog.TimeFieldFormat != time.RFC3339 {
		t.Errorf("TimeFieldFormat = %q, want %q", zerolog.TimeFieldFormat, time.RFC3339)
	}
}
