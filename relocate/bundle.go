package relocate

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the controller configuration, loadable from a YAML file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Directory DirectoryConfig `yaml:"directory"`
	Latency   LatencyConfig   `yaml:"latency"`
	Policy    PolicyConfig    `yaml:"policy"`
	Intervals IntervalConfig  `yaml:"intervals"`
	Bulk      BulkConfig      `yaml:"bulk"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DirectoryConfig selects and locates the cluster state directory.
type DirectoryConfig struct {
	Backend string `yaml:"backend"` // "redis"
	URL     string `yaml:"url"`
}

// LatencyConfig selects and locates the latency store.
type LatencyConfig struct {
	Backend       string `yaml:"backend"` // "redis" or "nats"
	URL           string `yaml:"url"`
	Bucket        string `yaml:"bucket"`         // NATS KV bucket
	ControllerKey string `yaml:"controller_key"` // destination token for node→controller samples
}

// PolicyConfig holds relocation policy selection and parameters.
type PolicyConfig struct {
	Name             string  `yaml:"name"`
	LatencyThreshold float64 `yaml:"latency_threshold"` // ms
	NumRelocations   int     `yaml:"num_relocations"`
	SourceNode       string  `yaml:"source_node"`
	DestinationNode  string  `yaml:"destination_node"`
}

// IntervalConfig holds per-mode polling intervals in milliseconds.
type IntervalConfig struct {
	RelocationMs int64 `yaml:"relocation_ms"`
	MonitorMs    int64 `yaml:"monitor_ms"`
}

// Relocation returns the migrate-mode sleep.
func (c IntervalConfig) Relocation() time.Duration {
	return time.Duration(c.RelocationMs) * time.Millisecond
}

// Monitor returns the monitor-mode sleep.
func (c IntervalConfig) Monitor() time.Duration {
	return time.Duration(c.MonitorMs) * time.Millisecond
}

// BulkConfig configures the bulk-move escape hatch.
type BulkConfig struct {
	Executable      string   `yaml:"executable"`
	Args            []string `yaml:"args"` // inserted before "migrate"
	DestinationNode string   `yaml:"destination_node"`
	TimeoutMs       int64    `yaml:"timeout_ms"` // per command; 0 = no timeout
}

// MetricsConfig selects where controller metrics are reported.
type MetricsConfig struct {
	Prometheus      PrometheusConfig `yaml:"prometheus"`
	FlushIntervalMs int64            `yaml:"flush_interval_ms"`
}

// PrometheusConfig enables the /metrics scrape endpoint.
type PrometheusConfig struct {
	Enable        bool   `yaml:"enable"`
	ListenAddress string `yaml:"listen_address"`
}

// FlushInterval returns how often the root scope reports.
func (c MetricsConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// Backend names.
const (
	BackendRedis = "redis"
	BackendNATS  = "nats"
)

// ValidDirectoryBackends is the set of recognized directory backends.
var ValidDirectoryBackends = map[string]bool{BackendRedis: true}

// ValidLatencyBackends is the set of recognized latency store backends.
var ValidLatencyBackends = map[string]bool{BackendRedis: true, BackendNATS: true}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Directory: DirectoryConfig{
			Backend: BackendRedis,
			URL:     "redis://localhost:6379",
		},
		Latency: LatencyConfig{
			Backend:       BackendRedis,
			URL:           "redis://localhost:6379",
			Bucket:        "latency",
			ControllerKey: ControllerEndpoint,
		},
		Policy: PolicyConfig{
			Name:             PolicyClosest,
			LatencyThreshold: 100,
			NumRelocations:   1,
		},
		Intervals: IntervalConfig{
			RelocationMs: 5000,
			MonitorMs:    2000,
		},
		Bulk: BulkConfig{
			Executable: "proxy_cli",
			Args:       []string{"intent"},
		},
		Metrics: MetricsConfig{
			Prometheus:      PrometheusConfig{ListenAddress: ":9464"},
			FlushIntervalMs: 1000,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// Unknown fields are rejected so that typos surface as errors.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks names and parameter ranges.
func (c *Config) Validate() error {
	if !ValidDirectoryBackends[c.Directory.Backend] {
		return fmt.Errorf("unknown directory backend %q", c.Directory.Backend)
	}
	if !ValidLatencyBackends[c.Latency.Backend] {
		return fmt.Errorf("unknown latency backend %q", c.Latency.Backend)
	}
	if c.Latency.ControllerKey == "" {
		return fmt.Errorf("latency controller_key must not be empty")
	}
	if c.Latency.Backend == BackendNATS && c.Latency.Bucket == "" {
		return fmt.Errorf("latency bucket is required for the nats backend")
	}
	if !IsValidPolicy(c.Policy.Name) {
		return fmt.Errorf("unknown policy %q", c.Policy.Name)
	}
	if c.Policy.LatencyThreshold < 0 {
		return fmt.Errorf("latency_threshold must be non-negative, got %f", c.Policy.LatencyThreshold)
	}
	if c.Policy.NumRelocations < 0 {
		return fmt.Errorf("num_relocations must be non-negative, got %d", c.Policy.NumRelocations)
	}
	if c.Policy.Name == PolicyThreshold {
		if c.Policy.SourceNode == "" || c.Policy.DestinationNode == "" {
			return fmt.Errorf("threshold policy requires source_node and destination_node")
		}
		if c.Policy.SourceNode == c.Policy.DestinationNode {
			return fmt.Errorf("threshold policy source and destination must differ, got %q", c.Policy.SourceNode)
		}
	}
	if c.Intervals.RelocationMs <= 0 {
		return fmt.Errorf("relocation_ms must be positive, got %d", c.Intervals.RelocationMs)
	}
	if c.Intervals.MonitorMs <= 0 {
		return fmt.Errorf("monitor_ms must be positive, got %d", c.Intervals.MonitorMs)
	}
	if c.Policy.Name == PolicyBulk && c.Bulk.Executable == "" {
		return fmt.Errorf("bulk policy requires an executable")
	}
	if c.Bulk.TimeoutMs < 0 {
		return fmt.Errorf("bulk timeout_ms must be non-negative, got %d", c.Bulk.TimeoutMs)
	}
	if c.Metrics.FlushIntervalMs <= 0 {
		return fmt.Errorf("metrics flush_interval_ms must be positive, got %d", c.Metrics.FlushIntervalMs)
	}
	if c.Metrics.Prometheus.Enable && c.Metrics.Prometheus.ListenAddress == "" {
		return fmt.Errorf("metrics prometheus listen_address is required when enabled")
	}
	return nil
}
