package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/derivable/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "derivable.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	// It is used when ConfigFileName does not exist.
	YAMLConfigFileName = "derivable.yaml"

	// DefaultPort is the default inspector port.
	DefaultPort = 7070

	// DefaultHost is the default inspector host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "derivable"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "derivable"
)

// Span exporters.
const (
	ExporterStdout = "stdout"
	ExporterGlobal = "global"
)

// Config represents the complete derivable configuration file.
type Config struct {
	// Inspector contains the inspector server configuration.
	Inspector InspectorConfig `json:"inspector" yaml:"inspector"`

	// Runtime contains engine settings.
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Seed is an optional YAML or JSON file mapping atom names to their
	// initial values.
	Seed string `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// RuntimeConfig contains engine settings.
type RuntimeConfig struct {
	// Debug enables creation-site capture and debug logging.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json (default: text).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled installs the metrics collector and serves /metrics.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs the transaction tracer.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TracerName is the tracer name.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`

	// Exporter is stdout to print finished spans to stderr, or global to
	// hand spans to the process-wide OpenTelemetry provider.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Inspector: InspectorConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
			Exporter:   ExporterStdout,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// derivable.json first and derivable.yaml second.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if yamlPath := filepath.Join(dir, YAMLConfigFileName); fileExists(yamlPath) {
			path = yamlPath
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R100").
				WithDetail("No config file found at " + path)
		}
		return nil, errors.New("R101").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("R101").
			WithDetail("Failed to parse " + filepath.Base(path) + ".").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML if the
// path ends in .yaml or .yml and as indented JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("R101").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Inspector.Host == "" {
		c.Inspector.Host = DefaultHost
	}
	if c.Inspector.Port == 0 {
		c.Inspector.Port = DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = ExporterStdout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Inspector.Port < 0 || c.Inspector.Port > 65535 {
		return errors.New("R102").
			WithDetail("inspector.port must be between 0 and 65535")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("R102").
			WithDetail("log.format must be text or json, got " + strconv.Quote(c.Log.Format))
	}
	switch c.Tracing.Exporter {
	case ExporterStdout, ExporterGlobal:
	default:
		return errors.New("R102").
			WithDetail("tracing.exporter must be stdout or global, got " + strconv.Quote(c.Tracing.Exporter))
	}
	return nil
}

// InspectorAddress returns the listen address of the inspector.
func (c *Config) InspectorAddress() string {
	return net.JoinHostPort(c.Inspector.Host, strconv.Itoa(c.Inspector.Port))
}

// SeedPath returns the seed file path resolved against the config
// directory, or "" if no seed file is configured.
func (c *Config) SeedPath() string {
	if c.Inspector.Seed == "" || filepath.IsAbs(c.Inspector.Seed) {
		return c.Inspector.Seed
	}
	return filepath.Join(c.Dir(), c.Inspector.Seed)
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("R102").
			WithDetail("log.level must be debug, info, warn or error, got " + strconv.Quote(s))
	}
	return level, nil
}

// NewLogger builds a logger writing to w according to the log settings.
// Invalid settings fall back to info level and text format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, ConfigFileName)) ||
		fileExists(filepath.Join(dir, YAMLConfigFileName))
}

// FindRoot walks up directories to find the one holding a config file.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R100").
				WithDetail("No derivable.json or derivable.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or its nearest parent holding a config file. If none exists
// it returns the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindRoot(wd)
	if err != nil {
		if errors.Is(err, "R100") {
			return New(), nil
		}
		return nil, err
	}

	return Load(root)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
