package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gear6io/oraport/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the single configuration object handed to the export entry point
type Config struct {
	Log       LogConfig    `yaml:"log"`
	Source    SourceConfig `yaml:"source"`
	Policy    PolicyConfig `yaml:"policy"`
	Worker    WorkerConfig `yaml:"worker"`
	Sink      SinkConfig   `yaml:"sink"`
	AllowList string       `yaml:"allow_list"` // optional CSV of table names
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // "json" or "console"
	FilePath   string `yaml:"file_path"`   // Path to log file
	Console    bool   `yaml:"console"`     // Whether to log to console
	MaxSize    int    `yaml:"max_size"`    // Max file size in MB
	MaxBackups int    `yaml:"max_backups"` // Max number of backup files
	MaxAge     int    `yaml:"max_age"`     // Max age in days
	Cleanup    bool   `yaml:"cleanup"`     // Whether to cleanup log file on startup
}

// SourceConfig describes the Oracle connection and the schema owner to export
type SourceConfig struct {
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	ServiceName string            `yaml:"service_name"`
	Username    string            `yaml:"username"`
	Password    string            `yaml:"password"`
	Owner       string            `yaml:"owner"`
	Options     map[string]string `yaml:"options,omitempty"` // extra go-ora URL options
}

// PolicyConfig controls how columns are projected
type PolicyConfig struct {
	Exclude             []string `yaml:"exclude"`
	NullReplacement     []string `yaml:"null_replacement"`
	CoerceNumericToText bool     `yaml:"coerce_numeric_to_text"`
	NegativeEpsilon     float64  `yaml:"negative_epsilon"`
}

// WorkerConfig bounds the export worker pool
type WorkerConfig struct {
	Count     int    `yaml:"count"` // 0 means min(NumCPU, Max)
	Max       int    `yaml:"max"`
	Isolation string `yaml:"isolation"`
}

// SinkConfig selects where exported tables are written
type SinkConfig struct {
	Type    string        `yaml:"type"`
	DuckDB  DuckDBConfig  `yaml:"duckdb"`
	Parquet ParquetConfig `yaml:"parquet"`
}

type DuckDBConfig struct {
	Path   string `yaml:"path"`
	Schema string `yaml:"schema"`
}

type ParquetConfig struct {
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			FilePath:   "oracle_export.log",
			Console:    true,
			MaxSize:    100, // 100MB
			MaxBackups: 3,
			MaxAge:     7,
			Cleanup:    false,
		},
		Source: SourceConfig{
			Port:  DEFAULT_ORACLE_PORT,
			Owner: "GISS",
		},
		Policy: PolicyConfig{
			Exclude:             []string{"SE_ANNO_CAD_DATA"},
			NullReplacement:     []string{"NR1", "KEDJAAKTIV", "HISTIMP", "NVBID"},
			CoerceNumericToText: true,
			NegativeEpsilon:     DEFAULT_EPSILON,
		},
		Worker: WorkerConfig{
			Count:     0,
			Max:       DEFAULT_MAX_WORKERS,
			Isolation: IsolationGoroutine,
		},
		Sink: SinkConfig{
			Type: SinkParquet,
			DuckDB: DuckDBConfig{
				Path:   "./oracle_giss.duckdb",
				Schema: "oracle_giss",
			},
			Parquet: ParquetConfig{
				Dir:         "./data/dlt_output/giss_all",
				Compression: "snappy",
			},
		},
	}
}

// LoadConfig loads configuration from a file. Fields missing from the file
// keep their default values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", filename)
	}

	config := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", filename)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.New(ErrConfigValidationFailed, "configuration validation failed", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err).AddContext("path", filename)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.Owner) == "" {
		return errors.New(ErrSourceOwnerRequired, "source owner is required", nil)
	}

	if err := c.Sink.Validate(); err != nil {
		return err
	}

	if err := c.Worker.Validate(); err != nil {
		return err
	}

	// A DuckDB file accepts a single writing process
	if c.Sink.Type == SinkDuckDB && c.Worker.Isolation == IsolationProcess {
		return errors.New(ErrIsolationUnsupported, "duckdb sink cannot be used with process isolation", nil).
			AddContext("sink", c.Sink.Type)
	}

	if c.Policy.NegativeEpsilon < 0 {
		return errors.New(ErrPolicyEpsilonInvalid, "negative_epsilon must be >= 0", nil).
			AddContext("negative_epsilon", fmt.Sprintf("%g", c.Policy.NegativeEpsilon))
	}

	return nil
}

// Validate validates the sink configuration
func (s *SinkConfig) Validate() error {
	switch s.Type {
	case SinkDuckDB:
		if s.DuckDB.Path == "" {
			return errors.New(ErrSinkPathRequired, "sink.duckdb.path is required", nil)
		}
	case SinkParquet:
		if s.Parquet.Dir == "" {
			return errors.New(ErrSinkPathRequired, "sink.parquet.dir is required", nil)
		}
	default:
		return errors.New(ErrSinkTypeUnsupported, "unsupported sink type", nil).AddContext("type", s.Type)
	}
	return nil
}

// Validate validates the worker configuration
func (w *WorkerConfig) Validate() error {
	if w.Max < 1 {
		return errors.New(ErrWorkerBoundsInvalid, "worker.max must be at least 1", nil).
			AddContext("max", fmt.Sprintf("%d", w.Max))
	}
	if w.Count < 0 {
		return errors.New(ErrWorkerBoundsInvalid, "worker.count must be >= 0", nil).
			AddContext("count", fmt.Sprintf("%d", w.Count))
	}

	switch w.Isolation {
	case IsolationProcess, IsolationGoroutine:
	default:
		return errors.New(ErrIsolationUnsupported, "unsupported worker isolation", nil).AddContext("isolation", w.Isolation)
	}
	return nil
}
