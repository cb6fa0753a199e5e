package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	MismatchDelete    = "delete"
	MismatchOverwrite = "overwrite"

	defaultDownloadDir    = "downloads"
	defaultManifest       = "folders.json"
	defaultEnvFile        = "local.env"
	defaultReportFile     = "report.txt"
	defaultChunkSize      = 65536
	defaultHeaderTimeout  = 30 * time.Second
	defaultReportRedisKey = "batchfetch"
)

type HTTPConfig struct {
	// Timeout bounds the whole request including the body. Zero means no limit.
	Timeout               time.Duration `yaml:"timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
}

type ReportConfig struct {
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

type Config struct {
	DownloadDir    string       `yaml:"download_dir"`
	ManifestFile   string       `yaml:"manifest"`
	EnvFile        string       `yaml:"env_file"`
	ReportFile     string       `yaml:"report_file"`
	LogLevel       string       `yaml:"log_level"`
	ChunkSize      int          `yaml:"chunk_size"`
	MismatchPolicy string       `yaml:"mismatch_policy"`
	HTTP           HTTPConfig   `yaml:"http"`
	Report         ReportConfig `yaml:"report"`

	// Credentials are loaded from EnvFile, never from the YAML file.
	Credentials *Credentials `yaml:"-"`
}

func (c *Config) SetDefaults() {
	c.DownloadDir = defaultDownloadDir
	c.ManifestFile = defaultManifest
	c.EnvFile = defaultEnvFile
	c.ReportFile = defaultReportFile
	c.LogLevel = LogLevelInfo
	c.ChunkSize = defaultChunkSize
	c.MismatchPolicy = MismatchDelete
	c.HTTP.ResponseHeaderTimeout = defaultHeaderTimeout
	c.Report.RedisKey = defaultReportRedisKey
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	switch c.MismatchPolicy {
	case MismatchDelete, MismatchOverwrite:
	default:
		return fmt.Errorf("unknown mismatch policy: %q", c.MismatchPolicy)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download dir is empty")
	}

	return nil
}

// Load reads the config file over the defaults. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
