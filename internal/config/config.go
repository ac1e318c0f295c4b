package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".motionsense/config.yaml"

// DefaultBaseURL is used when neither the config file nor the environment
// names an inference service.
const DefaultBaseURL = "http://localhost:8030"

type InferenceConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	CacheSize int    `yaml:"cache_size"`
}

type UploadConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxSizeMB         int64    `yaml:"max_size_mb"`
	ProgressInterval  string   `yaml:"progress_interval"`
	ProgressStep      int      `yaml:"progress_step"`
	ProgressCap       int      `yaml:"progress_cap"`
}

type AnalysisConfig struct {
	Recommendations []string `yaml:"recommendations"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MetricsPath string `yaml:"metrics_path"`
	CORSOrigin  string `yaml:"cors_origin"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	Upload    UploadConfig    `yaml:"upload"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// Load loads YAML config, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Inference.BaseURL == "" {
		c.Inference.BaseURL = DefaultBaseURL
	}
	if c.Inference.Timeout == "" {
		c.Inference.Timeout = "60s"
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{".txt", ".csv"}
	}
	if c.Upload.MaxSizeMB == 0 {
		c.Upload.MaxSizeMB = 50
	}
	if c.Upload.ProgressInterval == "" {
		c.Upload.ProgressInterval = "300ms"
	}
	if c.Upload.ProgressStep == 0 {
		c.Upload.ProgressStep = 10
	}
	if c.Upload.ProgressCap == 0 {
		c.Upload.ProgressCap = 90
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Inference.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("inference.base_url %q is not an absolute URL", c.Inference.BaseURL)
	}
	if _, err := c.InferenceTimeout(); err != nil {
		return err
	}
	if _, err := c.ProgressInterval(); err != nil {
		return err
	}
	if c.Inference.CacheSize < 0 {
		return errors.New("inference.cache_size cannot be negative")
	}
	if c.Upload.MaxSizeMB < 0 {
		return errors.New("upload.max_size_mb cannot be negative")
	}
	if c.Upload.ProgressStep <= 0 {
		return errors.New("upload.progress_step must be positive")
	}
	if c.Upload.ProgressCap <= 0 || c.Upload.ProgressCap >= 100 {
		return errors.New("upload.progress_cap must be between 1 and 99")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if strings.TrimSpace(ext) == "" {
			return errors.New("upload.allowed_extensions cannot contain empty entries")
		}
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be trace, debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}
	return nil
}

// InferenceTimeout bounds a single call to the inference service.
func (c *Config) InferenceTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Inference.Timeout)
	if err != nil {
		return 0, fmt.Errorf("inference.timeout: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("inference.timeout must be positive")
	}
	return d, nil
}

// ProgressInterval is the tick period of the upload progress estimator.
func (c *Config) ProgressInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Upload.ProgressInterval)
	if err != nil {
		return 0, fmt.Errorf("upload.progress_interval: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("upload.progress_interval must be positive")
	}
	return d, nil
}

// MaxSizeBytes converts upload.max_size_mb to bytes.
func (c *Config) MaxSizeBytes() int64 {
	return c.Upload.MaxSizeMB * 1024 * 1024
}

// Addr is the listen address of the HTTP service.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(c *Config) {
	setString(&c.Inference.BaseURL, "MOTIONSENSE_API_URL")
	setString(&c.Inference.Timeout, "MOTIONSENSE_INFERENCE_TIMEOUT")
	setInt(&c.Inference.CacheSize, "MOTIONSENSE_INFERENCE_CACHE_SIZE")
	setList(&c.Upload.AllowedExtensions, "MOTIONSENSE_ALLOWED_EXTENSIONS")
	setInt64(&c.Upload.MaxSizeMB, "MOTIONSENSE_MAX_SIZE_MB")
	setString(&c.Server.Host, "MOTIONSENSE_SERVER_HOST")
	setInt(&c.Server.Port, "MOTIONSENSE_SERVER_PORT")
	setString(&c.Log.Level, "MOTIONSENSE_LOG_LEVEL")
	setString(&c.Log.Format, "MOTIONSENSE_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
