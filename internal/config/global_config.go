package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/httpclient"
	"github.com/aleister1102/courier/internal/worker"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	APIConfig        APIConfig        `json:"api_config,omitempty" yaml:"api_config,omitempty"`
	HTTPClientConfig HTTPClientConfig `json:"http_client_config,omitempty" yaml:"http_client_config,omitempty"`
	WorkerConfig     WorkerConfig     `json:"worker_config,omitempty" yaml:"worker_config,omitempty"`
	CacheConfig      CacheConfig      `json:"cache_config,omitempty" yaml:"cache_config,omitempty"`
	LogConfig        LogConfig        `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

// APIConfig identifies the API endpoint and the bot credentials
type APIConfig struct {
	Token      string `json:"token,omitempty" yaml:"token,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"required,url"`
	APIVersion int    `json:"api_version,omitempty" yaml:"api_version,omitempty" validate:"apiversion"`
	UserAgent  string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// NewDefaultAPIConfig creates default API configuration
func NewDefaultAPIConfig() APIConfig {
	return APIConfig{
		BaseURL:    DefaultAPIBaseURL,
		APIVersion: DefaultAPIVersion,
		UserAgent:  DefaultAPIUserAgent,
	}
}

// HTTPClientConfig defines the transport settings used for API calls and
// remote attachment downloads
type HTTPClientConfig struct {
	TimeoutSecs        int               `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1"`
	DialTimeoutSecs    int               `json:"dial_timeout_secs,omitempty" yaml:"dial_timeout_secs,omitempty" validate:"min=1"`
	MaxIdleConns       int               `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty" validate:"min=0"`
	Proxy              string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	EnableHTTP2        bool              `json:"enable_http2" yaml:"enable_http2"`
	CustomHeaders      map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
	MaxRetries         int               `json:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
	RetryBaseMillis    int               `json:"retry_base_millis,omitempty" yaml:"retry_base_millis,omitempty" validate:"min=0"`
	RetryMaxSecs       int               `json:"retry_max_secs,omitempty" yaml:"retry_max_secs,omitempty" validate:"min=0"`
	MaxContentMiB      int               `json:"max_content_mib,omitempty" yaml:"max_content_mib,omitempty" validate:"min=0"`
}

// NewDefaultHTTPClientConfig creates default HTTP client configuration
func NewDefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		TimeoutSecs:     DefaultHTTPTimeoutSecs,
		DialTimeoutSecs: DefaultHTTPDialTimeoutSecs,
		MaxIdleConns:    DefaultHTTPMaxIdleConns,
		EnableHTTP2:     true,
		MaxRetries:      DefaultHTTPMaxRetries,
		RetryBaseMillis: DefaultHTTPRetryBaseMillis,
		RetryMaxSecs:    DefaultHTTPRetryMaxSecs,
		MaxContentMiB:   DefaultHTTPMaxContentMiB,
	}
}

// ToClientConfig converts file settings into httpclient settings. userAgent
// comes from the API section.
func (c HTTPClientConfig) ToClientConfig(userAgent string) httpclient.HTTPClientConfig {
	out := httpclient.DefaultHTTPClientConfig()
	out.Timeout = time.Duration(c.TimeoutSecs) * time.Second
	out.DialTimeout = time.Duration(c.DialTimeoutSecs) * time.Second
	out.MaxIdleConns = c.MaxIdleConns
	out.Proxy = c.Proxy
	out.InsecureSkipVerify = c.InsecureSkipVerify
	out.EnableHTTP2 = c.EnableHTTP2
	out.CustomHeaders = c.CustomHeaders
	out.MaxContentSize = c.MaxContentMiB * 1024 * 1024
	if userAgent != "" {
		out.UserAgent = userAgent
	}

	out.Retry.MaxRetries = c.MaxRetries
	out.Retry.BaseDelay = time.Duration(c.RetryBaseMillis) * time.Millisecond
	out.Retry.MaxDelay = time.Duration(c.RetryMaxSecs) * time.Second
	return out
}

// WorkerConfig sizes the pool that prepares uploads
type WorkerConfig struct {
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" validate:"min=0"`
}

// NewDefaultWorkerConfig creates default worker configuration
func NewDefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{Workers: runtime.NumCPU()}
}

// ToPoolConfig converts to worker.PoolConfig. Zero workers means one per CPU.
func (c WorkerConfig) ToPoolConfig() worker.PoolConfig {
	if c.Workers <= 0 {
		return worker.DefaultPoolConfig()
	}
	return worker.PoolConfig{Workers: c.Workers}
}

// CacheConfig controls message history. An empty SQLitePath keeps history in
// memory only.
type CacheConfig struct {
	HistorySize int    `json:"history_size,omitempty" yaml:"history_size,omitempty" validate:"min=0"`
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
}

// NewDefaultCacheConfig creates default cache configuration
func NewDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		HistorySize: DefaultCacheHistorySize,
		SQLitePath:  DefaultCacheSQLitePath,
	}
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		APIConfig:        NewDefaultAPIConfig(),
		HTTPClientConfig: NewDefaultHTTPClientConfig(),
		WorkerConfig:     NewDefaultWorkerConfig(),
		CacheConfig:      NewDefaultCacheConfig(),
		LogConfig:        NewDefaultLogConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// YAML is used for .yaml and .yml files, JSON otherwise. The token may be
// supplied through COURIER_TOKEN instead of the file.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath != "" && !fileExists(providedPath) {
		return nil, errorwrapper.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No config file found, using defaults")
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := loadConfigFileContent(filePath)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse config content")
	}

	applyEnvOverrides(cfg)
	logger.Info().Str("path", filePath).Msg("Loaded configuration")
	return cfg, nil
}

func applyEnvOverrides(cfg *GlobalConfig) {
	if token := os.Getenv(EnvAPIToken); token != "" {
		cfg.APIConfig.Token = token
	}
}

// loadConfigFileContent reads the config file, refusing oversized files
func loadConfigFileContent(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSizeMiB*1024*1024 {
		return nil, errorwrapper.NewValidationError("config_file", filePath, "config file is too large")
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
