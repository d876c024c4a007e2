package config

const (
	// API Defaults
	DefaultAPIBaseURL    = "https://discord.com/api"
	DefaultAPIVersion    = 10
	MinSupportedAPIVer   = 6
	MaxSupportedAPIVer   = 10
	DefaultAPIUserAgent  = "courier (https://github.com/aleister1102/courier, 1.0)"
	EnvConfigPath        = "COURIER_CONFIG_PATH"
	EnvAPIToken          = "COURIER_TOKEN"
	maxConfigFileSizeMiB = 10

	// HTTP Client Defaults
	DefaultHTTPTimeoutSecs     = 30
	DefaultHTTPDialTimeoutSecs = 10
	DefaultHTTPMaxIdleConns    = 100
	DefaultHTTPMaxRetries      = 3
	DefaultHTTPRetryBaseMillis = 500
	DefaultHTTPRetryMaxSecs    = 10
	DefaultHTTPMaxContentMiB   = 25

	// Cache Defaults
	DefaultCacheHistorySize = 50
	DefaultCacheSQLitePath  = "database/courier/messages.db"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3
)
