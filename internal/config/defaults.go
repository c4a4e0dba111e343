package config

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".fee.yml"

// DefaultUploadExcludes are glob patterns skipped by bulk uploads.
var DefaultUploadExcludes = []string{
	".git/**",
	"node_modules/**",
	"**/.*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIURL:                "http://localhost:8000/api",
		FileHost:              "http://localhost:8000",
		Port:                  3000,
		DataDir:               ".fee",
		SessionStore:          SessionStoreSQLite,
		SessionIdleMinutes:    30,
		SessionRetentionHours: 24 * 7,
		RequestTimeoutSeconds: 60,
		HistoryPageSize:       20,
		PDFJSVersion:          "3.4.120",
		Log: LogConfig{
			Level: "info",
		},
		Upload: UploadConfig{
			Exclude:     DefaultUploadExcludes,
			Concurrency: 2,
		},
	}
}
