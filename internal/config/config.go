// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/usestring/schemainfer/pkg/ndjson"
)

// Ingestion defaults
const (
	DefaultIdentifierField = "_id"
	DefaultWorkers         = 1
	DefaultSummaryCacheMax = 64
	DefaultMaxErrorsValue  = 20
)

// Config holds all configuration for the CLI and the MCP server.
type Config struct {
	IdentifierField string // IDENTIFIER_FIELD, default "_id"
	IngestWorkers   int    // INGEST_WORKERS, default 1 (sequential)
	MaxLineBytes    int    // MAX_LINE_BYTES, default 16MiB
	OutputFormat    string // OUTPUT_FORMAT, default "json"
	OutputDir       string // OUTPUT_DIR, default "" (stdout)

	SummaryCacheMaxItems int // SUMMARY_CACHE_MAX_ITEMS, default 64
	MaxValidationErrors  int // MAX_VALIDATION_ERRORS, default 20

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		IdentifierField: getEnvString("IDENTIFIER_FIELD", DefaultIdentifierField),
		IngestWorkers:   getEnvInt("INGEST_WORKERS", DefaultWorkers),
		MaxLineBytes:    getEnvInt("MAX_LINE_BYTES", ndjson.DefaultMaxLineBytes),
		OutputFormat:    getEnvString("OUTPUT_FORMAT", "json"),
		OutputDir:       getEnvString("OUTPUT_DIR", ""),

		SummaryCacheMaxItems: getEnvInt("SUMMARY_CACHE_MAX_ITEMS", DefaultSummaryCacheMax),
		MaxValidationErrors:  getEnvInt("MAX_VALIDATION_ERRORS", DefaultMaxErrorsValue),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
