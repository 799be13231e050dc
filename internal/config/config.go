package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron"
)

type Config struct {
	// HTTP Server
	Port string

	// Wallet API
	WalletAPIURL     string
	WalletAPIToken   string // service token used by the report worker
	WalletTimeout    time.Duration
	WalletPageLimit  int
	FetchConcurrency int

	// Report archive
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleReportSheetName string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Scheduled reports
	ReportSchedule       string
	ReportTrailingMonths int
	ReportBusinessIDs    []string

	// Screen cache
	ScreenCacheSize int
	ScreenCacheTTL  time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		WalletAPIURL:     getEnv("WALLET_API_URL", "http://localhost:3000/api"),
		WalletAPIToken:   getEnv("WALLET_API_TOKEN", ""),
		WalletTimeout:    getEnvDuration("WALLET_TIMEOUT", 15*time.Second),
		WalletPageLimit:  getEnvInt("WALLET_PAGE_LIMIT", 100),
		FetchConcurrency: getEnvInt("WALLET_FETCH_CONCURRENCY", 4),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/komoralink.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "komoralink"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_requests"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheetName: getEnv("GOOGLE_REPORT_SHEET_NAME", "Rapports"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		ReportSchedule:       getEnv("REPORT_SCHEDULE", ""),
		ReportTrailingMonths: getEnvInt("REPORT_TRAILING_MONTHS", 12),
		ReportBusinessIDs:    getEnvList("REPORT_BUSINESS_IDS"),

		ScreenCacheSize: getEnvInt("SCREEN_CACHE_SIZE", 500),
		ScreenCacheTTL:  getEnvDuration("SCREEN_CACHE_TTL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// SheetsExportEnabled reports whether reports are appended to a spreadsheet.
func (c *Config) SheetsExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate wallet API
	if c.WalletAPIURL == "" {
		errors = append(errors, "wallet API URL cannot be empty")
	} else if u, err := url.Parse(c.WalletAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid wallet API URL '%s': must be an absolute http(s) URL", c.WalletAPIURL))
	}
	if c.WalletTimeout < time.Second || c.WalletTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid wallet timeout %v: must be between 1s and 5m", c.WalletTimeout))
	}
	if c.WalletPageLimit < 1 || c.WalletPageLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid wallet page limit %d: must be between 1 and 1000", c.WalletPageLimit))
	}
	if c.FetchConcurrency < 1 || c.FetchConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid fetch concurrency %d: must be between 1 and 32", c.FetchConcurrency))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets export
	if c.SheetsExportEnabled() {
		if c.GoogleReportSheetName == "" {
			errors = append(errors, "Google report sheet name is required when a spreadsheet ID is set")
		}
		hasFile := c.GoogleCredentialsFile != ""
		if !hasFile && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// Validate report schedule
	if c.ReportSchedule != "" {
		if _, err := cron.Parse(c.ReportSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid report schedule '%s': %v", c.ReportSchedule, err))
		}
		if len(c.ReportBusinessIDs) == 0 {
			errors = append(errors, "REPORT_BUSINESS_IDS cannot be empty when REPORT_SCHEDULE is set")
		}
		if c.WalletAPIToken == "" {
			errors = append(errors, "WALLET_API_TOKEN is required when REPORT_SCHEDULE is set")
		}
	}
	if c.ReportTrailingMonths < 1 || c.ReportTrailingMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid report trailing months %d: must be between 1 and 120", c.ReportTrailingMonths))
	}

	// Validate screen cache
	if c.ScreenCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid screen cache size %d: must be at least 1", c.ScreenCacheSize))
	}
	if c.ScreenCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid screen cache TTL %v: must be at least 1 second", c.ScreenCacheTTL))
	}

	// Validate logging
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
