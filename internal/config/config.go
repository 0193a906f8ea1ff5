package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers supported by the document store adapter.
const (
	StoreDriverMongoDB = "mongodb"
	StoreDriverMemory  = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Analytics AnalyticsConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port              string
	DashboardCacheTTL time.Duration
}

// LoggerConfig selects level and encoding for the zap logger.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver       string
	MaxBatchSize int
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI        string
	DBName     string
	Collection string
}

// AnalyticsConfig holds the tunable constants of the analytics engine.
type AnalyticsConfig struct {
	Concurrency         int
	StatsMaxAge         time.Duration
	TrendThresholdPct   float64
	MinEfficiency       float64
	MinMonthlyFrequency float64
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	StatsRefreshCron string
	DigestCron       string
	Timezone         string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API used to
// deliver the weekly digest. Delivery is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken     string
	PhoneNumberID   string
	BaseURL         string
	APIVersion      string
	DigestRecipient string
}

// Enabled reports whether digest delivery is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.DigestRecipient != ""
}

// SheetsConfig contains configuration required to export dashboard rows to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ExportRange     string
}

// Enabled reports whether the sheet export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              getenvWithDefault("APP_PORT", "8080"),
			DashboardCacheTTL: getDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getenvWithDefault("LOG_LEVEL", "info"),
			Encoding: getenvWithDefault("LOG_ENCODING", "json"),
		},
		Store: StoreConfig{
			Driver:       getenvWithDefault("STORE_DRIVER", StoreDriverMongoDB),
			MaxBatchSize: getInt("STORE_MAX_BATCH_SIZE", 500),
		},
		MongoDB: MongoDBConfig{
			URI:        getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName:     getenvWithDefault("MONGODB_DB_NAME", "agrotrack"),
			Collection: getenvWithDefault("MONGODB_COLLECTION", "documents"),
		},
		Analytics: AnalyticsConfig{
			Concurrency:         getInt("ANALYTICS_CONCURRENCY", 8),
			StatsMaxAge:         getDuration("STATS_MAX_AGE", 6*time.Hour),
			TrendThresholdPct:   getFloat("TREND_CHANGE_THRESHOLD_PCT", 5),
			MinEfficiency:       getFloat("REC_MIN_EFFICIENCY", 0.5),
			MinMonthlyFrequency: getFloat("REC_MIN_MONTHLY_FREQUENCY", 2),
		},
		Reporting: ReportingConfig{
			StatsRefreshCron: getenvWithDefault("STATS_REFRESH_CRON", "0 2 * * *"),
			DigestCron:       getenvWithDefault("DIGEST_CRON", "0 20 * * 5"),
			Timezone:         getenvWithDefault("TIMEZONE", "UTC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			DigestRecipient: os.Getenv("WHATSAPP_DIGEST_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ExportRange:     getenvWithDefault("SHEETS_EXPORT_RANGE", "Esquejes!A:E"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case StoreDriverMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
		if c.MongoDB.Collection == "" {
			return errors.New("MONGODB_COLLECTION must not be empty")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Store.MaxBatchSize <= 0 {
		return errors.New("STORE_MAX_BATCH_SIZE must be positive")
	}

	if c.Analytics.Concurrency <= 0 {
		return errors.New("ANALYTICS_CONCURRENCY must be positive")
	}

	switch {
	case c.Analytics.StatsMaxAge < 0:
		return errors.New("STATS_MAX_AGE must not be negative")
	case c.Analytics.TrendThresholdPct < 0:
		return errors.New("TREND_CHANGE_THRESHOLD_PCT must not be negative")
	case c.Analytics.MinEfficiency < 0:
		return errors.New("REC_MIN_EFFICIENCY must not be negative")
	case c.Analytics.MinMonthlyFrequency < 0:
		return errors.New("REC_MIN_MONTHLY_FREQUENCY must not be negative")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
