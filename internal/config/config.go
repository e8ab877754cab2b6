package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported store drivers.
const (
	DriverMemory    = "memory"
	DriverMongoDB   = "mongodb"
	DriverFirestore = "firestore"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Firebase  FirebaseConfig
	Sheets    SheetsConfig
	Geo       GeoConfig
	Views     ViewsConfig
	Notify    NotifyConfig
	WhatsApp  WhatsAppConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// StoreConfig selects the realtime document store backend.
type StoreConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI          string
	DBName       string
	PollInterval time.Duration
}

// FirebaseConfig holds settings shared by the Firestore store and FCM.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

// SheetsConfig contains configuration required to read curated spots from Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// Enabled reports whether a curation spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// GeoConfig holds the geolocation collaborator and GPS policy settings.
type GeoConfig struct {
	Timeout         time.Duration
	ThresholdMeters float64
	Strict          bool
	IPLookupURL     string
}

// ViewsConfig tunes the live view builder.
type ViewsConfig struct {
	FallbackAfter time.Duration
}

// NotifyConfig toggles the push collaborators for urgent aid requests.
type NotifyConfig struct {
	FCMTopic string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API coordinator alerts.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	CoordinatorID string
	VerifyToken   string
}

// Enabled reports whether WhatsApp alerts are configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.CoordinatorID != ""
}

// SchedulerConfig holds cron-related settings.
type SchedulerConfig struct {
	Timezone     string
	RolloverCron string
	CurationCron string
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
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: getenvWithDefault("STORE_DRIVER", DriverMemory),
		},
		MongoDB: MongoDBConfig{
			URI:          getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName:       getenvWithDefault("MONGODB_DB_NAME", "iftarmap"),
			PollInterval: getenvDuration("MONGODB_POLL_INTERVAL", 3*time.Second),
		},
		Firebase: FirebaseConfig{
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("CURATION_SHEET_ID"),
			Range:           getenvWithDefault("CURATION_SHEET_RANGE", "Spots!A2:J"),
		},
		Geo: GeoConfig{
			Timeout:         getenvDuration("GEOLOCATION_TIMEOUT", 10*time.Second),
			ThresholdMeters: getenvFloat("GPS_THRESHOLD_METERS", 500),
			Strict:          getenvBool("GPS_STRICT", false),
			IPLookupURL:     getenvWithDefault("IP_LOOKUP_URL", "http://ip-api.com"),
		},
		Views: ViewsConfig{
			FallbackAfter: getenvDuration("VIEW_FALLBACK_AFTER", 5*time.Second),
		},
		Notify: NotifyConfig{
			FCMTopic: os.Getenv("FCM_HELP_TOPIC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			CoordinatorID: os.Getenv("WHATSAPP_COORDINATOR_ID"),
			VerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		},
		Scheduler: SchedulerConfig{
			Timezone:     os.Getenv("LOCAL_TIMEZONE"),
			RolloverCron: getenvWithDefault("ROLLOVER_CRON", "1 0 0 * * *"),
			CurationCron: os.Getenv("CURATION_CRON"),
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
	case DriverMemory:
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case DriverFirestore:
		if c.Firebase.ProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID must be provided")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Notify.FCMTopic != "" && c.Firebase.ProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID must be provided when FCM_HELP_TOPIC is set")
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when CURATION_SHEET_ID is set")
	}

	if c.Geo.Timeout <= 0 {
		return errors.New("GEOLOCATION_TIMEOUT must be positive")
	}

	if c.Views.FallbackAfter <= 0 {
		return errors.New("VIEW_FALLBACK_AFTER must be positive")
	}

	if c.Scheduler.RolloverCron == "" {
		return errors.New("ROLLOVER_CRON must be provided")
	}

	if c.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("invalid LOCAL_TIMEZONE %q: %w", c.Scheduler.Timezone, err)
		}
	}

	return nil
}

// Location resolves the device-local timezone used for the reset countdown.
func (c SchedulerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
