package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from CURBSIDE_-prefixed environment variables, with a
// .env file loaded first when present.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"curbside.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Timezone for calendar-date reminder comparisons, e.g. "America/Chicago".
	// Empty means the host's local zone.
	Timezone string `envconfig:"TIMEZONE"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	PushSubscriber  string `envconfig:"PUSH_SUBSCRIBER"`

	AssistantAPIKey string `envconfig:"ASSISTANT_API_KEY"`
	AssistantModel  string `envconfig:"ASSISTANT_MODEL"`

	GeocodeAPIKey string `envconfig:"GEOCODE_API_KEY"`

	BackupEndpoint   string        `envconfig:"BACKUP_S3_ENDPOINT"`
	BackupBucket     string        `envconfig:"BACKUP_S3_BUCKET"`
	BackupRegion     string        `envconfig:"BACKUP_S3_REGION" default:"auto"`
	BackupAccessKey  string        `envconfig:"BACKUP_S3_ACCESS_KEY"`
	BackupSecretKey  string        `envconfig:"BACKUP_S3_SECRET_KEY"`
	BackupPassphrase string        `envconfig:"BACKUP_PASSPHRASE"`
	BackupInterval   time.Duration `envconfig:"BACKUP_INTERVAL" default:"24h"`
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("curbside", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
