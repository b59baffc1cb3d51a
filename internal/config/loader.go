package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/cityheat/heatadmin/internal/db"
)

// Ingestion holds tunables for the ingestion pipeline.
type Ingestion struct {
	// BatchSize is the number of normalized records applied per transaction.
	BatchSize int
	// ErrorDisplayLimit caps how many row errors the summary shows.
	ErrorDisplayLimit int
}

// Config is the full application configuration.
type Config struct {
	DB        db.Config
	Ingestion Ingestion
}

// DefaultIngestion returns the ingestion defaults.
func DefaultIngestion() Ingestion {
	return Ingestion{
		BatchSize:         100,
		ErrorDisplayLimit: 20,
	}
}

// Load reads config.yaml from configPath if present, with environment
// overrides (HEATADMIN_DATABASE_HOST and friends). Missing files fall back to
// defaults so the CLI works out of the box against a local database.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB:        db.DefaultConfig(),
		Ingestion: DefaultIngestion(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("HEATADMIN")
	// Keys use dots internally; env variables use underscores
	// (database.host -> HEATADMIN_DATABASE_HOST).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("ingestion.batch_size")
	v.BindEnv("ingestion.error_display_limit")

	// Config file is optional; defaults plus env overrides are enough.
	_ = v.ReadInConfig()

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("ingestion.batch_size") {
		cfg.Ingestion.BatchSize = v.GetInt("ingestion.batch_size")
	}
	if v.IsSet("ingestion.error_display_limit") {
		cfg.Ingestion.ErrorDisplayLimit = v.GetInt("ingestion.error_display_limit")
	}

	return cfg, nil
}
