package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/formexport/internal/db"
)

// Config is the complete service configuration.
type Config struct {
	Database  db.Config
	HTTP      HTTPConfig
	Auth      AuthConfig
	Mail      MailConfig
	Log       LogConfig
	Export    ExportConfig
	Storage   map[string]string
	Retention RetentionConfig
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      string
}

type LogConfig struct {
	Level  string
	Format string
}

type ExportConfig struct {
	// Archiver is "command" (external zip) or "native".
	Archiver   string
	ZipBinary  string
	JobTimeout time.Duration
	Timezone   string
	HandoffTTL time.Duration
}

type RetentionConfig struct {
	Schedule string
}

// Load reads config.yaml from configPath (optional), FORMEXPORT_* environment
// variables and built-in defaults, in increasing order of precedence for env.
func Load(configPath string) (Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("FORMEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // allow environment overrides

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, nil, fmt.Errorf("read config: %w", err)
		}
		slog.Info("no config.yaml found, using defaults and env vars")
	} else {
		slog.Info("loaded config", "file", v.ConfigFileUsed())
	}

	cfg, err := fromViper(v)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	dbDefaults := db.DefaultConfig()
	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("database.max_conns", 5)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")

	v.SetDefault("mail.port", 25)
	v.SetDefault("mail.from", "noreply@localhost")
	v.SetDefault("mail.tls", "opportunistic")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault(keyTmpFolderScheme, "temporary://pii_data/")
	v.SetDefault(keyTmpFilesMaxAge, 21600)
	v.SetDefault(keyUseZipPassword, true)
	v.SetDefault("export.archiver", "command")
	v.SetDefault("export.zip_binary", "zip")
	v.SetDefault("export.job_timeout", "30m")
	v.SetDefault("export.timezone", "UTC")
	v.SetDefault("export.handoff_ttl", "1h")

	v.SetDefault("retention.schedule", "@hourly")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Database: db.Config{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
			MaxConns: v.GetInt32("database.max_conns"),
		},
		HTTP: HTTPConfig{
			Addr:           v.GetString("http.addr"),
			AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Mail: MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
			TLS:      v.GetString("mail.tls"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Export: ExportConfig{
			Archiver:   v.GetString("export.archiver"),
			ZipBinary:  v.GetString("export.zip_binary"),
			JobTimeout: v.GetDuration("export.job_timeout"),
			Timezone:   v.GetString("export.timezone"),
			HandoffTTL: v.GetDuration("export.handoff_ttl"),
		},
		Storage: v.GetStringMapString("storage.schemes"),
		Retention: RetentionConfig{
			Schedule: v.GetString("retention.schedule"),
		},
	}
	if len(cfg.Storage) == 0 {
		cfg.Storage = nil
	}

	if err := checkArchiver(cfg.Export.Archiver, v.GetBool(keyUseZipPassword)); err != nil {
		return Config{}, err
	}
	if _, err := time.LoadLocation(cfg.Export.Timezone); err != nil {
		return Config{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalidSettings, cfg.Export.Timezone, err)
	}
	return cfg, nil
}

// Location returns the configured export timezone.
func (c ExportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
