package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

// StoreConfig selects and tunes the document store backend.
type StoreConfig struct {
	Backend         string
	Collection      string
	FilePath        string
	SQLitePath      string
	ProjectID       string
	CredentialsFile string
	RequestTimeout  time.Duration
	ListMaxAttempts int
	MigrateLegacy   bool
}

type DataConfig struct {
	// RefreshInterval re-reads the whole collection periodically; 0 disables it.
	RefreshInterval time.Duration
	// SessionIdleTTL drops menu sessions unused for this long; 0 keeps them.
	SessionIdleTTL time.Duration
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Data   DataConfig
	Misc   MiscConfig
}

// LoadConfig reads .env, config.yaml (from CHEF_CONFIG_PATH, default ./config)
// and CHEF_* environment variables, in increasing precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnvOrDefault("CHEF_CONFIG_PATH", "./config"))

	setDefaults(v)

	// CHEF_STORE_BACKEND overrides store.backend, and so on.
	v.SetEnvPrefix("CHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logrus.WithField("component", "config").Info("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(v.GetString("store.backend")),
			Collection:      v.GetString("store.collection"),
			FilePath:        v.GetString("store.file_path"),
			SQLitePath:      v.GetString("store.sqlite_path"),
			ProjectID:       getEnvOrDefault("GOOGLE_CLOUD_PROJECT", v.GetString("store.project_id")),
			CredentialsFile: v.GetString("store.credentials_file"),
			RequestTimeout:  v.GetDuration("store.request_timeout"),
			ListMaxAttempts: v.GetInt("store.list_max_attempts"),
			MigrateLegacy:   v.GetBool("store.migrate_legacy"),
		},
		Data: DataConfig{
			RefreshInterval: v.GetDuration("data.refresh_interval"),
			SessionIdleTTL:  v.GetDuration("data.session_idle_ttl"),
		},
		Misc: MiscConfig{
			LogLevel: v.GetString("misc.log_level"),
			GinMode:  v.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := cfg.ensureDataDir(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.collection", "recipes")
	v.SetDefault("store.file_path", "./config/data/recipes.json")
	v.SetDefault("store.sqlite_path", "./config/data/recipes.db")
	v.SetDefault("store.request_timeout", 10*time.Second)
	v.SetDefault("store.list_max_attempts", 1)
	v.SetDefault("store.migrate_legacy", false)

	v.SetDefault("data.refresh_interval", 0)
	v.SetDefault("data.session_idle_ttl", 12*time.Hour)

	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.gin_mode", "release")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server read, write and idle timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.FilePath == "" {
			return errors.New("store.file_path is required for the file backend")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case BackendFirestore:
		if c.Store.ProjectID == "" {
			return errors.New("store.project_id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q (supported: %s, %s, %s, %s)",
			c.Store.Backend, BackendMemory, BackendFile, BackendSQLite, BackendFirestore)
	}

	if c.Store.Collection == "" {
		return errors.New("store.collection is required")
	}
	if c.Store.RequestTimeout < 0 {
		return errors.New("store.request_timeout must not be negative")
	}
	if c.Store.ListMaxAttempts < 1 {
		return fmt.Errorf("store.list_max_attempts must be at least 1, got %d", c.Store.ListMaxAttempts)
	}
	if c.Data.RefreshInterval < 0 {
		return errors.New("data.refresh_interval must not be negative")
	}
	if c.Data.SessionIdleTTL < 0 {
		return errors.New("data.session_idle_ttl must not be negative")
	}
	return nil
}

// ensureDataDir creates the parent directory of a local backend's data file.
func (c *Config) ensureDataDir() error {
	var path string
	switch c.Store.Backend {
	case BackendFile:
		path = c.Store.FilePath
	case BackendSQLite:
		path = c.Store.SQLitePath
	default:
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvOrViperPort(v *viper.Viper, envKey, viperKey string) (int, error) {
	if raw := os.Getenv(envKey); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", envKey, err)
		}
		return port, nil
	}
	return v.GetInt(viperKey), nil
}
