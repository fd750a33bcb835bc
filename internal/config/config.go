package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Connect ConnectConfig `yaml:"connect" mapstructure:"connect"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the PostGIS connection. DatabaseURL, when set,
// takes precedence over the individual fields.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	Name        string `yaml:"name" mapstructure:"name"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ConnectConfig bounds the connect retry while the store starts up.
type ConnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Delay       time.Duration `yaml:"delay" mapstructure:"delay"`
}

// IngestConfig controls the archive walk.
type IngestConfig struct {
	RootDir      string        `yaml:"root_dir" mapstructure:"root_dir"`
	Table        string        `yaml:"table" mapstructure:"table"`
	TableMode    string        `yaml:"table_mode" mapstructure:"table_mode"`
	EntryFilter  string        `yaml:"entry_filter" mapstructure:"entry_filter"`
	EnsureSchema bool          `yaml:"ensure_schema" mapstructure:"ensure_schema"`
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	EntryTimeout time.Duration `yaml:"entry_timeout" mapstructure:"entry_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GPSINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.database_url", "")
	v.SetDefault("store.host", "postgis")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.name", "busdata")
	v.SetDefault("store.user", "user")
	v.SetDefault("store.password", "pass")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("connect.max_attempts", 10)
	v.SetDefault("connect.delay", 3*time.Second)
	v.SetDefault("ingest.root_dir", "/app/dados/gps")
	v.SetDefault("ingest.table", "gps_data")
	v.SetDefault("ingest.table_mode", "shared")
	v.SetDefault("ingest.entry_filter", "hourly")
	v.SetDefault("ingest.ensure_schema", true)
	v.SetDefault("ingest.workers", 1)
	v.SetDefault("ingest.entry_timeout", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for values the run cannot start with.
// All problems are reported together.
func (c *Config) Validate() error {
	var missing []string

	if c.Store.DatabaseURL == "" {
		if c.Store.Host == "" {
			missing = append(missing, "store.host is required")
		}
		if c.Store.Name == "" {
			missing = append(missing, "store.name is required")
		}
		if c.Store.Port < 1 || c.Store.Port > 65535 {
			missing = append(missing, fmt.Sprintf("store.port must be between 1 and 65535 (got %d)", c.Store.Port))
		}
	}
	if c.Connect.MaxAttempts < 1 {
		missing = append(missing, fmt.Sprintf("connect.max_attempts must be at least 1 (got %d)", c.Connect.MaxAttempts))
	}
	if c.Connect.Delay < 0 {
		missing = append(missing, "connect.delay must not be negative")
	}
	if c.Ingest.RootDir == "" {
		missing = append(missing, "ingest.root_dir is required")
	}
	switch c.Ingest.TableMode {
	case "shared":
		if c.Ingest.Table == "" {
			missing = append(missing, "ingest.table is required in shared mode")
		}
	case "per_archive":
	default:
		missing = append(missing, fmt.Sprintf("ingest.table_mode must be shared or per_archive (got %q)", c.Ingest.TableMode))
	}
	switch c.Ingest.EntryFilter {
	case "hourly", "any":
	default:
		missing = append(missing, fmt.Sprintf("ingest.entry_filter must be hourly or any (got %q)", c.Ingest.EntryFilter))
	}
	if c.Ingest.Workers < 1 {
		missing = append(missing, fmt.Sprintf("ingest.workers must be at least 1 (got %d)", c.Ingest.Workers))
	}
	if c.Ingest.EntryTimeout < 0 {
		missing = append(missing, "ingest.entry_timeout must not be negative")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// DSN returns the connection string for the store.
func (s StoreConfig) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.User, s.Password),
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   "/" + s.Name,
	}
	return u.String()
}

// InitLogger configures the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
