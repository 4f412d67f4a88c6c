package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Payroll  PayrollConfig  `mapstructure:"payroll"`
	Events   EventsConfig   `mapstructure:"events"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port    int    `mapstructure:"port"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string        `mapstructure:"secret"`
	AccessExpiration time.Duration `mapstructure:"access_expiration"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type PayrollConfig struct {
	// StaleRunAfter is how long a run may stay in processing before the reaper fails it.
	StaleRunAfter  time.Duration `mapstructure:"stale_run_after"`
	ReaperInterval time.Duration `mapstructure:"reaper_interval"`
}

// EventsConfig configures run lifecycle publishing. An empty queue URL disables it.
type EventsConfig struct {
	QueueURL string `mapstructure:"queue_url"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// envAliases keeps the flat variable names used by existing deployments.
var envAliases = map[string]string{
	"app.port":          "APP_PORT",
	"app.env":           "APP_ENV",
	"log.level":         "LOG_LEVEL",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.ssl_mode": "DB_SSL_MODE",
	"jwt.secret":        "JWT_SECRET_KEY",
}

// Load reads .env, an optional config.yaml and the environment, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	setDefaults(v)

	// Read config file (optional)
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "contractor")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_expiration", "1h")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("payroll.stale_run_after", "30m")
	v.SetDefault("payroll.reaper_interval", "5m")
	v.SetDefault("events.queue_url", "")
	v.SetDefault("events.region", "us-east-1")
	v.SetDefault("events.endpoint", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return eris.New("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return eris.New("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return eris.New("jwt.access_expiration must be positive")
	}
	if c.Payroll.StaleRunAfter <= 0 || c.Payroll.ReaperInterval <= 0 {
		return eris.New("payroll.stale_run_after and payroll.reaper_interval must be positive")
	}
	if c.Events.QueueURL != "" && c.Events.Region == "" {
		return eris.New("events.region is required when events.queue_url is set")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
