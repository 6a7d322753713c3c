package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"aquaculture-platform/pkg/database"
	"aquaculture-platform/pkg/logging"
)

// Config is the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Weather  WeatherConfig  `yaml:"weather"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the analysis store
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// WeatherConfig configures the WeatherAPI.com client.
// An empty APIKey disables weather lookups.
type WeatherConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetryElapsed time.Duration `yaml:"max_retry_elapsed"`
}

// MQTTConfig configures the report publisher.
// An empty Broker disables publishing.
type MQTTConfig struct {
	Broker       string        `yaml:"broker"`
	ClientID     string        `yaml:"client_id"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	TopicReports string        `yaml:"topic_reports"`
	QoS          int           `yaml:"qos"`
	Timeout      time.Duration `yaml:"timeout"`
}

// AnalysisConfig holds request-level analysis settings
type AnalysisConfig struct {
	DefaultLocation string `yaml:"default_location"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          database.DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "aquaculture",
			SSLMode:         "disable",
			Path:            "aquaculture.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 1 * time.Minute,
		},
		Weather: WeatherConfig{
			BaseURL:         "https://api.weatherapi.com",
			Timeout:         10 * time.Second,
			MaxRetryElapsed: 15 * time.Second,
		},
		MQTT: MQTTConfig{
			ClientID:     "pond-analyzer",
			TopicReports: "aquaculture/ponds/{location}/analysis",
			QoS:          1,
			Timeout:      5 * time.Second,
		},
		Analysis: AnalysisConfig{
			DefaultLocation: "Ranipet",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig layers defaults, the YAML file named by CONFIG_FILE, a .env
// file (ENV_FILE, default ".env") and the process environment, in that
// order of increasing precedence.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays the YAML document at path onto cfg
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(dst *int, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(&c.Server.Host, "SERVER_HOST")
	integer(&c.Server.Port, "PORT")
	integer(&c.Server.Port, "SERVER_PORT")
	duration(&c.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	duration(&c.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	duration(&c.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	duration(&c.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")

	str(&c.Database.Driver, "DB_DRIVER")
	str(&c.Database.Host, "DB_HOST")
	integer(&c.Database.Port, "DB_PORT")
	str(&c.Database.User, "DB_USER")
	str(&c.Database.Password, "DB_PASSWORD")
	str(&c.Database.Database, "DB_NAME")
	str(&c.Database.SSLMode, "DB_SSLMODE")
	str(&c.Database.Path, "DB_PATH")
	integer(&c.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	integer(&c.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	duration(&c.Database.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME")
	duration(&c.Database.ConnMaxIdleTime, "DB_CONN_MAX_IDLE_TIME")
	boolean(&c.Database.AutoMigrate, "DB_AUTO_MIGRATE")

	str(&c.Weather.APIKey, "WEATHER_API_KEY")
	str(&c.Weather.BaseURL, "WEATHER_BASE_URL")
	duration(&c.Weather.Timeout, "WEATHER_TIMEOUT")
	duration(&c.Weather.MaxRetryElapsed, "WEATHER_MAX_RETRY_ELAPSED")

	str(&c.MQTT.Broker, "MQTT_BROKER")
	str(&c.MQTT.ClientID, "MQTT_CLIENT_ID")
	str(&c.MQTT.Username, "MQTT_USERNAME")
	str(&c.MQTT.Password, "MQTT_PASSWORD")
	str(&c.MQTT.TopicReports, "MQTT_TOPIC_REPORTS")
	integer(&c.MQTT.QoS, "MQTT_QOS")
	duration(&c.MQTT.Timeout, "MQTT_TIMEOUT")

	str(&c.Analysis.DefaultLocation, "DEFAULT_LOCATION")
	str(&c.Logging.Level, "LOG_LEVEL")

	return errors.Join(errs...)
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}

	switch c.Database.Driver {
	case database.DriverPostgres:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database host is required for postgres"))
		}
		if c.Database.MaxOpenConns < 1 {
			errs = append(errs, errors.New("database max_open_conns must be positive"))
		}
		if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			errs = append(errs, errors.New("database max_idle_conns must be between 0 and max_open_conns"))
		}
	case database.DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Weather.APIKey != "" && !strings.HasPrefix(c.Weather.BaseURL, "http") {
		errs = append(errs, fmt.Errorf("weather base url %q is not an http(s) url", c.Weather.BaseURL))
	}

	if c.MQTT.Broker != "" && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, fmt.Errorf("mqtt qos %d must be 0, 1 or 2", c.MQTT.QoS))
	}

	if strings.TrimSpace(c.Analysis.DefaultLocation) == "" {
		errs = append(errs, errors.New("default location is required"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed logging level
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLevel(c.Logging.Level)
}

// DatabaseConnConfig converts to the pkg/database connection settings
func (c *Config) DatabaseConnConfig() *database.Config {
	return &database.Config{
		Driver:          c.Database.Driver,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Database,
		SSLMode:         c.Database.SSLMode,
		Path:            c.Database.Path,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
	}
}

// Address is the host:port the HTTP server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
