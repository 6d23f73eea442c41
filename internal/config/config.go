// Package config - конфигурация сервиса.
//
// Использует Viper для:
// - Загрузки из YAML файлов
// - Переменных окружения (префикс GINCORE_, точки заменяются на "_")
// - Значений по умолчанию
//
// .env файл подхватывается через godotenv до чтения окружения.
//
// Порядок приоритета (от высшего к низшему):
// 1. Environment variables
// 2. Config file
// 3. Default values
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix - префикс переменных окружения.
const EnvPrefix = "GINCORE"

// Config - главная структура конфигурации приложения.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Guard       GuardConfig       `mapstructure:"guard"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Compression CompressionConfig `mapstructure:"compression"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// AppConfig - конфигурация приложения.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	BuildTime   string `mapstructure:"build_time"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
}

// IsDevelopment возвращает true если окружение development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction возвращает true если окружение production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address возвращает полный адрес сервера.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Стратегии и backend'ы guard'а.
const (
	GuardStrategyHeader = "header"
	GuardStrategyBody   = "body"
	GuardBackendMemory  = "memory"
	GuardBackendRedis   = "redis"
)

// GuardConfig - настройки guard'а повторных запросов.
type GuardConfig struct {
	Strategy      string `mapstructure:"strategy"` // header, body
	HeaderName    string `mapstructure:"header_name"`
	ArgumentIndex int    `mapstructure:"argument_index"`
	FieldName     string `mapstructure:"field_name"`
	Backend       string `mapstructure:"backend"` // memory, redis
	FailOpen      bool   `mapstructure:"fail_open"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	MaxBodySize   int64  `mapstructure:"max_body_size"`
}

// RedisConfig - подключение к Redis (guard backend "redis").
type RedisConfig struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// DatabaseConfig - конфигурация базы данных.
// Если Enabled=false, sample server хранит данные в памяти.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// CORSConfig - конфигурация CORS. "*" в списке означает "любой".
type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	ExposedHeaders   []string      `mapstructure:"exposed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// CompressionConfig - gzip сжатие ответов.
type CompressionConfig struct {
	Enabled bool `mapstructure:"enabled"`
	MinSize int  `mapstructure:"min_size"` // байт
	Level   int  `mapstructure:"level"`    // -1 (default), 1..9
}

// LogConfig - конфигурация логирования.
type LogConfig struct {
	Level         string `mapstructure:"level"`          // debug, info, warn, error
	Format        string `mapstructure:"format"`         // json, text
	RequestFormat string `mapstructure:"request_format"` // structured, text
}

// TracingConfig - OpenTelemetry.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LoadDotEnv загружает .env файлы в окружение. Отсутствующие файлы пропускаются.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load загружает конфигурацию из файла и переменных окружения.
//
// configPath - путь к директории с конфигурацией (например, "configs")
// configName - имя файла конфигурации без расширения (например, "config")
func Load(configPath, configName string) (*Config, error) {
	v := newViper()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/gincore")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Файл не найден - используем defaults и env vars
	}

	return decode(v)
}

// LoadFromEnv загружает конфигурацию только из переменных окружения.
func LoadFromEnv() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults устанавливает значения по умолчанию.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gincore")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("guard.strategy", GuardStrategyHeader)
	v.SetDefault("guard.header_name", "Guard-Unique-Token")
	v.SetDefault("guard.argument_index", 0)
	v.SetDefault("guard.field_name", "Id")
	v.SetDefault("guard.backend", GuardBackendMemory)
	v.SetDefault("guard.fail_open", true)
	v.SetDefault("guard.key_prefix", "guard:")
	v.SetDefault("guard.max_body_size", 1<<20)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "gincore")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "Guard-Unique-Token"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", "12h")

	v.SetDefault("compression.enabled", true)
	v.SetDefault("compression.min_size", 1024)
	v.SetDefault("compression.level", -1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.request_format", "structured")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// bindEnvVars привязывает короткие имена переменных окружения.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.host", EnvPrefix+"_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", EnvPrefix+"_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.user", EnvPrefix+"_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", EnvPrefix+"_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.database", EnvPrefix+"_DATABASE_DATABASE", "DB_NAME")

	_ = v.BindEnv("redis.address", EnvPrefix+"_REDIS_ADDRESS", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", EnvPrefix+"_REDIS_PASSWORD", "REDIS_PASSWORD")

	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("app.environment", EnvPrefix+"_APP_ENVIRONMENT", "ENVIRONMENT", "ENV")
	_ = v.BindEnv("tracing.endpoint", EnvPrefix+"_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// normalize приводит строковые перечисления к нижнему регистру.
func (c *Config) normalize() {
	c.Guard.Strategy = strings.ToLower(strings.TrimSpace(c.Guard.Strategy))
	c.Guard.Backend = strings.ToLower(strings.TrimSpace(c.Guard.Backend))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Log.RequestFormat = strings.ToLower(strings.TrimSpace(c.Log.RequestFormat))
}

// Validate валидирует конфигурацию.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Guard.Strategy {
	case GuardStrategyHeader:
		if strings.TrimSpace(c.Guard.HeaderName) == "" {
			return fmt.Errorf("guard header name is required for strategy %q", c.Guard.Strategy)
		}
	case GuardStrategyBody:
		if c.Guard.ArgumentIndex < 0 {
			return fmt.Errorf("invalid guard argument index: %d", c.Guard.ArgumentIndex)
		}
		if strings.TrimSpace(c.Guard.FieldName) == "" {
			return fmt.Errorf("guard field name is required for strategy %q", c.Guard.Strategy)
		}
	default:
		return fmt.Errorf("unknown guard strategy: %q", c.Guard.Strategy)
	}

	switch c.Guard.Backend {
	case GuardBackendMemory:
	case GuardBackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for guard backend %q", c.Guard.Backend)
		}
	default:
		return fmt.Errorf("unknown guard backend: %q", c.Guard.Backend)
	}

	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	for _, method := range c.CORS.AllowedMethods {
		if err := ValidateMethod(method); err != nil {
			return err
		}
	}

	if c.Compression.Level < -1 || c.Compression.Level > 9 {
		return fmt.Errorf("invalid compression level: %d", c.Compression.Level)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	switch c.Log.RequestFormat {
	case "structured", "text":
	default:
		return fmt.Errorf("unknown request log format: %q", c.Log.RequestFormat)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing sample ratio: %v", c.Tracing.SampleRatio)
	}

	return nil
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// ValidateMethod проверяет имя HTTP метода для CORS ("*" допустим).
func ValidateMethod(method string) error {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "*" || knownMethods[m] {
		return nil
	}
	return fmt.Errorf("invalid HTTP method %q in CORS allowed methods", method)
}

// Development возвращает конфигурацию для разработки.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "gincore",
			Version:     "dev",
			Environment: "development",
			Debug:       true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Guard: GuardConfig{
			Strategy:    GuardStrategyHeader,
			HeaderName:  "Guard-Unique-Token",
			FieldName:   "Id",
			Backend:     GuardBackendMemory,
			FailOpen:    true,
			KeyPrefix:   "guard:",
			MaxBodySize: 1 << 20,
		},
		Redis: RedisConfig{
			Address:     "localhost:6379",
			PoolSize:    10,
			DialTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "gincore",
			SSLMode:         "disable",
			MaxConnections:  10,
			MinConnections:  2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"*"},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         12 * time.Hour,
		},
		Compression: CompressionConfig{
			Enabled: true,
			MinSize: 1024,
			Level:   -1,
		},
		Log: LogConfig{
			Level:         "debug",
			Format:        "text",
			RequestFormat: "text",
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// Test возвращает конфигурацию для тестов.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Server.Port = 18080
	cfg.Compression.Enabled = false
	cfg.Log.Level = "error"
	cfg.Log.Format = "json"
	cfg.Log.RequestFormat = "structured"
	return cfg
}
