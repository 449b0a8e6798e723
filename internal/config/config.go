package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	Schedule       ScheduleConfig    `toml:"schedule"`
	UserService    IntegrationConfig `toml:"user_service"`
	CatalogService IntegrationConfig `toml:"catalog_service"`
	Redis          RedisConfig       `toml:"redis"`
	Kafka          KafkaConfig       `toml:"kafka"`
	Reminder       ReminderConfig    `toml:"reminder"`
	RateLimit      RateLimitConfig   `toml:"rate_limit"`
	Tracing        TracingConfig     `toml:"tracing"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type ScheduleConfig struct {
	OpenHour        int    `toml:"open_hour"`
	CloseHour       int    `toml:"close_hour"`
	Timezone        string `toml:"timezone"`
	MaxSummaryDays  int    `toml:"max_summary_days"`
	MaxCalendarDays int    `toml:"max_calendar_days"`
}

type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
	TTL      int    `toml:"ttl"`
}

type KafkaConfig struct {
	Brokers      string `toml:"brokers"`
	Topic        string `toml:"topic"`
	WriteTimeout int    `toml:"write_timeout"`
}

// Enabled true, если задан хотя бы один брокер
func (k KafkaConfig) Enabled() bool {
	return strings.TrimSpace(k.Brokers) != ""
}

type ReminderConfig struct {
	Enabled    bool   `toml:"enabled"`
	Schedule   string `toml:"schedule"`
	StaleAfter int    `toml:"stale_after"`
	BatchSize  uint64 `toml:"batch_size"`
}

type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

type TracingConfig struct {
	Enabled      bool    `toml:"enabled"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRatio  float64 `toml:"sample_ratio"`
}

// Load читает .env (если есть), подставляет переменные окружения и разбирает TOML
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return Parse(os.ExpandEnv(string(data)))
}

// Parse разбирает уже подготовленный TOML
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode toml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "scheduling"
	}

	// Часы работы: нулевой close_hour означает, что секция не задана
	if c.Schedule.CloseHour == 0 {
		c.Schedule.OpenHour = domain.DefaultOpenHour
		c.Schedule.CloseHour = domain.DefaultCloseHour
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Sao_Paulo"
	}
	if c.Schedule.MaxSummaryDays == 0 {
		c.Schedule.MaxSummaryDays = domain.DefaultMaxSummaryDays
	}
	if c.Schedule.MaxCalendarDays == 0 {
		c.Schedule.MaxCalendarDays = domain.DefaultMaxSummaryDays
	}

	if c.UserService.Timeout == 0 {
		c.UserService.Timeout = 5
	}
	if c.CatalogService.Timeout == 0 {
		c.CatalogService.Timeout = 5
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 300
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "scheduling.booking-events"
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 5
	}

	if c.Reminder.Schedule == "" {
		c.Reminder.Schedule = "@every 2h"
	}
	if c.Reminder.StaleAfter == 0 {
		c.Reminder.StaleAfter = 7200
	}
	if c.Reminder.BatchSize == 0 {
		c.Reminder.BatchSize = 500
	}

	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 50
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 100
	}

	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database host and dbname are required for postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if _, err := c.BusinessHours(); err != nil {
		return err
	}

	if c.UserService.URL == "" {
		return errors.New("user_service.url is required")
	}
	if c.CatalogService.URL == "" {
		return errors.New("catalog_service.url is required")
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}

	if c.Tracing.Enabled && c.Tracing.OTLPEndpoint == "" {
		return errors.New("tracing.otlp_endpoint is required when tracing is enabled")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS < 0 || c.RateLimit.Burst < 1) {
		return errors.New("rate_limit requires rps >= 0 and burst >= 1")
	}

	return nil
}

// BusinessHours окно доступности в часовом поясе из конфигурации
func (c *Config) BusinessHours() (domain.BusinessHours, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return domain.BusinessHours{}, fmt.Errorf("schedule.timezone: %w", err)
	}

	hours := domain.BusinessHours{
		OpenHour:  c.Schedule.OpenHour,
		CloseHour: c.Schedule.CloseHour,
		Location:  loc,
	}
	if err := hours.Validate(); err != nil {
		return domain.BusinessHours{}, fmt.Errorf("schedule: %w", err)
	}
	return hours, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// StaleAfterDuration возраст pending-бронирования, после которого отправляется напоминание
func (r ReminderConfig) StaleAfterDuration() time.Duration {
	return seconds(r.StaleAfter)
}

// TTLDuration время жизни записи кэша сводки
func (r RedisConfig) TTLDuration() time.Duration {
	return seconds(r.TTL)
}

// TimeoutDuration таймаут HTTP клиента интеграции
func (i IntegrationConfig) TimeoutDuration() time.Duration {
	return seconds(i.Timeout)
}

// WriteTimeoutDuration таймаут записи в kafka
func (k KafkaConfig) WriteTimeoutDuration() time.Duration {
	return seconds(k.WriteTimeout)
}
