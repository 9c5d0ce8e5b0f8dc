package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Переменные окружения, переопределяющие значения из файла
const (
	EnvDBPassword = "AGENDA_DB_PASSWORD"
	EnvRedisAddr  = "AGENDA_REDIS_ADDR"
)

// ErrInvalidConfig возвращается при некорректной конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server       Server       `toml:"server"`
	Database     Database     `toml:"database"`
	Redis        Redis        `toml:"redis"`
	Kafka        Kafka        `toml:"kafka"`
	Logs         Logs         `toml:"logs"`
	Metrics      Metrics      `toml:"metrics"`
	Pipeline     Pipeline     `toml:"pipeline"`
	SyncQueue    SyncQueue    `toml:"sync_queue"`
	Connectivity Connectivity `toml:"connectivity"`
	Trash        Trash        `toml:"trash"`
}

// Server таймауты в секундах
type Server struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type Database struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Redis пустой Addr означает работу без кеша настроек и с очередью в памяти
type Redis struct {
	Addr             string `toml:"addr"`
	Password         string `toml:"password"`
	DB               int    `toml:"db"`
	QueuePrefix      string `toml:"queue_prefix"`
	SettingsCacheTTL int    `toml:"settings_cache_ttl"` // секунды
}

type Kafka struct {
	Enabled      bool   `toml:"enabled"`
	Brokers      string `toml:"brokers"` // через запятую
	Topic        string `toml:"topic"`
	BufferSize   int    `toml:"buffer_size"`
	WriteTimeout int    `toml:"write_timeout"` // секунды
}

type Logs struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type Metrics struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type Pipeline struct {
	PersistTimeout int    `toml:"persist_timeout"` // секунды
	Timezone       string `toml:"timezone"`
}

type SyncQueue struct {
	ItemsPerSecond float64 `toml:"items_per_second"`
	DrainInterval  int     `toml:"drain_interval"` // секунды
}

type Connectivity struct {
	Interval    int `toml:"interval"`     // секунды
	PingTimeout int `toml:"ping_timeout"` // секунды
}

type Trash struct {
	PurgeInterval int `toml:"purge_interval"` // секунды
}

// Location часовой пояс агенды
func (p Pipeline) Location() (*time.Location, error) {
	return time.LoadLocation(p.Timezone)
}

// Load читает .env (если есть), затем TOML файл, применяет значения по умолчанию
// и переопределения из окружения
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if v := os.Getenv(EnvDBPassword); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация по умолчанию, поверх которой читается файл
func Default() *Config {
	return &Config{
		Server: Server{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: Database{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis: Redis{
			QueuePrefix:      "agenda:sync",
			SettingsCacheTTL: 60,
		},
		Kafka: Kafka{
			Topic:        "agenda.events",
			BufferSize:   256,
			WriteTimeout: 5,
		},
		Logs: Logs{
			Level: "info",
		},
		Metrics: Metrics{
			Path:        "/metrics",
			ServiceName: "agenda",
		},
		Pipeline: Pipeline{
			PersistTimeout: 5,
			Timezone:       "UTC",
		},
		SyncQueue: SyncQueue{
			ItemsPerSecond: 20,
			DrainInterval:  30,
		},
		Connectivity: Connectivity{
			Interval:    5,
			PingTimeout: 2,
		},
		Trash: Trash{
			PurgeInterval: 3600,
		},
	}
}

// Validate проверяет значения, без которых сервис не запустится
func (c *Config) Validate() error {
	switch {
	case c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535:
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalidConfig, c.Server.HTTPPort)
	case c.Database.DBName == "":
		return fmt.Errorf("%w: database.dbname is required", ErrInvalidConfig)
	case c.Pipeline.PersistTimeout <= 0:
		return fmt.Errorf("%w: pipeline.persist_timeout must be positive", ErrInvalidConfig)
	case c.SyncQueue.ItemsPerSecond <= 0:
		return fmt.Errorf("%w: sync_queue.items_per_second must be positive", ErrInvalidConfig)
	case c.SyncQueue.DrainInterval <= 0:
		return fmt.Errorf("%w: sync_queue.drain_interval must be positive", ErrInvalidConfig)
	case c.Connectivity.Interval <= 0 || c.Connectivity.PingTimeout <= 0:
		return fmt.Errorf("%w: connectivity intervals must be positive", ErrInvalidConfig)
	case c.Trash.PurgeInterval <= 0:
		return fmt.Errorf("%w: trash.purge_interval must be positive", ErrInvalidConfig)
	case c.Kafka.Enabled && c.Kafka.Brokers == "":
		return fmt.Errorf("%w: kafka.brokers is required when kafka is enabled", ErrInvalidConfig)
	}
	if _, err := c.Pipeline.Location(); err != nil {
		return fmt.Errorf("%w: pipeline.timezone: %v", ErrInvalidConfig, err)
	}
	return nil
}
