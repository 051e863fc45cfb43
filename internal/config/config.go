// Package config defines the service configuration loaded from environment
// variables.
package config

import (
	"time"

	"github.com/pazarly/search-service/pkg/config"
	"github.com/pazarly/search-service/pkg/database"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"search-service"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8086"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	ElasticsearchURL string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"market"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"market_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"market"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaGroupID      string   `env:"KAFKA_GROUP_ID" envDefault:"search-service"`
	KafkaListingTopic string   `env:"KAFKA_LISTING_TOPIC" envDefault:"market.listings"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	SyncPingAttempts int           `env:"SYNC_PING_ATTEMPTS" envDefault:"5"`
	SyncPingDelay    time.Duration `env:"SYNC_PING_DELAY" envDefault:"3s"`
	SyncPageSize     int           `env:"SYNC_PAGE_SIZE" envDefault:"100"`
	SyncBatchSize    int           `env:"SYNC_BATCH_SIZE" envDefault:"200"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Postgres returns the pool configuration for the authoritative store.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// Redis returns the rate-limit cache configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
