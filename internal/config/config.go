package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Database DatabaseConfig `envconfig:"DB"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Kafka    KafkaConfig    `envconfig:"KAFKA"`
	Features FeatureFlags   `envconfig:"FEATURE"`
	Drafts   DraftConfig    `envconfig:"DRAFT"`
	Log      LogConfig      `envconfig:"LOG"`
}

type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8082"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	Mode            string        `envconfig:"MODE" default:"release"`
}

type DatabaseConfig struct {
	Host         string        `envconfig:"HOST" default:"localhost"`
	Port         int           `envconfig:"PORT" default:"5432"`
	User         string        `envconfig:"USER" default:"tireshop"`
	Password     string        `envconfig:"PASSWORD" default:"tireshop"`
	Name         string        `envconfig:"NAME" default:"tireshop"`
	SSLMode      string        `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	MaxLifetime  time.Duration `envconfig:"MAX_LIFETIME" default:"5m"`
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

// URL returns the connection string in URL form, as expected by the migration driver.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string        `envconfig:"HOST" default:"localhost"`
	Port     int           `envconfig:"PORT" default:"6379"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	TTL      time.Duration `envconfig:"TTL" default:"5m"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"BROKERS" default:"localhost:9092"`
	ChangesTopic  string   `envconfig:"CHANGES_TOPIC" default:"tireshop.changes"`
	ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"tireshop-service"`
}

type FeatureFlags struct {
	ChangeEvents bool `envconfig:"CHANGE_EVENTS" default:"true"`
	Caching      bool `envconfig:"CACHING" default:"true"`
	Realtime     bool `envconfig:"REALTIME" default:"true"`
}

type DraftConfig struct {
	TTL        time.Duration `envconfig:"TTL" default:"24h"`
	WarningTTL time.Duration `envconfig:"WARNING_TTL" default:"5s"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return errors.New("DB_HOST and DB_NAME are required")
	}
	if c.Features.ChangeEvents && len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when change events are enabled")
	}
	if c.Drafts.WarningTTL <= 0 {
		return errors.New("DRAFT_WARNING_TTL must be positive")
	}
	return nil
}
