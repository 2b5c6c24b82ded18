package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env           string              `mapstructure:"env" env:"APP_ENV, default=development"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Session       SessionConfig       `mapstructure:"session"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"HTTP_PORT, default=8080" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" env:"HTTP_BASE_URL, default=http://localhost:8080"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS, default=*"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT, default=5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT, default=15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT, default=60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT, default=15s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"DB_MAX_OPEN_CONNS, default=25" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"DB_MAX_IDLE_CONNS, default=5" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME, default=30m" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME, default=5m" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" env:"DB_SOURCE" validate:"required"`
}

type SecurityConfig struct {
	JWTAccessSecret      string        `mapstructure:"jwt_access_secret" env:"JWT_ACCESS_SECRET" validate:"required,min=32"`
	JWTRefreshSecret     string        `mapstructure:"jwt_refresh_secret" env:"JWT_REFRESH_SECRET" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" env:"JWT_ACCESS_TTL, default=15m" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" env:"JWT_REFRESH_TTL, default=168h" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST, default=12" validate:"required,min=10,max=15"`
}

type SessionConfig struct {
	// TouchInterval bounds how often last_seen_at is written for one session.
	TouchInterval time.Duration `mapstructure:"touch_interval" env:"SESSION_TOUCH_INTERVAL, default=1m"`
	PurgeInterval time.Duration `mapstructure:"purge_interval" env:"SESSION_PURGE_INTERVAL, default=1h"`
	Retention     time.Duration `mapstructure:"retention" env:"SESSION_RETENTION, default=720h"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" env:"REDIS_ENABLED, default=false"`
	Addr     string `mapstructure:"addr" env:"REDIS_ADDR, default=localhost:6379" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password" env:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"db" env:"REDIS_DB, default=0" validate:"min=0"`
}

type KafkaConfig struct {
	Enabled   bool   `mapstructure:"enabled" env:"KAFKA_ENABLED, default=false"`
	Brokers   string `mapstructure:"brokers" env:"KAFKA_BROKERS, default=localhost:9092" validate:"required_if=Enabled true"`
	Topic     string `mapstructure:"topic" env:"KAFKA_TOPIC, default=gogotime.events" validate:"required_if=Enabled true"`
	Workers   int    `mapstructure:"workers" env:"KAFKA_WORKERS, default=2" validate:"min=0"`
	QueueSize int    `mapstructure:"queue_size" env:"KAFKA_QUEUE_SIZE, default=256" validate:"min=0"`
}

func (c KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"METRICS_ENABLED, default=true"`
	Path    string `mapstructure:"path" env:"METRICS_PATH, default=/metrics" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LOG_LEVEL, default=info" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" env:"LOG_FORMAT, default=text" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv builds the configuration from the process environment.
// A .env file in the working directory is loaded first when present.
func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

var configValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.RefreshTokenDuration <= c.AccessTokenDuration {
		return errors.New("refresh_token_duration must be longer than access_token_duration")
	}
	return nil
}
