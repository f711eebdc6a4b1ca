package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
)

const (
	DefaultBulkChunkSize         = 500
	DefaultInterestDivisorPolicy = "current"
)

var config *Config

// Config holds every setting the binaries read. Nothing else in the module
// touches the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=yuva_finance"`
	AppDebug            bool   `env:"APP_DEBUG"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=10s"`
	ReporterListenAddr string        `env:"REPORTER_LISTEN_ADDR,default=:8082"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`
	PostgresSSLMode       string `env:"POSTGRES_SSLMODE,default=disable"`
	MigrationsDir         string `env:"MIGRATIONS_DIR,default=migrations"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=yuva:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=yuva_finance"`

	LogEnv   string `env:"LOG_ENV"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	DefaultViewingUserID  string        `env:"DEFAULT_VIEWING_USER_ID"`
	InterestDivisorPolicy string        `env:"INTEREST_DIVISOR_POLICY,default=current"`
	BulkChunkSize         int           `env:"BULK_CHUNK_SIZE,default=500"`
	BulkJobTTL            time.Duration `env:"BULK_JOB_TTL,default=24h"`

	QueueName              string        `env:"BULK_QUEUE_NAME,default=bulk-deposits"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=bulk-deposit-processors"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=3"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=500ms"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=10"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=10000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`

	ProcessorConsumers int `env:"PROCESSOR_CONSUMERS,default=1"`
	ProcessorWorkers   int `env:"PROCESSOR_WORKERS,default=4"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}
	c.normalize()

	config = c
	return nil
}

// Set replaces the loaded configuration; binaries call Load, tests call Set.
func Set(c *Config) {
	c.normalize()
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// EnvPathFromArgs returns the value of a --env=<file> argument, if present.
func EnvPathFromArgs(args []string) string {
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--env="); ok {
			return v
		}
	}
	return ""
}

func (c *Config) normalize() {
	if c.BulkChunkSize <= 0 {
		c.BulkChunkSize = DefaultBulkChunkSize
	}
	if c.InterestDivisorPolicy == "" {
		c.InterestDivisorPolicy = DefaultInterestDivisorPolicy
	}
	if c.BulkJobTTL <= 0 {
		c.BulkJobTTL = 24 * time.Hour
	}
	if c.QueueConsumerName == "" {
		host, _ := os.Hostname()
		c.QueueConsumerName = c.AppName + "-" + host
	}
	if c.ProcessorConsumers <= 0 {
		c.ProcessorConsumers = 1
	}
	if c.ProcessorWorkers <= 0 {
		c.ProcessorWorkers = 1
	}
}

func (c *Config) PostgresRead() pg.Config {
	return pg.Config{
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		User:     c.PostgresReadUser,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
		SSLMode:  c.PostgresSSLMode,
	}
}

func (c *Config) PostgresWrite() pg.Config {
	return pg.Config{
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		User:     c.PostgresWriteUser,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
		SSLMode:  c.PostgresSSLMode,
	}
}

func (c *Config) RedisOptions() *goredis.UniversalOptions {
	return &goredis.UniversalOptions{
		Addrs:    []string{c.RedisAddr},
		Username: c.RedisUsername,
		Password: c.RedisPassword,
		DB:       c.RedisDatabase,
	}
}
