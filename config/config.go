package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"60"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"fern"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// When false, X-Tenant-ID and X-User-ID headers are trusted as-is.
	AuthEnabled   bool   `env:"AUTH_ENABLED" env-default:"false"`
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	AuthClientID  string `env:"AUTH_CLIENT_ID" env-default:""`

	RedisEnabled        bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost           string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort           int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword       string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB             int           `env:"REDIS_DB" env-default:"0"`
	SchemaCacheTTL      time.Duration `env:"SCHEMA_CACHE_TTL" env-default:"10m"`
	SchemaCacheKeyspace string        `env:"SCHEMA_CACHE_KEYSPACE" env-default:"fern:schema"`

	KafkaEnabled        bool          `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers        []string      `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaDocumentTopic  string        `env:"KAFKA_DOCUMENT_TOPIC" env-default:"document.generated"`
	KafkaWriteTimeout   time.Duration `env:"KAFKA_WRITE_TIMEOUT" env-default:"10s"`
	KafkaRequiredAcks   int           `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaMaxAttempts    int           `env:"KAFKA_MAX_ATTEMPTS" env-default:"3"`
	KafkaCompression    string        `env:"KAFKA_COMPRESSION" env-default:"snappy"`
	KafkaBatchTimeoutMs int           `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`

	MergeServiceURL         string        `env:"MERGE_SERVICE_URL" env-default:"http://localhost:8080/api/merge"`
	MergeServiceToken       string        `env:"MERGE_SERVICE_TOKEN" env-default:""`
	MergeServiceTimeout     time.Duration `env:"MERGE_SERVICE_TIMEOUT" env-default:"2m"`
	MergeServiceMaxBodySize int64         `env:"MERGE_SERVICE_MAX_BODY_SIZE" env-default:"10485760"`

	// Number of sibling repeat-set rows resolved at once. 1 resolves them sequentially.
	RepeatSetConcurrency int `env:"REPEAT_SET_CONCURRENCY" env-default:"1"`
	// Used when the FileNameFormat setting is not configured.
	DefaultFileNameFormat string `env:"DEFAULT_FILE_NAME_FORMAT" env-default:"%:Name%_%action%_%templatename%_%timestamp[MM-dd-yyyy]%_%vx%"`

	OTLPEnabled  bool   `env:"OTLP_ENABLED" env-default:"false"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure bool   `env:"OTLP_INSECURE" env-default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env file is fine, the environment may already be populated
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RepeatSetConcurrency < 1 {
		return fmt.Errorf("REPEAT_SET_CONCURRENCY must be at least 1, got %d", c.RepeatSetConcurrency)
	}
	if c.AuthEnabled && (c.AuthIssuerURL == "" || c.AuthClientID == "") {
		return fmt.Errorf("AUTH_ISSUER_URL and AUTH_CLIENT_ID are required when AUTH_ENABLED is set")
	}
	if c.MergeServiceURL == "" {
		return fmt.Errorf("MERGE_SERVICE_URL is required")
	}
	return nil
}

// DatabaseDSN builds the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if strings.HasPrefix(c.DatabaseDriver, "sqlite") {
		return c.DatabaseName
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost, c.DatabasePort, c.DatabaseUserName, c.DatabasePassword, c.DatabaseName, c.DatabaseSSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
