package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/validator"
)

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"          validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	BucketName      string `mapstructure:"bucket_name"       validate:"required"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

type AzureStorageConfig struct {
	Name      string `mapstructure:"name"      validate:"required"`
	Key       string `mapstructure:"key"       validate:"required"`
	URL       string `mapstructure:"url"       validate:"required"`
	Container string `mapstructure:"container" validate:"required"`
	Dev       bool   `mapstructure:"dev"`
}

type RetryConfig struct {
	MaxRetries uint64        `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

const (
	StorageBackendFilesystem = "filesystem"
	StorageBackendMinio      = "minio"
	StorageBackendAzure      = "azure"
)

type StorageConfig struct {
	Minio   *MinioConfig        `mapstructure:"minio"   validate:"required_if=Backend minio"`
	Azure   *AzureStorageConfig `mapstructure:"azure"   validate:"required_if=Backend azure"`
	Retry   RetryConfig         `mapstructure:"retry"`
	Backend string              `mapstructure:"backend" validate:"required,oneof=filesystem minio azure"`
	// Root directory for the filesystem backend, also used as key prefix for the remote ones
	Root string `mapstructure:"root" validate:"required"`
}

type ReviewerAPIKey struct {
	Active *bool  `mapstructure:"active" json:"active" validate:"required"`
	Token  string `mapstructure:"token"  json:"token"  validate:"required"`
}

type Reviewer struct {
	ID     string         `mapstructure:"id"      json:"id"      validate:"required,uuid_rfc4122"`
	Note   string         `mapstructure:"note"    json:"note"    validate:"required"`
	APIKey ReviewerAPIKey `mapstructure:"api_key" json:"api_key" validate:"required"`
}

type AuthConfig struct {
	// HMAC secret shared with the login service that issues patient tokens
	JWTSecret  string     `mapstructure:"jwt_secret"  validate:"required,min=16"`
	CookieName string     `mapstructure:"cookie_name" validate:"required"`
	Reviewers  []Reviewer `mapstructure:"reviewers"   validate:"dive"`
}

type RateLimitConfig struct {
	RedisHost       string `mapstructure:"redis_host"`
	SubmitPerMinute int64  `mapstructure:"submit_per_minute"`
	FailOpen        bool   `mapstructure:"fail_open"`
}

type ReportConfig struct {
	Title    string `mapstructure:"title"    validate:"required"`
	Subtitle string `mapstructure:"subtitle"`
	Clinic   string `mapstructure:"clinic"`
}

type LimitsConfig struct {
	MaxImages       int   `mapstructure:"max_images"        validate:"required,min=1"`
	MaxImageBytes   int64 `mapstructure:"max_image_bytes"   validate:"required,min=1"`
	MaxOverlayBytes int   `mapstructure:"max_overlay_bytes" validate:"required,min=1"`
}

// See oralvis.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig  `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig   `mapstructure:"logging"                validate:"required"`
	Storage              *StorageConfig   `mapstructure:"storage"                validate:"required"`
	Auth                 *AuthConfig      `mapstructure:"auth"                   validate:"required"`
	RateLimit            *RateLimitConfig `mapstructure:"ratelimit"`
	Report               *ReportConfig    `mapstructure:"report"                 validate:"required"`
	Limits               *LimitsConfig    `mapstructure:"limits"                 validate:"required"`
	ListenAddress        string           `mapstructure:"listen_address"         validate:"required"`
	GracefulShutdownSecs int64            `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	AuthCookieName             string = "auth.cookie_name"
	AuthJWTSecret              string = "auth.jwt_secret" // #nosec
	AzureStorageKey            string = "storage.azure.key"
	EnvPrefix                  string = "olv"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	LimitsMaxImageBytes        string = "limits.max_image_bytes"
	LimitsMaxImages            string = "limits.max_images"
	LimitsMaxOverlayBytes      string = "limits.max_overlay_bytes"
	ListenAddress              string = "listen_address"
	MinioAccessKeyID           string = "storage.minio.access_key_id"
	MinioSecretAccessKey       string = "storage.minio.secret_access_key" // #nosec
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RedisHost                  string = "ratelimit.redis_host"
	ReportSubtitle             string = "report.subtitle"
	ReportTitle                string = "report.title"
	StorageBackend             string = "storage.backend"
	StorageRetryBaseDelay      string = "storage.retry.base_delay"
	StorageRetryMax            string = "storage.retry.max_retries"
	StorageRoot                string = "storage.root"
	SubmitPerMinute            string = "ratelimit.submit_per_minute"
	UseOTLP                    string = "logging.use_otlp"
)

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("oralvis")

	v.AddConfigPath("/etc/oralvis/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{
		PostgresPassword,
		AuthJWTSecret,
		AzureStorageKey,
		MinioAccessKeyID,
		MinioSecretAccessKey,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(ListenAddress, "[::]:8080")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))
	v.SetDefault(UseOTLP, false)

	v.SetDefault(StorageBackend, StorageBackendFilesystem)
	v.SetDefault(StorageRoot, "uploads")
	v.SetDefault(StorageRetryMax, 3)
	v.SetDefault(StorageRetryBaseDelay, 25*time.Millisecond)

	v.SetDefault(AuthCookieName, "token")

	v.SetDefault(RedisHost, "localhost")
	v.SetDefault(SubmitPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(ReportTitle, "Oral Health Screening Report")
	v.SetDefault(ReportSubtitle, "Intraoral photograph review")

	v.SetDefault(LimitsMaxImages, 5)
	v.SetDefault(LimitsMaxImageBytes, 10<<20)
	v.SetDefault(LimitsMaxOverlayBytes, 8<<20)

	v.SetDefault(GracefulShutdownSecs, 30)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
