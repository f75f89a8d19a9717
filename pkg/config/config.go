package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Places       PlacesConfig
	Suggestions  SuggestionsConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LETSLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"LETSLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LETSLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LETSLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LETSLINK_DB_DSN"`
	Driver string `envconfig:"LETSLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LETSLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"LETSLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LETSLINK_DB_USER"`
	LegacyPassword string `envconfig:"LETSLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"LETSLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"LETSLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LETSLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LETSLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LETSLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LETSLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LETSLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LETSLINK_REDIS_ADDR"`
	Password     string        `envconfig:"LETSLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"LETSLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LETSLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LETSLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LETSLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LETSLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LETSLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LETSLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LETSLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LETSLINK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PlacesConfig feeds the external nearby-place search client. When the base
// URL or key is missing the suggestion service runs fallback-only.
type PlacesConfig struct {
	BaseURL        string        `envconfig:"LETSLINK_PLACES_BASE_URL"`
	APIKey         string        `envconfig:"LETSLINK_PLACES_API_KEY"`
	RequestTimeout time.Duration `envconfig:"LETSLINK_PLACES_REQUEST_TIMEOUT" default:"5s"`
}

type SuggestionsConfig struct {
	DefaultLat float64       `envconfig:"LETSLINK_SUGGESTIONS_DEFAULT_LAT" default:"40.7128"`
	DefaultLng float64       `envconfig:"LETSLINK_SUGGESTIONS_DEFAULT_LNG" default:"-74.0060"`
	CacheTTL   time.Duration `envconfig:"LETSLINK_SUGGESTIONS_CACHE_TTL" default:"5m"`
	MaxLimit   int           `envconfig:"LETSLINK_SUGGESTIONS_MAX_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LETSLINK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LETSLINK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LETSLINK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LETSLINK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"LETSLINK_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"LETSLINK_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"LETSLINK_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type PubSubConfig struct {
	PartyEventsTopic string `envconfig:"LETSLINK_PUBSUB_PARTY_EVENTS_TOPIC" default:"ll-party-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"LETSLINK_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"LETSLINK_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"LETSLINK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"LETSLINK_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
