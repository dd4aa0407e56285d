package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig namespace for every ETFUEL variable.
const EnvPrefix = "etfuel"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"ETFUEL_APP_ENV" required:"true"`
	Port         string `envconfig:"ETFUEL_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"ETFUEL_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"ETFUEL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ETFUEL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ETFUEL_DB_DSN"`
	Driver string `envconfig:"ETFUEL_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ETFUEL_DB_HOST"`
	Port     int    `envconfig:"ETFUEL_DB_PORT" default:"5432"`
	User     string `envconfig:"ETFUEL_DB_USER"`
	Password string `envconfig:"ETFUEL_DB_PASSWORD"`
	Name     string `envconfig:"ETFUEL_DB_NAME"`
	SSLMode  string `envconfig:"ETFUEL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ETFUEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ETFUEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ETFUEL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ETFUEL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ETFUEL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ETFUEL_REDIS_ADDR"`
	Password     string        `envconfig:"ETFUEL_REDIS_PASSWORD"`
	DB           int           `envconfig:"ETFUEL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ETFUEL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ETFUEL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ETFUEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ETFUEL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ETFUEL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ETFUEL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ETFUEL_JWT_ISSUER" required:"true"`
	IDTokenTTLMinutes      int    `envconfig:"ETFUEL_ID_TOKEN_TTL_MINUTES" default:"60"`
	CustomTokenTTLMinutes  int    `envconfig:"ETFUEL_CUSTOM_TOKEN_TTL_MINUTES" default:"60"`
	ResetTokenTTLMinutes   int    `envconfig:"ETFUEL_RESET_TOKEN_TTL_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"ETFUEL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// IDTokenTTL returns the session token lifetime.
func (j JWTConfig) IDTokenTTL() time.Duration {
	if j.IDTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.IDTokenTTLMinutes) * time.Minute
}

// CustomTokenTTL returns the exchange token lifetime.
func (j JWTConfig) CustomTokenTTL() time.Duration {
	if j.CustomTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.CustomTokenTTLMinutes) * time.Minute
}

// ResetTokenTTL returns the password reset link lifetime.
func (j JWTConfig) ResetTokenTTL() time.Duration {
	if j.ResetTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ResetTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"ETFUEL_BCRYPT_COST" default:"12"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ETFUEL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ETFUEL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ETFUEL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ETFUEL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ETFUEL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ETFUEL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ETFUEL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ETFUEL_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ETFUEL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ETFUEL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ETFUEL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AuditTopic        string `envconfig:"ETFUEL_PUBSUB_AUDIT_TOPIC" default:"etfuel-audit-events"`
	AuditSubscription string `envconfig:"ETFUEL_PUBSUB_AUDIT_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ETFUEL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ETFUEL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ETFUEL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, required := range []struct {
		env   string
		value string
	}{
		{"ETFUEL_DB_HOST", db.Host},
		{"ETFUEL_DB_USER", db.User},
		{"ETFUEL_DB_NAME", db.Name},
	} {
		if required.value == "" {
			missing = append(missing, required.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either ETFUEL_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
