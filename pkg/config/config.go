package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PROMPTMART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PROMPTMART_DB_DSN"
	EnvDBHost = "PROMPTMART_DB_HOST"
	EnvDBUser = "PROMPTMART_DB_USER"
	EnvDBName = "PROMPTMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Worker WorkerConfig
	Stripe StripeConfig
	PayPal PayPalConfig
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
	Env          string `envconfig:"PROMPTMART_APP_ENV" required:"true"`
	Port         string `envconfig:"PROMPTMART_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"PROMPTMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROMPTMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROMPTMART_DB_DSN"`
	Driver string `envconfig:"PROMPTMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROMPTMART_DB_HOST"`
	LegacyPort     int    `envconfig:"PROMPTMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROMPTMART_DB_USER"`
	LegacyPassword string `envconfig:"PROMPTMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROMPTMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROMPTMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROMPTMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROMPTMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROMPTMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROMPTMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROMPTMART_REDIS_URL"`
	Address      string        `envconfig:"PROMPTMART_REDIS_ADDR"`
	Password     string        `envconfig:"PROMPTMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROMPTMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROMPTMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROMPTMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROMPTMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROMPTMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROMPTMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WorkerConfig tunes the settlement worker's sweep loop.
type WorkerConfig struct {
	SweepInterval time.Duration `envconfig:"PROMPTMART_SWEEP_INTERVAL" default:"1h"`
	LockTTL       time.Duration `envconfig:"PROMPTMART_SWEEP_LOCK_TTL" default:"2h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PROMPTMART_STRIPE_API_KEY"`
	Env    string `envconfig:"PROMPTMART_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID     string `envconfig:"PROMPTMART_PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"PROMPTMART_PAYPAL_CLIENT_SECRET"`
	Env          string `envconfig:"PROMPTMART_PAYPAL_ENV" default:"sandbox"`
}

// Environment returns the normalized PayPal environment (sandbox/live).
func (p PayPalConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "sandbox"
	}
	return env
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
