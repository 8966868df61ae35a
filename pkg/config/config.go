package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Tenancy       TenancyConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string   `envconfig:"MERCATERRA_APP_ENV" required:"true"`
	Port         string   `envconfig:"MERCATERRA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MERCATERRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MERCATERRA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MERCATERRA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MERCATERRA_DB_DSN"`
	Driver string `envconfig:"MERCATERRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERCATERRA_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCATERRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCATERRA_DB_USER"`
	LegacyPassword string `envconfig:"MERCATERRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCATERRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCATERRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCATERRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCATERRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCATERRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCATERRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCATERRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MERCATERRA_REDIS_ADDR"`
	Password     string        `envconfig:"MERCATERRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCATERRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCATERRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCATERRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCATERRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCATERRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCATERRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERCATERRA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERCATERRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MERCATERRA_JWT_EXPIRATION_MINUTES" required:"true"`
}

type SessionConfig struct {
	TTLMinutes int `envconfig:"MERCATERRA_SESSION_TTL_MINUTES" default:"43200"`
}

// TTL returns the server-side session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MERCATERRA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MERCATERRA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MERCATERRA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MERCATERRA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MERCATERRA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MERCATERRA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"MERCATERRA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"MERCATERRA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// TenancyConfig controls how hostnames are resolved to vendors. In the
// single-tenant dev environment tenant checks are bypassed for the configured
// dev domain.
type TenancyConfig struct {
	Environment string `envconfig:"MERCATERRA_TENANCY_ENV" default:"production"`
	DevDomain   string `envconfig:"MERCATERRA_TENANCY_DEV_DOMAIN" default:"localhost"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERCATERRA_AUTO_MIGRATE" default:"false"`
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
