// Package config loads application configuration from environment variables.
package config

import (
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/caarlos0/env/v11"
    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/vehicle-reservation/internal/booking"
)

// Production is the APP_ENV value that switches logging to JSON.
const Production = "prod"

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
    User    string `env:"DB_USER,required"`
    Pass    string `env:"DB_PASS"` // empty allowed
    Host    string `env:"DB_HOST" envDefault:"127.0.0.1"`
    Port    string `env:"DB_PORT" envDefault:"3306"`
    Name    string `env:"DB_NAME,required"`
    Migrate bool   `env:"DB_MIGRATE" envDefault:"false"` // apply the embedded schema at boot
}

// NotifyConfig selects the notifier strategy and the consumer side.
type NotifyConfig struct {
    Provider        string        `env:"NOTIFIER_PROVIDER" envDefault:"log"` // amqp | log
    RabbitURL       string        `env:"RABBITMQ_URL"`
    Queue           string        `env:"NOTIFICATION_QUEUE" envDefault:"booking.notifications"`
    ConsumerEnabled bool          `env:"NOTIFICATION_CONSUMER_ENABLED" envDefault:"false"`
    LogPath         string        `env:"NOTIFICATION_LOG_PATH" envDefault:"logs/notifications.log"`
    Timeout         time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
}

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env               string   `env:"APP_ENV" envDefault:"dev"`
    Port              string   `env:"APP_PORT" envDefault:"8080"`
    Timezone          string   `env:"APP_TIMEZONE" envDefault:"UTC"` // reference zone for working days and codes
    JWTSecret         string   `env:"JWT_SECRET,required"`
    AccessTTLMin      int      `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"60"`
    LogLevel          string   `env:"LOG_LEVEL" envDefault:"info"`
    NotesMaxLen       int      `env:"NOTES_MAX_LEN" envDefault:"500"`
    Holidays          []string `env:"HOLIDAYS" envSeparator:","`
    RequireAssignment bool     `env:"REQUIRE_ASSIGNMENT_ON_APPROVE" envDefault:"false"`
    MetricsEnabled    bool     `env:"METRICS_ENABLED" envDefault:"true"`

    DB        DatabaseConfig
    Notify    NotifyConfig
    RateLimit RateLimitConfig
    Cache     CacheConfig
    Redis     RedisConfig
}

// TokenConfig is the subset of Config needed to mint access tokens
// without a database.
type TokenConfig struct {
    Env          string `env:"APP_ENV" envDefault:"dev"`
    JWTSecret    string `env:"JWT_SECRET,required"`
    AccessTTLMin int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"60"`
    LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// AccessTTL is the access-token lifetime.
func (t TokenConfig) AccessTTL() time.Duration { return time.Duration(t.AccessTTLMin) * time.Minute }

// Logger returns a logger configured like Config.Logger.
func (t TokenConfig) Logger() *logrus.Logger {
    return Config{Env: t.Env, LogLevel: t.LogLevel}.Logger()
}

// LoadToken reads .env files when present and parses only the token
// settings, so DB_* variables may be absent.
func LoadToken() (TokenConfig, error) {
    if _, err := LoadEnv(".env", ".env.local"); err != nil {
        return TokenConfig{}, fmt.Errorf("load env files: %w", err)
    }
    var t TokenConfig
    if err := env.Parse(&t); err != nil {
        return TokenConfig{}, err
    }
    return t, nil
}

// LoadDatabase parses only the DB_* settings.  Call it after LoadToken or
// Load so .env files are already applied.
func LoadDatabase() (DatabaseConfig, error) {
    var d DatabaseConfig
    if err := env.Parse(&d); err != nil {
        return DatabaseConfig{}, err
    }
    return d, nil
}

// LoadEnv loads whichever of files exist into the process environment
// and reports how many were found.
func LoadEnv(files ...string) (int, error) {
    existing := make([]string, 0, len(files))
    for _, f := range files {
        if _, err := os.Stat(f); err == nil {
            existing = append(existing, f)
        }
    }
    if len(existing) == 0 {
        return 0, nil
    }
    return len(existing), godotenv.Load(existing...)
}

// Load reads .env files when present and then parses the environment.
func Load() (Config, error) {
    if _, err := LoadEnv(".env", ".env.local"); err != nil {
        return Config{}, fmt.Errorf("load env files: %w", err)
    }
    return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (Config, error) {
    var c Config
    if err := env.Parse(&c); err != nil {
        return Config{}, err
    }
    c.RateLimit.normalize()
    c.Cache.normalize()
    if _, err := c.Location(); err != nil {
        return Config{}, err
    }
    switch strings.ToLower(c.Notify.Provider) {
    case "amqp":
        if c.Notify.RabbitURL == "" {
            return Config{}, fmt.Errorf("NOTIFIER_PROVIDER=amqp requires RABBITMQ_URL")
        }
    case "log":
    default:
        return Config{}, fmt.Errorf("unknown NOTIFIER_PROVIDER %q", c.Notify.Provider)
    }
    if c.Notify.ConsumerEnabled && c.Notify.RabbitURL == "" {
        return Config{}, fmt.Errorf("NOTIFICATION_CONSUMER_ENABLED requires RABBITMQ_URL")
    }
    if _, err := c.Calendar(); err != nil {
        return Config{}, err
    }
    return c, nil
}

// Location resolves APP_TIMEZONE.
func (c Config) Location() (*time.Location, error) {
    loc, err := time.LoadLocation(c.Timezone)
    if err != nil {
        return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
    }
    return loc, nil
}

// Calendar builds the working-day calendar from APP_TIMEZONE and HOLIDAYS.
func (c Config) Calendar() (*booking.Calendar, error) {
    loc, err := c.Location()
    if err != nil {
        return nil, err
    }
    dates := make([]string, 0, len(c.Holidays))
    for _, h := range c.Holidays {
        if h = strings.TrimSpace(h); h != "" {
            dates = append(dates, h)
        }
    }
    holidays, err := booking.ParseHolidays(loc, dates)
    if err != nil {
        return nil, err
    }
    return booking.NewCalendar(loc, holidays...), nil
}

// AccessTTL is the access-token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// LogrusLevel maps LOG_LEVEL onto a logrus level, info when unknown.
func (c Config) LogrusLevel() logrus.Level {
    lvl, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
    if err != nil {
        return logrus.InfoLevel
    }
    return lvl
}

// Logger returns the process logger: JSON in production, text elsewhere.
func (c Config) Logger() *logrus.Logger {
    l := logrus.New()
    l.SetLevel(c.LogrusLevel())
    if c.Env == Production {
        l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
    } else {
        l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    }
    return l
}
