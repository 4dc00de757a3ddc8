package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Helper()
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_NAME", "vehicle_reservation")
    t.Setenv("JWT_SECRET", "s3cret")
}

func TestParse_Defaults(t *testing.T) {
    setRequired(t)
    c, err := Parse()
    require.NoError(t, err)

    require.Equal(t, "8080", c.Port)
    require.Equal(t, "UTC", c.Timezone)
    require.Equal(t, 500, c.NotesMaxLen)
    require.False(t, c.RequireAssignment)
    require.Equal(t, "log", c.Notify.Provider)
    require.Equal(t, "booking.notifications", c.Notify.Queue)
    require.Equal(t, "logs/notifications.log", c.Notify.LogPath)
    require.Equal(t, 5*time.Second, c.Notify.Timeout)
    require.Equal(t, time.Hour, c.AccessTTL())
    require.Equal(t, logrus.InfoLevel, c.LogrusLevel())
    require.True(t, c.Cache.Methods["GET"])
    require.Equal(t, 60, c.RateLimit.Capacity)
    require.Equal(t, "localhost:6379", c.Redis.Address())
}

func TestParse_MissingRequired(t *testing.T) {
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_NAME", "")
    os.Unsetenv("DB_NAME")
    t.Setenv("JWT_SECRET", "s3cret")
    _, err := Parse()
    require.Error(t, err)
}

func TestParse_Overrides(t *testing.T) {
    setRequired(t)
    t.Setenv("APP_TIMEZONE", "Asia/Jakarta")
    t.Setenv("HOLIDAYS", "2025-01-01, 2025-03-31")
    t.Setenv("REQUIRE_ASSIGNMENT_ON_APPROVE", "true")
    t.Setenv("LOG_LEVEL", "DEBUG")
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("RATE_LIMIT_BURST", "5")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6380")

    c, err := Parse()
    require.NoError(t, err)
    require.True(t, c.RequireAssignment)
    require.Equal(t, logrus.DebugLevel, c.LogrusLevel())
    require.True(t, c.Cache.Methods["HEAD"])
    require.Equal(t, 5, c.RateLimit.Capacity)
    require.Equal(t, 2*time.Second, c.RateLimit.RefillInterval)
    require.Equal(t, 10*time.Second, c.RateLimit.TTL)
    require.Equal(t, "redis:6380", c.Redis.Address())

    cal, err := c.Calendar()
    require.NoError(t, err)
    require.Equal(t, "Asia/Jakarta", cal.Location().String())
    require.False(t, cal.IsWorkingDay(time.Date(2025, 3, 31, 3, 0, 0, 0, cal.Location())))
}

func TestParse_Invalid(t *testing.T) {
    cases := map[string][2]string{
        "timezone":         {"APP_TIMEZONE", "Mars/Olympus"},
        "holiday":          {"HOLIDAYS", "31-12-2025"},
        "provider":         {"NOTIFIER_PROVIDER", "pigeon"},
        "amqp without url": {"NOTIFIER_PROVIDER", "amqp"},
    }
    for name, kv := range cases {
        t.Run(name, func(t *testing.T) {
            setRequired(t)
            t.Setenv(kv[0], kv[1])
            _, err := Parse()
            require.Error(t, err)
        })
    }
}

func TestLoadEnv(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, ".env")
    require.NoError(t, os.WriteFile(path, []byte("VR_TEST_ONLY_KEY=from-file\n"), 0o600))
    t.Cleanup(func() { os.Unsetenv("VR_TEST_ONLY_KEY") })

    n, err := LoadEnv(path, filepath.Join(dir, ".env.local"))
    require.NoError(t, err)
    require.Equal(t, 1, n)
    require.Equal(t, "from-file", os.Getenv("VR_TEST_ONLY_KEY"))
}

func TestLoadToken_WithoutDatabaseSettings(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DB_USER", "")
    t.Setenv("DB_NAME", "")
    os.Unsetenv("DB_USER")
    os.Unsetenv("DB_NAME")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")

    tc, err := LoadToken()
    require.NoError(t, err)
    require.Equal(t, "s3cret", tc.JWTSecret)
    require.Equal(t, 15*time.Minute, tc.AccessTTL())
    require.NotNil(t, tc.Logger())

    _, err = LoadDatabase()
    require.Error(t, err)
}
