package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/vehicle-reservation/internal/config"
    "github.com/iliyamo/vehicle-reservation/internal/model"
    "github.com/iliyamo/vehicle-reservation/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, id uint64, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(secret, id, role, time.Hour)
    require.NoError(t, err)
    return "Bearer " + tok.Token
}

// whoami echoes the actor JWTAuth stored.
func whoami(c echo.Context) error {
    a, ok := ActorFrom(c)
    if !ok {
        return c.NoContent(http.StatusTeapot)
    }
    return c.JSON(http.StatusOK, a)
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if auth != "" {
        req.Header.Set(echo.HeaderAuthorization, auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    e.GET("/me", whoami, JWTAuth(secret))

    rec := serve(e, http.MethodGet, "/me", bearer(t, 5, model.RoleApprover))
    require.Equal(t, http.StatusOK, rec.Code)
    require.JSONEq(t, `{"ID":5,"Role":"APPROVER"}`, rec.Body.String())

    for name, auth := range map[string]string{
        "missing":      "",
        "not bearer":   "Basic abc",
        "bad token":    "Bearer abc.def.ghi",
        "wrong secret": func() string { tok, _ := utils.NewAccessToken("other", 5, model.RoleAdmin, time.Hour); return "Bearer " + tok.Token }(),
    } {
        t.Run(name, func(t *testing.T) {
            rec := serve(e, http.MethodGet, "/me", auth)
            require.Equal(t, http.StatusUnauthorized, rec.Code)
        })
    }
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    e.GET("/admin", whoami, JWTAuth(secret), RequireRole(model.RoleAdmin))
    e.GET("/open", whoami, RequireRole(model.RoleAdmin))

    require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", bearer(t, 1, model.RoleAdmin)).Code)
    require.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", bearer(t, 1, model.RoleEmployee)).Code)
    require.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/open", "").Code)
}

func TestActorFrom_Unauthenticated(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    _, ok := ActorFrom(c)
    require.False(t, ok)
    require.Equal(t, "guest", userID(c))
}

func TestRequestLogger(t *testing.T) {
    logger, hook := test.NewNullLogger()
    e := echo.New()
    e.Use(RequestLogger(logrus.NewEntry(logger)))
    e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
    e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

    req := httptest.NewRequest(http.MethodGet, "/ok", nil)
    req.Header.Set(echo.HeaderXRequestID, "req-1")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    require.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))

    last := hook.LastEntry()
    require.NotNil(t, last)
    require.Equal(t, logrus.InfoLevel, last.Level)
    require.Equal(t, "req-1", last.Data["request_id"])
    require.Equal(t, http.StatusNoContent, last.Data["status"])

    rec = serve(e, http.MethodGet, "/boom", "")
    require.Equal(t, http.StatusInternalServerError, rec.Code)
    require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
    require.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestCacheKeyFrom(t *testing.T) {
    e := echo.New()
    ctx := func(target, uid string) echo.Context {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/v1/drivers")
        if uid != "" {
            c.Set(ctxUserID, uid)
        }
        return c
    }
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query_user"}

    a := cacheKeyFrom(cfg, ctx("/v1/drivers?active=true&page=1", "1"))
    require.Regexp(t, `^cache:[0-9a-f]{40}$`, a)
    require.Equal(t, a, cacheKeyFrom(cfg, ctx("/v1/drivers?page=1&active=true", "1")))
    require.NotEqual(t, a, cacheKeyFrom(cfg, ctx("/v1/drivers?active=true&page=1", "2")))

    cfg.KeyStrategy = "route"
    require.Equal(t, cacheKeyFrom(cfg, ctx("/v1/drivers?x=1", "1")), cacheKeyFrom(cfg, ctx("/v1/drivers?y=2", "2")))
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    require.Equal(t, http.StatusOK, status)
    require.Equal(t, "application/json", got.Get("Content-Type"))
    require.Equal(t, `{"a":1}`, string(body))

    _, _, _, ok = decodePayload(bs[:5])
    require.False(t, ok)
    _, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, '{'))
    require.False(t, ok)
}

func TestCaptureWriterLimit(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("abc"))
    require.False(t, cw.truncated())
    _, _ = cw.Write([]byte("def"))
    require.True(t, cw.truncated())
    require.Equal(t, "abcd", cw.buf.String())
    require.Equal(t, "abcdef", rec.Body.String())
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/bookings")
    c.Set(ctxUserID, "7")

    cfg := config.RateLimitConfig{Prefix: "rl"}
    require.Equal(t, "rl:ip:10.0.0.9:user:7:route:POST /v1/bookings", buildRateKey(cfg, c))
    cfg.KeyStrategy = "user"
    require.Equal(t, "rl:user:7", buildRateKey(cfg, c))
    cfg.KeyStrategy = "ip"
    require.Equal(t, "rl:ip:10.0.0.9", buildRateKey(cfg, c))
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
    log := logrus.NewEntry(logrus.New())
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "x") },
        NewRedisCache(config.CacheConfig{Enabled: true}, nil, log),
        NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log),
        InvalidateCache(config.CacheConfig{Enabled: true}, nil, log),
    )
    rec := serve(e, http.MethodGet, "/x", "")
    require.Equal(t, http.StatusOK, rec.Code)
    require.Empty(t, rec.Header().Get("X-Cache"))
    require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestAsInt64(t *testing.T) {
    require.Equal(t, int64(3), asInt64(int64(3)))
    require.Equal(t, int64(4), asInt64("4"))
    require.Equal(t, int64(2), asInt64(2.9))
    require.Equal(t, int64(0), asInt64(nil))
}
