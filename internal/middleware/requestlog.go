package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

const ctxLogger = "logger"

// RequestLogger tags every request with an id (the client's X-Request-ID
// or a fresh UUID), echoes it back, and logs one line per request once
// the handler returns.
func RequestLogger(log *logrus.Entry) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            entry := log.WithFields(logrus.Fields{
                "request_id": rid,
                "method":     req.Method,
                "path":       req.URL.Path,
            })
            c.Set(ctxLogger, entry)

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            fields := logrus.Fields{
                "status":     c.Response().Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "remote_ip":  c.RealIP(),
            }
            if uid := userID(c); uid != "guest" {
                fields["user_id"] = uid
            }
            e := entry.WithFields(fields)
            switch status := c.Response().Status; {
            case status >= 500:
                e.WithError(err).Error("request failed")
            case status >= 400:
                e.Info("request rejected")
            default:
                e.Info("request served")
            }
            return nil
        }
    }
}

// LoggerFrom returns the request-scoped logger set by RequestLogger, or
// fallback on routes it does not wrap.
func LoggerFrom(c echo.Context, fallback *logrus.Entry) *logrus.Entry {
    if e, ok := c.Get(ctxLogger).(*logrus.Entry); ok {
        return e
    }
    return fallback
}
