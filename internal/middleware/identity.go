package middleware

// identity.go holds the accessors for the caller identity JWTAuth places
// in the Echo context.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/vehicle-reservation/internal/model"
)

// ActorFrom returns the authenticated caller.  ok is false on routes that
// are not wrapped by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
    a, ok := c.Get(ctxActor).(model.Actor)
    return a, ok && a.ID != 0
}

// userID returns the caller id for cache and rate-limit keys, or "guest"
// for unauthenticated requests.
func userID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "guest"
}
