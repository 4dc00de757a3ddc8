// Package middleware holds the HTTP middleware of the reservation API.
package middleware

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/vehicle-reservation/internal/utils"
)

// Context keys set by JWTAuth.
const (
    ctxUserID = "user_id" // decimal user id as a string
    ctxRole   = "role"    // role claim
    ctxActor  = "actor"   // model.Actor
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the caller in the request context.  Handlers read it back
// with ActorFrom; the rate limiter and cache key on the "user_id" value.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            actor, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(ctxUserID, strconv.FormatUint(actor.ID, 10))
            c.Set(ctxRole, actor.Role)
            c.Set(ctxActor, actor)
            return next(c)
        }
    }
}
