// Package utils provides helpers for issuing and parsing access tokens.
package utils

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/iliyamo/vehicle-reservation/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string sent in the Authorization
// header.  Exp stores the UTC expiration timestamp.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or carries unusable claims.
var ErrInvalidToken = errors.New("invalid token")

// KnownRole reports whether role is one of the three tiers.
func KnownRole(role string) bool {
    switch role {
    case model.RoleEmployee, model.RoleApprover, model.RoleAdmin:
        return true
    }
    return false
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT
// carries sub (decimal user id), role, exp and iat.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  strconv.FormatUint(userID, 10),
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns the actor it
// was issued for.
func ParseAccessToken(secret, raw string) (model.Actor, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return model.Actor{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return model.Actor{}, ErrInvalidToken
    }
    sub, err := claims.GetSubject()
    if err != nil {
        return model.Actor{}, ErrInvalidToken
    }
    id, err := strconv.ParseUint(sub, 10, 64)
    if err != nil || id == 0 {
        return model.Actor{}, ErrInvalidToken
    }
    role, _ := claims["role"].(string)
    if !KnownRole(role) {
        return model.Actor{}, ErrInvalidToken
    }
    return model.Actor{ID: id, Role: role}, nil
}
