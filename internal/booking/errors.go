package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/vehicle-reservation/internal/model"
)

// ErrSequenceExhausted is returned when a year has already used all 999
// booking codes.
var ErrSequenceExhausted = errors.New("booking code sequence exhausted for year")

// ValidationError reports malformed or logically invalid input.  The
// booking is left unmodified.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError is returned when a resource assignment collides with one
// or more approved bookings.  All conflicting bookings are carried so
// the caller can pick a different driver or vehicle.
type ConflictError struct {
	Conflicts []model.Booking
}

func (e *ConflictError) Error() string {
	codes := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		codes = append(codes, b.Code)
	}
	return "resource already assigned to overlapping booking(s): " + strings.Join(codes, ", ")
}

// AuthorizationError means the actor lacks the privilege for a transition.
type AuthorizationError struct {
	ActorID uint64
	Action  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %d is not allowed to %s", e.ActorID, e.Action)
}

// NotFoundError means a referenced booking, driver, vehicle or user does
// not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// NotFound builds a NotFoundError for a numeric id.
func NotFound(entity string, id uint64) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(id)}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
