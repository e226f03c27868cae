package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")

	ErrMissingToken        = errors.New("no token provided")
	ErrInvalidToken        = errors.New("invalid token")
	ErrSessionUserNotFound = errors.New("token user not found")
	ErrStaleToken          = errors.New("token has been invalidated")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrRequestInFlight = errors.New("request with this idempotency key is still in progress")

	ErrUpstream          = errors.New("completion provider failed")
	ErrInsightGeneration = errors.New("failed to generate insights")
)

// ValidationError lists offending fields. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
