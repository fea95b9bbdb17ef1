package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotInitialized = errors.New("service not initialized")
	ErrUpstream       = errors.New("upstream call failed")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf names the semantic kind carried by err, for logs and exchange records.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrNotInitialized):
		return "not_initialized"
	case IsKind(err, ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}
