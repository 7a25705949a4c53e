// Package namespace derives and validates memory namespace keys.
//
// A namespace is a logical partition for stored memories. Per-user isolation
// is achieved by appending a user suffix to a base namespace; the resulting
// string doubles as the registry cache key for the facade serving it.
package namespace

import (
	"errors"
	"fmt"
	"regexp"
)

// Default is the namespace used when a request does not name one.
const Default = "default"

// userSeparator joins a base namespace and a user identifier.
const userSeparator = "_user_"

// maxLength bounds namespace and user identifiers to keep derived
// collection names within backend limits.
const maxLength = 128

// Common errors.
var (
	ErrInvalidNamespace = errors.New("invalid namespace")
	ErrInvalidUserID    = errors.New("invalid user id")
)

// identPattern matches valid namespace and user identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Key derives the service key for a base namespace and an optional user id.
// With an empty userID the key is the base namespace itself; otherwise the
// user suffix is appended so per-user memories land in their own partition.
func Key(base, userID string) string {
	if userID == "" {
		return base
	}
	return base + userSeparator + userID
}

// Valid reports whether s is usable as a namespace or user identifier.
func Valid(s string) bool {
	if s == "" || len(s) > maxLength {
		return false
	}
	return identPattern.MatchString(s)
}

// Validate checks a base namespace and optional user id, returning a
// descriptive error for the HTTP boundary to surface as a 400.
func Validate(base, userID string) error {
	if !Valid(base) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, base)
	}
	if userID != "" && !Valid(userID) {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return nil
}
