// Package ctxkeys holds the typed context keys shared by the API layer.
// Extracted to a leaf package to avoid import cycles between api, its
// middleware and its handlers.
package ctxkeys

import "context"

// Key is the named type for all API context keys. context.Value compares
// type and value, so a named type cannot collide with plain-string keys
// from other packages.
type Key string

const (
	// UserID identifies the authenticated user. AuthMiddleware injects it
	// from JWT claims; every protected handler reads it to scope run
	// history.
	UserID Key = "user_id"

	// Email is the authenticated user's email, injected alongside UserID.
	Email Key = "email"
)

// WithValue stores value under a typed key.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}
