// Package context carries per-query identifiers through context.Context
package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	// QueryIDKey is the context key for query IDs
	QueryIDKey contextKey = iota
)

// NewQueryID generates a new unique query ID
func NewQueryID() string {
	return uuid.New().String()
}

// WithQueryID adds a query ID to the context
func WithQueryID(parent stdctx.Context, queryID string) stdctx.Context {
	return stdctx.WithValue(parent, QueryIDKey, queryID)
}

// QueryIDFromContext extracts the query ID from the context.
// A nil context yields an empty ID.
func QueryIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	if queryID, ok := ctx.Value(QueryIDKey).(string); ok {
		return queryID
	}
	return ""
}
