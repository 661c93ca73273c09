package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const authorKey contextKey = "author"

// WithAuthor adds the authenticated author identity to the request context
func WithAuthor(r *http.Request, author string) *http.Request {
	ctx := context.WithValue(r.Context(), authorKey, author)
	return r.WithContext(ctx)
}

// GetAuthor retrieves the author identity from context, empty if not set
func GetAuthor(r *http.Request) string {
	author, _ := r.Context().Value(authorKey).(string)
	return author
}
