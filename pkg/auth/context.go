package auth

import (
	"context"
)

type contextKey string

// ContextKeySubject is the context key for the authenticated operator
const ContextKeySubject contextKey = "subject"

// WithSubject adds the operator subject to the context
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeySubject, subject)
}

// SubjectFromContext retrieves the operator subject from the context
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(ContextKeySubject).(string)
	return sub, ok
}
