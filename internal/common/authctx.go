package common

import "context"

type ctxKey string

const operatorKey ctxKey = "auth/operator"

// WithOperator stores the authenticated till operator on the context.
func WithOperator(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, operatorKey, username)
}

// Operator returns the authenticated till operator, if any.
func Operator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(operatorKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
