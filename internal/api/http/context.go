package http

import (
	"context"
	"errors"
)

type ctxKey int

const userIDKey ctxKey = 0

// WithUserID stores the authenticated user's id on the request context. The
// auth middleware is the only writer.
func WithUserID(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext extracts the user id the auth middleware stored for a
// protected route.
func GetUserIDFromContext(ctx context.Context) (int32, error) {
	userID, ok := ctx.Value(userIDKey).(int32)
	if !ok {
		return 0, errors.New("user id is not provided in context")
	}
	return userID, nil
}
