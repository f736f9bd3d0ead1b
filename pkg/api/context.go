package api

import (
	"context"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

type contextKey int

const (
	backendKey contextKey = iota
	requestIDKey
)

func withBackend(ctx context.Context, b db.Backend) context.Context {
	return context.WithValue(ctx, backendKey, b)
}

// backendFrom returns the backend selected for the request
func backendFrom(ctx context.Context) db.Backend {
	b, _ := ctx.Value(backendKey).(db.Backend)
	return b
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
