package auth

import "context"

type viewerKey struct{}

// WithViewer attaches the authenticated user id to the request context.
func WithViewer(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, viewerKey{}, userID)
}

// ViewerFromContext returns the authenticated user id, or 0 for an
// anonymous request.
func ViewerFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(viewerKey{}).(int64)
	return id
}
