// Package resolver wires the GraphQL schema to the planner, store, and
// transform layers. Every query resolver follows the same pipeline:
// analyze the requested fields, plan the fetch and includes from them,
// execute through the store, and shape the records for the response.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"blogql/internal/auth"
	"blogql/internal/logging"
	"blogql/internal/store"
)

const (
	corpusCountCacheKey = "blog_corpus_count"
	corpusCountTTL      = time.Minute
)

// ErrUnauthenticated is returned by operations that require a signed-in
// caller.
var ErrUnauthenticated = errors.New("authentication required")

// Config carries the resolver's collaborators.
type Config struct {
	Store  *store.Store
	Issuer *auth.Issuer
	// OIDC is optional; when nil, oauth logins trust the client-supplied
	// provider identity instead of verifying an ID token.
	OIDC   *auth.OIDCVerifier
	Logger *logging.Logger
}

// Resolver holds the state shared by all field resolvers.
type Resolver struct {
	store  *store.Store
	issuer *auth.Issuer
	oidc   *auth.OIDCVerifier
	logger *logging.Logger

	// corpusCache holds the blog corpus count for the random feed so the
	// COUNT(*) is not reissued on every request.
	corpusCache *gocache.Cache
	randIntn    func(int) int
}

// New builds a resolver.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	return &Resolver{
		store:       cfg.Store,
		issuer:      cfg.Issuer,
		oidc:        cfg.OIDC,
		logger:      logger,
		corpusCache: gocache.New(corpusCountTTL, 5*time.Minute),
		randIntn:    rand.Intn,
	}
}

// viewer returns the authenticated user id or 0.
func (r *Resolver) viewer(ctx context.Context) int64 {
	return auth.ViewerFromContext(ctx)
}

// requireViewer returns the authenticated user id or an error for
// anonymous callers.
func (r *Resolver) requireViewer(ctx context.Context) (int64, error) {
	viewerID := auth.ViewerFromContext(ctx)
	if viewerID == 0 {
		return 0, ErrUnauthenticated
	}
	return viewerID, nil
}

// corpusCount returns the cached blog corpus size, refreshing it when
// the TTL has lapsed.
func (r *Resolver) corpusCount(ctx context.Context) (int, error) {
	if cached, ok := r.corpusCache.Get(corpusCountCacheKey); ok {
		return cached.(int), nil
	}
	count, err := r.store.CountBlogs(ctx)
	if err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	r.corpusCache.SetDefault(corpusCountCacheKey, count)
	return count, nil
}

func (r *Resolver) logError(ctx context.Context, msg string, err error, attrs ...any) {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = r.logger
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	logger.Error(msg, attrs...)
}
