package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogql/internal/auth"
)

func TestAuthMiddlewareAttachesViewer(t *testing.T) {
	issuer := auth.NewIssuer([]byte("secret"), "blogql-test")
	pair, err := issuer.IssuePair(42)
	require.NoError(t, err)

	var viewerID int64
	handler := AuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID = auth.ViewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(42), viewerID)
}

func TestAuthMiddlewareAnonymousWithoutToken(t *testing.T) {
	issuer := auth.NewIssuer([]byte("secret"), "blogql-test")

	var viewerID int64 = -1
	handler := AuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID = auth.ViewerFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/graphql", nil))
	assert.Equal(t, int64(0), viewerID)
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	issuer := auth.NewIssuer([]byte("secret"), "blogql-test")
	pair, err := issuer.IssuePair(42)
	require.NoError(t, err)

	var viewerID int64 = -1
	handler := AuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID = auth.ViewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(0), viewerID)
}
