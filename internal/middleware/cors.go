package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin request handling.
type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

// corsPolicy is the precomputed form of CORSConfig: origin lookup set
// plus the header values that never change between requests.
type corsPolicy struct {
	allowAll    bool
	origins     map[string]struct{}
	methods     string
	headers     string
	expose      string
	maxAge      string
	credentials bool
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}),
		methods:     strings.Join(cfg.AllowedMethods, ", "),
		headers:     strings.Join(cfg.AllowedHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			p.allowAll = true
		} else if origin != "" {
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORSMiddleware applies the configured CORS policy and answers
// preflight OPTIONS requests itself.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := policy.allows(origin)
			if allowed {
				h := w.Header()
				if policy.allowAll {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
					// Credentials are never combined with a wildcard origin.
					if policy.credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
				}
				if policy.expose != "" {
					h.Set("Access-Control-Expose-Headers", policy.expose)
				}
			}

			if r.Method == http.MethodOptions {
				if allowed {
					h := w.Header()
					if policy.methods != "" {
						h.Set("Access-Control-Allow-Methods", policy.methods)
					}
					if policy.headers != "" {
						h.Set("Access-Control-Allow-Headers", policy.headers)
					}
					if policy.maxAge != "" {
						h.Set("Access-Control-Max-Age", policy.maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
