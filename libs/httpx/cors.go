package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy defines the CORS headers to emit for matching origins. An empty
// AllowedOrigins list disables the middleware entirely.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type cors struct {
	policy   CORSPolicy
	origins  []string
	wildcard bool
	methods  string
	headers  string
	maxAge   string
}

func WithCORS(policy CORSPolicy) Middleware {
	c := newCORS(policy)
	if c == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allow, ok := c.allowOrigin(origin)
			if ok {
				c.writeHeaders(w.Header(), allow)
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newCORS(policy CORSPolicy) *cors {
	c := &cors{policy: policy}
	for _, o := range policy.AllowedOrigins {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
		case o == "*":
			c.wildcard = true
		default:
			c.origins = append(c.origins, o)
		}
	}
	if !c.wildcard && len(c.origins) == 0 {
		return nil
	}
	c.methods = joinTrimmed(policy.AllowedMethods)
	c.headers = joinTrimmed(policy.AllowedHeaders)
	if secs := int(policy.MaxAge.Seconds()); secs > 0 {
		c.maxAge = strconv.Itoa(secs)
	}
	return c
}

func (c *cors) allowOrigin(origin string) (string, bool) {
	if c.wildcard {
		// Credentialed responses may not use the literal "*".
		if c.policy.AllowCredentials {
			return origin, true
		}
		return "*", true
	}
	for _, o := range c.origins {
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	return "", false
}

func (c *cors) writeHeaders(h http.Header, allowOrigin string) {
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	if c.policy.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.methods != "" {
		h.Set("Access-Control-Allow-Methods", c.methods)
	}
	if c.headers != "" {
		h.Set("Access-Control-Allow-Headers", c.headers)
	}
	if c.maxAge != "" {
		h.Set("Access-Control-Max-Age", c.maxAge)
	}
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
}

func joinTrimmed(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
