package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsPreflightMaxAge = "600"

// originPolicy decides which browser origins may read API responses.
type originPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newOriginPolicy(allowed []string) originPolicy {
	p := originPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		switch origin {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for the
// request origin, or "" when the origin is not permitted.
func (p originPolicy) allowOrigin(requestOrigin string) string {
	if p.any {
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(strings.TrimRight(requestOrigin, "/"))]; ok {
		return requestOrigin
	}
	return ""
}

// corsMiddleware lets browser chat widgets on allowed origins call the API.
// Preflights from other origins are refused with 403.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowed)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		headers := c.Writer.Header()
		if !policy.any {
			headers.Add("Vary", "Origin")
		}

		allowOrigin := policy.allowOrigin(origin)
		if allowOrigin != "" {
			headers.Set("Access-Control-Allow-Origin", allowOrigin)
			headers.Set("Access-Control-Expose-Headers", requestIDHeader)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		if origin != "" && allowOrigin == "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		headers.Set("Access-Control-Max-Age", corsPreflightMaxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
