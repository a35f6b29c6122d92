package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Requirement is the access level a path demands.
type Requirement int

const (
	// Public paths serve anonymous callers.
	Public Requirement = iota
	// MustBeAuthenticated paths need a resolved identity.
	MustBeAuthenticated
)

// Rule binds a path pattern to a requirement. Patterns are segment based:
// `*` matches exactly one segment, a trailing `**` matches any remainder.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// AccessPolicy is an ordered rule table consulted once per request after
// identity resolution. The first matching rule wins; authoring the table
// most-specific-first is the caller's job. Unmatched paths require
// authentication. The table is built at startup and immutable afterwards.
type AccessPolicy struct {
	rules []Rule
}

// NewAccessPolicy builds a policy from an ordered rule list.
func NewAccessPolicy(rules []Rule) *AccessPolicy {
	return &AccessPolicy{rules: rules}
}

// DefaultPolicy lists the storefront's anonymous surface: authentication
// entry points, the credential lifecycle flows, and the public catalog,
// cart and order paths. Everything else needs a caller identity.
func DefaultPolicy() *AccessPolicy {
	return NewAccessPolicy([]Rule{
		{Pattern: "/api/v1/rest/login", Requirement: Public},
		{Pattern: "/api/v1/rest/registration", Requirement: Public},
		{Pattern: "/api/v1/rest/forgot", Requirement: Public},
		{Pattern: "/api/v1/rest/reset/**", Requirement: Public},
		{Pattern: "/api/v1/rest/reset", Requirement: Public},
		{Pattern: "/api/v1/rest/activate/*", Requirement: Public},
		{Pattern: "/api/v1/rest/product/*", Requirement: Public},
		{Pattern: "/api/v1/rest/menu/**", Requirement: Public},
		{Pattern: "/api/v1/rest/cart", Requirement: Public},
		{Pattern: "/api/v1/rest/cart/*", Requirement: Public},
		{Pattern: "/api/v1/rest/order", Requirement: Public},
		{Pattern: "/api/v1/rest/order/*", Requirement: Public},
		{Pattern: "/api/v1/rest", Requirement: Public},
		{Pattern: "/health", Requirement: Public},
		{Pattern: "/img/**", Requirement: Public},
		{Pattern: "/static/**", Requirement: Public},
	})
}

// Classify returns the requirement of the first rule matching the path.
func (p *AccessPolicy) Classify(path string) Requirement {
	for _, rule := range p.rules {
		if matchPattern(rule.Pattern, path) {
			return rule.Requirement
		}
	}
	return MustBeAuthenticated
}

func matchPattern(pattern, path string) bool {
	if pattern == path {
		return true
	}

	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	for i, part := range patternParts {
		if part == "**" {
			// remainder may be empty or anything
			return true
		}
		if i >= len(pathParts) {
			return false
		}
		if part != "*" && part != pathParts[i] {
			return false
		}
	}
	return len(patternParts) == len(pathParts)
}

// PolicyMiddleware enforces the table: protected paths without a resolved
// identity are rejected before the handler runs.
func (h *HTTPHandler) PolicyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.policy.Classify(c.Request.URL.Path) == MustBeAuthenticated && CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}
		c.Next()
	}
}
