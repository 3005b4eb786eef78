// Package apigate normalizes inbound API traffic at the edge: it
// rewrites unversioned /api/ paths to the current version, answers
// CORS preflights before routing, and stamps CORS headers for allowed
// origins.
package apigate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DecisionKind tags what the gate decided for a request.
type DecisionKind int

const (
	// DecisionPass forwards the request untouched.
	DecisionPass DecisionKind = iota
	// DecisionRewrite forwards the request under a new path.
	DecisionRewrite
	// DecisionPreflight answers the request at the edge with the CORS
	// preflight response.
	DecisionPreflight
)

// Decision is the outcome of resolving one request.
type Decision struct {
	Kind DecisionKind
	// Path is the rewritten path, set only for DecisionRewrite.
	Path string
}

const (
	defaultPrefix         = "/api"
	defaultVersion        = "v1"
	defaultAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	defaultAllowedHeaders = "Content-Type, Authorization, X-CSRF-Token"
	defaultMaxAge         = 86400
)

var versionedPath = regexp.MustCompile(`^/api/v\d+(/|$)`)

// Policy describes how the gate treats incoming requests. The zero
// value routes /api/ traffic to v1 with no CORS origins allowed.
type Policy struct {
	// Prefix is the API mount point, "/api" by default.
	Prefix string

	// Version is the target version for unversioned paths, "v1" by
	// default.
	Version string

	// ExemptPaths are exact paths the gate never rewrites.
	ExemptPaths []string

	// ExemptPrefixes are path prefixes the gate never rewrites, e.g.
	// an admin mount or legacy endpoints served outside versioning.
	ExemptPrefixes []string

	// AllowedOrigins is the CORS allow-list. Origins are matched
	// exactly; "*" allows everyone without credentials.
	AllowedOrigins []string

	// AllowedMethods and AllowedHeaders fill the preflight response.
	AllowedMethods string
	AllowedHeaders string

	// MaxAgeSeconds caches the preflight result client-side.
	MaxAgeSeconds int

	// Environment, when set, is echoed in the X-Environment header so
	// clients can tell which deployment answered.
	Environment string
}

func (p Policy) prefix() string {
	if p.Prefix == "" {
		return defaultPrefix
	}
	return strings.TrimSuffix(p.Prefix, "/")
}

func (p Policy) version() string {
	if p.Version == "" {
		return defaultVersion
	}
	return p.Version
}

func (p Policy) allowedMethods() string {
	if p.AllowedMethods == "" {
		return defaultAllowedMethods
	}
	return p.AllowedMethods
}

func (p Policy) allowedHeaders() string {
	if p.AllowedHeaders == "" {
		return defaultAllowedHeaders
	}
	return p.AllowedHeaders
}

func (p Policy) maxAge() int {
	if p.MaxAgeSeconds <= 0 {
		return defaultMaxAge
	}
	return p.MaxAgeSeconds
}

// Resolve decides what happens to a request. It is pure: method, path,
// and origin in, decision out. OPTIONS only counts as a CORS preflight
// when the request carries an Origin; plain OPTIONS requests fall
// through so routed OPTIONS handlers still run.
func (p Policy) Resolve(method, path, origin string) Decision {
	if strings.EqualFold(method, fiber.MethodOptions) && origin != "" {
		return Decision{Kind: DecisionPreflight}
	}

	prefix := p.prefix()

	if path != prefix && !strings.HasPrefix(path, prefix+"/") {
		return Decision{Kind: DecisionPass}
	}

	for _, exempt := range p.ExemptPaths {
		if path == exempt {
			return Decision{Kind: DecisionPass}
		}
	}

	for _, exempt := range p.ExemptPrefixes {
		if exempt != "" && strings.HasPrefix(path, exempt) {
			return Decision{Kind: DecisionPass}
		}
	}

	if versionedPath.MatchString(path) {
		return Decision{Kind: DecisionPass}
	}

	remainder := strings.TrimPrefix(path, prefix)
	rewritten := prefix + "/" + p.version() + remainder

	return Decision{
		Kind: DecisionRewrite,
		Path: rewritten,
	}
}

// OriginAllowed reports whether the origin is on the allow-list.
func (p Policy) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range p.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	return false
}

// New builds the edge middleware. Mount it with app.Use before any
// route registration so rewrites happen ahead of dispatch.
func New(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)

		if policy.OriginAllowed(origin) {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
			c.Vary(fiber.HeaderOrigin)
		}

		if policy.Environment != "" {
			c.Set("X-Environment", policy.Environment)
		}

		decision := policy.Resolve(c.Method(), c.Path(), origin)

		switch decision.Kind {
		case DecisionPreflight:
			c.Set(fiber.HeaderAccessControlAllowMethods, policy.allowedMethods())
			c.Set(fiber.HeaderAccessControlAllowHeaders, policy.allowedHeaders())
			c.Set(fiber.HeaderAccessControlMaxAge, strconv.Itoa(policy.maxAge()))
			return c.SendStatus(fiber.StatusNoContent)

		case DecisionRewrite:
			c.Path(decision.Path)
			return c.Next()

		default:
			return c.Next()
		}
	}
}
