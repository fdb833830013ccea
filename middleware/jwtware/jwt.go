// Package jwtware is the per-request authorization chain: it extracts the
// bearer token, verifies it through an injected validator, attaches the
// decoded principal to the request, and runs the route's capability gate.
// Both gates are pure functions of the token and the route policy; the
// middleware holds no mutable state and is safe under any concurrency.
package jwtware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization

	// ErrMissingToken is the fail-closed result when no token is present.
	ErrMissingToken = errors.New("missing or malformed JWT")
	// ErrAdminRequired is the capability-gate failure for admin routes.
	ErrAdminRequired = errors.New("admin privileges required")
	// ErrRoleRequired is the capability-gate failure for role-scoped routes.
	ErrRoleRequired = errors.New("required role not present")
	// ErrSessionRequired rejects structurally valid tokens that were not
	// issued as session credentials.
	ErrSessionRequired = errors.New("session token required")
)

// AuthClaims mirrors the claim surface of the core package without
// importing it (no import cycles). Authorization attributes are only
// trusted on session-purpose claims; the implementations guarantee that.
type AuthClaims interface {
	AccountID() string
	IsAdmin() bool
	IsSession() bool
	HasRole(role string) bool
}

// TokenValidator validates tokens and extracts claims without tying the
// middleware to a specific signing implementation.
type TokenValidator interface {
	Validate(raw string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(raw string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(raw string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrMissingToken
	}
	return f(raw)
}

// Config controls the middleware chain for a route group.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after both gates pass. Defaults to c.Next().
	SuccessHandler fiber.Handler
	// ErrorHandler converts gate failures into responses. The default
	// reports every authentication failure as a uniform 401 and every
	// capability failure as a uniform 403, leaking nothing about which
	// check failed.
	ErrorHandler func(*fiber.Ctx, error) error
	// TokenValidator is required.
	TokenValidator TokenValidator
	// ContextKey is the fiber.Locals key the claims are stored under.
	ContextKey string
	// TokenLookup is a comma-separated list of "<source>:<name>" entries
	// tried in order, e.g. "header:Authorization,query:token,cookie:jwt".
	TokenLookup string
	// AuthScheme is the expected header scheme prefix, default "Bearer".
	AuthScheme string
	// SessionOnly additionally requires session-purpose claims at the
	// authentication gate. Routes that merely need a verified signature
	// (none today) can leave it off; every authenticated route in the
	// platform sets it so a confirmation link can never act as a session.
	SessionOnly bool
	// RequireAdmin enables the admin capability gate.
	RequireAdmin bool
	// RequiredRole enables the narrower role-scoped gate. Admins pass it
	// implicitly.
	RequiredRole string
	// ContextEnricher propagates claims into the standard context. Called
	// after the gates pass.
	ContextEnricher func(ctx context.Context, claims AuthClaims) context.Context
}

// New builds the middleware chain handler.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, cfg.extractors())
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.SessionOnly && !claims.IsSession() {
			return cfg.ErrorHandler(c, ErrSessionRequired)
		}

		if err := capabilityGate(claims, cfg); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return cfg.SuccessHandler(c)
	}
}

// ClaimsFromContext returns the claims attached by the middleware, if any.
func ClaimsFromContext(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "claims"
	}
	claims, ok := c.Locals(key).(AuthClaims)
	return claims, ok
}

// capabilityGate checks route policy against the principal. It never
// consults anything but the claims, so it is safe on any number of
// concurrent requests.
func capabilityGate(claims AuthClaims, cfg Config) error {
	if cfg.RequireAdmin && !claims.IsAdmin() {
		return ErrAdminRequired
	}

	if cfg.RequiredRole != "" {
		if !claims.HasRole(cfg.RequiredRole) && !claims.IsAdmin() {
			return ErrRoleRequired
		}
	}

	return nil
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("jwtware: TokenValidator is required")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "claims"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// defaultErrorHandler reports authorization failures uniformly: 403 for the
// capability gates, 401 with a single stable message for everything else.
func defaultErrorHandler(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrAdminRequired), errors.Is(err, ErrRoleRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden",
		})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthenticated",
		})
	}
}
