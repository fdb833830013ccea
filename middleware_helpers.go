package storyhub

import (
	"context"

	"github.com/goliatone/storyhub/middleware/jwtware"
)

// SessionTokenValidator adapts the token service into the middleware's
// validator contract. Any verified token passes this layer; purpose and
// capability policy live in the middleware config.
func SessionTokenValidator(tokens *TokenService) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
		claims, err := tokens.Validate(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

// ContextEnricherAdapter stores the decoded claims in the standard context
// so handlers behind the middleware can read them with GetClaims.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	if decoded, ok := claims.(*Claims); ok {
		return WithClaimsContext(c, decoded)
	}
	return c
}

// SessionGuard builds the authentication middleware every token-bearing
// route sits behind. Confirmation-purpose tokens are rejected here.
func SessionGuard(tokens *TokenService) jwtware.Config {
	return jwtware.Config{
		TokenValidator:  SessionTokenValidator(tokens),
		SessionOnly:     true,
		ContextEnricher: ContextEnricherAdapter,
	}
}

// SessionGuardFromConfig is SessionGuard with the extraction surface taken
// from the shared Config.
func SessionGuardFromConfig(cfg Config, tokens *TokenService) jwtware.Config {
	guard := SessionGuard(tokens)
	if cfg == nil {
		return guard
	}

	guard.ContextKey = cfg.GetContextKey()
	guard.TokenLookup = cfg.GetTokenLookup()
	guard.AuthScheme = cfg.GetAuthScheme()
	return guard
}

// AdminGuard is the session guard with the admin capability gate enabled.
func AdminGuard(tokens *TokenService) jwtware.Config {
	cfg := SessionGuard(tokens)
	cfg.RequireAdmin = true
	return cfg
}
