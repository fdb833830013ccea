package storyhub

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenTTL bounds every issued token. There is no revocation list;
// this expiry is the only compromise mitigation.
const DefaultTokenTTL = time.Hour

// TokenService signs and validates bearer tokens with a single process-wide
// HS256 secret. The secret is injected once at construction and never
// rotated at runtime.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// TokenOption customizes TokenService construction.
type TokenOption func(*TokenService)

// WithTokenTTL overrides the default one hour expiry.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.ttl = ttl
		}
	}
}

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger overrides the logger used for validation failures.
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService. An absent signing secret is a
// startup-fatal condition and returns ErrSigningSecretMissing.
func NewTokenService(signingKey []byte, issuer string, audience []string, opts ...TokenOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, ErrSigningSecretMissing
	}

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	ts := &TokenService{
		signingKey: signingKey,
		ttl:        DefaultTokenTTL,
		issuer:     issuer,
		audience:   aud,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// NewTokenServiceFromConfig builds a TokenService from the shared Config
// surface.
func NewTokenServiceFromConfig(cfg Config, opts ...TokenOption) (*TokenService, error) {
	if cfg == nil {
		return nil, ErrSigningSecretMissing
	}

	base := []TokenOption{WithTokenTTL(cfg.GetTokenTTL())}

	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		append(base, opts...)...,
	)
}

// TTL returns the configured token lifetime.
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// IssueConfirmation signs a confirmation-purpose token for the account. The
// claim set is deliberately minimal: account id and email, nothing that
// could be mistaken for an authenticated principal.
func (ts *TokenService) IssueConfirmation(account *Account) (string, error) {
	if account == nil {
		return "", errors.New("account must not be nil", errors.CategoryInternal)
	}

	claims := &Claims{
		RegisteredClaims: ts.registeredClaims(account.ID.String()),
		Purpose:          TokenPurposeConfirm,
		Email:            account.Email,
	}

	return ts.SignClaims(claims)
}

// IssueSession signs a session-purpose token carrying the account's
// authorization attributes as of issuance time.
func (ts *TokenService) IssueSession(account *Account) (string, error) {
	if account == nil {
		return "", errors.New("account must not be nil", errors.CategoryInternal)
	}

	claims := &Claims{
		RegisteredClaims: ts.registeredClaims(account.ID.String()),
		Purpose:          TokenPurposeSession,
		Username:         account.Username,
		Email:            account.Email,
		Admin:            account.Admin,
		UserRole:         string(account.Role),
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Validate parses and verifies a raw token. Verification is purpose-blind at
// this layer: a confirmation token and a session token are equally valid
// signatures. Callers that trust authorization attributes must either check
// Claims.Purpose themselves or go through ValidateForPurpose.
func (ts *TokenService) Validate(raw string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		// the parser checks that the token's aud list contains this one
		// expected value; issued tokens always carry the full audience
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, ErrTokenSignature
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(TextCodeTokenMalformed)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// ValidateForPurpose verifies the token and additionally rejects claims
// signed for a different intent with ErrTokenPurpose.
func (ts *TokenService) ValidateForPurpose(raw string, purpose TokenPurpose) (*Claims, error) {
	claims, err := ts.Validate(raw)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != purpose {
		ts.logger.Warn("token purpose mismatch", "want", string(purpose), "got", string(claims.Purpose))
		return nil, ErrTokenPurpose
	}

	return claims, nil
}

func (ts *TokenService) registeredClaims(subject string) jwt.RegisteredClaims {
	now := ts.now()

	rc := jwt.RegisteredClaims{
		Issuer:    ts.issuer,
		Subject:   subject,
		Audience:  ts.audience,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
	}

	ensureTokenID(&rc)

	return rc
}
