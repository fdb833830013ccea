package storyhub

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPurpose tags the intent a token was signed for. One secret backs both
// intents, so the tag is the only thing keeping a confirmation link from
// doubling as a session credential.
type TokenPurpose string

const (
	// TokenPurposeConfirm proves "this email confirmation was requested for
	// this account" and nothing more.
	TokenPurposeConfirm TokenPurpose = "confirm"
	// TokenPurposeSession proves an authenticated principal with the
	// authorization attributes captured at issuance time.
	TokenPurposeSession TokenPurpose = "session"
)

// Claims is the signed payload of every bearer token. Confirmation claims
// carry only subject and email; session claims additionally carry username,
// admin flag, and role.
type Claims struct {
	jwt.RegisteredClaims
	Purpose  TokenPurpose `json:"purpose,omitempty"`
	Username string       `json:"username,omitempty"`
	Email    string       `json:"email,omitempty"`
	Admin    bool         `json:"admin,omitempty"`
	UserRole string       `json:"role,omitempty"`
}

// AccountID returns the subject claim, the account's opaque id.
func (c *Claims) AccountID() string {
	return c.RegisteredClaims.Subject
}

// AccountUUID parses the subject claim as a UUID.
func (c *Claims) AccountUUID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// IsSession reports whether this is a session-purpose token.
func (c *Claims) IsSession() bool {
	return c.Purpose == TokenPurposeSession
}

// IsAdmin reports the admin capability. Admin is only ever honored on
// session-purpose claims: a confirmation token decodes cleanly but can never
// clear the capability gate.
func (c *Claims) IsAdmin() bool {
	return c.IsSession() && c.Admin
}

// HasRole reports whether the principal carries the given elevated role.
// Like Admin, roles are only trusted on session-purpose claims.
func (c *Claims) HasRole(role string) bool {
	return c.IsSession() && role != "" && c.UserRole == role
}

// Expires returns the expiration time, zero if absent.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issued-at time, zero if absent.
func (c *Claims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}
