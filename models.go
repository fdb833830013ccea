package storyhub

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record persisted in the identity store.
//
// EmailConfirmed and Active are deliberately kept as two independent flags:
// the first is flipped exactly once by the owner of the email address, the
// second by an administrator, and login has to check both on every attempt.
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Admin          bool       `bun:"is_admin" json:"is_admin,omitempty"`
	Role           Role       `bun:"user_role,nullzero" json:"role,omitempty"`
	EmailConfirmed bool       `bun:"is_email_confirmed" json:"is_email_confirmed,omitempty"`
	Active         bool       `bun:"is_active" json:"is_active,omitempty"`
	LastLoginAt    *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AccountSummary is the caller-facing projection of an Account. It is the
// only account shape handlers are allowed to serialize; it cannot carry the
// password hash.
type AccountSummary struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Admin          bool       `json:"is_admin"`
	Role           Role       `json:"role,omitempty"`
	EmailConfirmed bool       `json:"email_confirmed"`
	Active         bool       `json:"active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// Summary projects the account into its caller-facing shape.
func (a *Account) Summary() AccountSummary {
	if a == nil {
		return AccountSummary{}
	}
	return AccountSummary{
		ID:             a.ID,
		Username:       a.Username,
		Email:          a.Email,
		Admin:          a.Admin,
		Role:           a.Role,
		EmailConfirmed: a.EmailConfirmed,
		Active:         a.Active,
		LastLoginAt:    a.LastLoginAt,
	}
}
