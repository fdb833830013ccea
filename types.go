package storyhub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger is the minimal structured logging surface the core needs. It is
// satisfied by glog.Logger; defLogger is the stdout fallback.
type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
}

// Config holds auth options.
type Config interface {
	GetSigningKey() string
	GetTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// AccountStore is the contract the lifecycle and session managers consume
// from the external identity store: keyed lookups, insert, update. Uniqueness
// of email and username is enforced by the store; Insert surfaces violations
// as ErrDuplicateEmail/ErrDuplicateUsername. Lookups that do not resolve
// return ErrAccountNotFound.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Insert(ctx context.Context, account *Account) (*Account, error)
	Save(ctx context.Context, account *Account) (*Account, error)
}

// LoginTracker is an optional AccountStore upgrade. Stores that implement it
// get the last-login touch as a single record-level write instead of a full
// account save.
type LoginTracker interface {
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

type defLogger struct{}

func (d defLogger) Error(message string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(message), args...)
}

func (d defLogger) Warn(message string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(message), args...)
}

func (d defLogger) Info(message string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(message), args...)
}

func (d defLogger) Debug(message string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(message), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
