package storyhub

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/goliatone/storyhub/mailer"
	"github.com/google/uuid"
)

// RegisterMessage carries a registration request. Admin, Active, and
// Confirmed are only honored on the administrative provisioning path; the
// public signup handler never sets them. A pre-confirmed account skips the
// email handshake entirely, so no confirmation message is dispatched.
type RegisterMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role,omitempty"`
	Admin     bool   `json:"-"`
	Active    *bool  `json:"-"`
	Confirmed bool   `json:"-"`
	UseHashid bool   `json:"-"`
}

func (e RegisterMessage) Type() string { return "account.register" }

// ConfirmStatus is the outcome of a confirmation handshake.
type ConfirmStatus string

const (
	// ConfirmCompleted means the flag was flipped by this call.
	ConfirmCompleted ConfirmStatus = "confirmed"
	// ConfirmAlreadyDone means the account was confirmed before this call.
	// It is an idempotent success, not an error.
	ConfirmAlreadyDone ConfirmStatus = "already-confirmed"
)

// Lifecycle owns account creation, the email-confirmation handshake,
// password change, and the administrative activation/role operations.
type Lifecycle struct {
	store   AccountStore
	tokens  *TokenService
	mail    mailer.Mailer
	baseURL string
	logger  Logger
	sink    ActivitySink
}

// LifecycleOption customizes Lifecycle construction.
type LifecycleOption func(*Lifecycle)

// WithLifecycleLogger overrides the default logger.
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConfirmationBaseURL sets the public base URL embedded in confirmation
// links.
func WithConfirmationBaseURL(baseURL string) LifecycleOption {
	return func(l *Lifecycle) {
		l.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLifecycleActivitySink configures the sink for lifecycle events.
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *Lifecycle) {
		l.sink = normalizeActivitySink(sink)
	}
}

// NewLifecycle wires the lifecycle manager over its collaborators.
func NewLifecycle(store AccountStore, tokens *TokenService, mail mailer.Mailer, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		store:  store,
		tokens: tokens,
		mail:   mail,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// Register creates a new unconfirmed account and dispatches the confirmation
// email. The account row exists before the token referencing it is signed;
// a failed dispatch leaves the account confirmable but unnotified and is
// reported through the sink and logs, never by rolling the account back.
func (l *Lifecycle) Register(ctx context.Context, msg RegisterMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during registration")
	default:
	}

	email := normalizeEmail(msg.Email)

	if _, err := l.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !IsAccountNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Username:       getUsername(msg.Username, email),
		Email:          email,
		PasswordHash:   hash,
		Admin:          msg.Admin,
		Role:           msg.Role,
		EmailConfirmed: msg.Confirmed,
		Active:         true,
	}

	if msg.Active != nil {
		account.Active = *msg.Active
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			account.ID = id
		}
	}

	if account, err = l.store.Insert(ctx, account); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "user"},
		AccountID: account.ID.String(),
	})

	if !account.EmailConfirmed {
		l.dispatchConfirmation(ctx, account)
	}

	return account, nil
}

// ResendConfirmation re-issues the confirmation token and dispatches a fresh
// confirmation email for an account that never completed the handshake.
func (l *Lifecycle) ResendConfirmation(ctx context.Context, email string) error {
	account, err := l.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	if account.EmailConfirmed {
		return nil
	}

	l.dispatchConfirmation(ctx, account)
	return nil
}

// ConfirmEmail verifies a confirmation-purpose token and flips the flag.
// The transition is monotonic: a second call with a still-valid token for an
// already-confirmed account reports ConfirmAlreadyDone, never an error.
func (l *Lifecycle) ConfirmEmail(ctx context.Context, raw string) (*Account, ConfirmStatus, error) {
	claims, err := l.tokens.ValidateForPurpose(raw, TokenPurposeConfirm)
	if err != nil {
		return nil, "", err
	}

	id, err := claims.AccountUUID()
	if err != nil {
		return nil, "", ErrTokenMalformed
	}

	account, err := l.store.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if account.EmailConfirmed {
		return account, ConfirmAlreadyDone, nil
	}

	account.EmailConfirmed = true
	if _, err := l.store.Save(ctx, account); err != nil {
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist email confirmation")
	}

	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventEmailConfirmed,
		Actor:     ActorRef{ID: account.ID.String(), Type: "user"},
		AccountID: account.ID.String(),
	})

	return account, ConfirmCompleted, nil
}

// ChangePassword verifies the current credential before re-hashing and
// persisting the new one. No password-history or strength policy applies.
func (l *Lifecycle) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	account, err := l.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := ComparePasswordAndHash(currentPassword, account.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account.PasswordHash = hash
	if _, err := l.store.Save(ctx, account); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password change")
	}

	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChange,
		Actor:     ActorRef{ID: account.ID.String(), Type: "user"},
		AccountID: account.ID.String(),
	})

	return nil
}

// SetActive flips the activation flag. Administrative only; route policy is
// enforced by the middleware chain, not here.
func (l *Lifecycle) SetActive(ctx context.Context, actor ActorRef, id uuid.UUID, active bool) (*Account, error) {
	account, err := l.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.Active == active {
		return account, nil
	}

	account.Active = active
	if account, err = l.store.Save(ctx, account); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist activation change")
	}

	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventActiveChanged,
		Actor:     actor,
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"active": active},
	})

	return account, nil
}

// SetRole grants or clears an elevated role.
func (l *Lifecycle) SetRole(ctx context.Context, actor ActorRef, id uuid.UUID, role Role) (*Account, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	account, err := l.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.Role = role
	if account, err = l.store.Save(ctx, account); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist role change")
	}

	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventRoleChanged,
		Actor:     actor,
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"role": string(role)},
	})

	return account, nil
}

// ConfirmationLink builds the public link embedding the token.
func (l *Lifecycle) ConfirmationLink(token string) string {
	base := l.baseURL
	if base == "" {
		base = "http://localhost:3000"
	}
	return fmt.Sprintf("%s/auth/confirm-email?token=%s", base, token)
}

func (l *Lifecycle) dispatchConfirmation(ctx context.Context, account *Account) {
	token, err := l.tokens.IssueConfirmation(account)
	if err != nil {
		l.logger.Error("failed to issue confirmation token", "error", err, "account", account.ID.String())
		return
	}

	body := mailer.ConfirmationBody(account.Username, l.ConfirmationLink(token))
	if err := l.mail.Send(ctx, account.Email, mailer.SubjectEmailConfirmation, body); err != nil {
		wrapped := goerrors.Wrap(err, ErrNotificationDelivery.Category, ErrNotificationDelivery.Message).
			WithTextCode(TextCodeNotificationFailed)
		l.logger.Warn("confirmation email dispatch failed, account stays confirmable", "error", wrapped, "account", account.ID.String())
	}
}

func (l *Lifecycle) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeActivitySink(l.sink).Record(ctx, event); err != nil {
		l.logger.Warn("activity sink record error", "error", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
