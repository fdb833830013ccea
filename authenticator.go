package storyhub

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LoginResult is what a successful authentication returns: the account
// summary (never the hash) and a session-purpose bearer token.
type LoginResult struct {
	Account AccountSummary `json:"account"`
	Token   string         `json:"token"`
}

// Authenticator is the session manager: it authenticates credentials,
// issues session tokens, and re-issues them for already-verified bearers.
// It holds no per-request state and is safe for concurrent use.
type Authenticator struct {
	store  AccountStore
	tokens *TokenService
	logger Logger
	sink   ActivitySink

	// decoyHash is burned on unknown emails so lookups that miss cost
	// roughly a bcrypt verification, same as a wrong password.
	decoyHash string
}

// AuthenticatorOption customizes Authenticator construction.
type AuthenticatorOption func(*Authenticator)

// WithAuthenticatorLogger overrides the default logger.
func WithAuthenticatorLogger(logger Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAuthenticatorActivitySink configures the sink for login events.
func WithAuthenticatorActivitySink(sink ActivitySink) AuthenticatorOption {
	return func(a *Authenticator) {
		a.sink = normalizeActivitySink(sink)
	}
}

// NewAuthenticator returns a new Authenticator.
func NewAuthenticator(store AccountStore, tokens *TokenService, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		store:     store,
		tokens:    tokens,
		logger:    defLogger{},
		sink:      noopActivitySink{},
		decoyHash: RandomPasswordHash(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Login authenticates the credential pair and issues a session token.
//
// Unknown email and wrong password both report ErrInvalidCredentials so the
// response never reveals which one it was. The confirmation and activation
// gates run before password verification: an unconfirmed or inactive account
// never learns whether the password was correct.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			_ = ComparePasswordAndHash(password, a.decoyHash)
			a.emitFailure(ctx, email, ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if !account.EmailConfirmed {
		a.emitFailure(ctx, email, ErrEmailUnconfirmed)
		return nil, ErrEmailUnconfirmed
	}

	if !account.Active {
		a.emitFailure(ctx, email, ErrAccountInactive)
		return nil, ErrAccountInactive
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		a.emitFailure(ctx, email, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if err := a.trackLogin(ctx, account); err != nil {
		a.logger.Error("failed to track successful login", "error", err, "account", account.ID.String())
	}

	token, err := a.tokens.IssueSession(account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: account.ID.String(), Type: "user"},
		AccountID: account.ID.String(),
	})

	return &LoginResult{Account: account.Summary(), Token: token}, nil
}

// Reissue trusts the identity asserted by an already-verified session token,
// re-derives the account, and issues a fresh token with its current
// authorization attributes. Role or admin edits take effect here without a
// full re-login. The issuance invariant still holds: an account that has
// been deactivated or was never confirmed cannot refresh.
func (a *Authenticator) Reissue(ctx context.Context, claims *Claims) (*LoginResult, error) {
	if claims == nil || !claims.IsSession() {
		return nil, ErrTokenPurpose
	}

	id, err := claims.AccountUUID()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	account, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.EmailConfirmed {
		return nil, ErrEmailUnconfirmed
	}

	if !account.Active {
		return nil, ErrAccountInactive
	}

	token, err := a.tokens.IssueSession(account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reissue session token")
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventTokenReissued,
		Actor:     ActorRef{ID: account.ID.String(), Type: "user"},
		AccountID: account.ID.String(),
	})

	return &LoginResult{Account: account.Summary(), Token: token}, nil
}

func (a *Authenticator) trackLogin(ctx context.Context, account *Account) error {
	if tracker, ok := a.store.(LoginTracker); ok {
		return tracker.TrackSuccessfulLogin(ctx, account)
	}

	now := time.Now()
	account.LastLoginAt = &now
	_, err := a.store.Save(ctx, account)
	return err
}

func (a *Authenticator) emitFailure(ctx context.Context, email string, cause error) {
	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Metadata: map[string]any{
			"identifier": email,
			"error":      cause.Error(),
		},
	})
}

func (a *Authenticator) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeActivitySink(a.sink).Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error", "error", err)
	}
}
