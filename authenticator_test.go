package storyhub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/storyhub"
)

func seedAccount(t *testing.T, store *memStore, email, password string, mutate func(*storyhub.Account)) *storyhub.Account {
	t.Helper()

	hash, err := storyhub.HashPassword(password)
	require.NoError(t, err)

	account := &storyhub.Account{
		Username:       "seeded",
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		Active:         true,
	}
	if mutate != nil {
		mutate(account)
	}

	account, err = store.Insert(context.Background(), account)
	require.NoError(t, err)
	return account
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*storyhub.Account)
		email    string
		password string
		wantCode string
	}{
		{
			name:     "valid credentials",
			email:    "user@example.com",
			password: "password-123",
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "password-123",
			wantCode: storyhub.TextCodeInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "user@example.com",
			password: "wrong-password",
			wantCode: storyhub.TextCodeInvalidCredentials,
		},
		{
			name:     "unconfirmed email",
			mutate:   func(a *storyhub.Account) { a.EmailConfirmed = false },
			email:    "user@example.com",
			password: "password-123",
			wantCode: storyhub.TextCodeEmailUnconfirmed,
		},
		{
			name:     "inactive account",
			mutate:   func(a *storyhub.Account) { a.Active = false },
			email:    "user@example.com",
			password: "password-123",
			wantCode: storyhub.TextCodeAccountInactive,
		},
		{
			// the confirmation gate runs before password verification, so
			// an unconfirmed account learns nothing about its credential
			name:     "unconfirmed email with wrong password",
			mutate:   func(a *storyhub.Account) { a.EmailConfirmed = false },
			email:    "user@example.com",
			password: "wrong-password",
			wantCode: storyhub.TextCodeEmailUnconfirmed,
		},
		{
			// the activation gate runs before password verification, so a
			// blocked account learns nothing about its credential
			name:     "inactive account with wrong password",
			mutate:   func(a *storyhub.Account) { a.Active = false },
			email:    "user@example.com",
			password: "wrong-password",
			wantCode: storyhub.TextCodeAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			tokens := newTokenService(t)
			seedAccount(t, store, "user@example.com", "password-123", tt.mutate)

			auther := storyhub.NewAuthenticator(store, tokens)

			result, err := auther.Login(context.Background(), tt.email, tt.password)

			if tt.wantCode != "" {
				assert.True(t, storyhub.HasTextCode(err, tt.wantCode),
					"want code %s, got %v", tt.wantCode, err)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.NotEmpty(t, result.Token)
			assert.Equal(t, "user@example.com", result.Account.Email)
		})
	}
}

func TestLoginIssuesSessionToken(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	seedAccount(t, store, "claims@example.com", "password-123", func(a *storyhub.Account) {
		a.Admin = true
		a.Role = storyhub.RoleEditor
	})

	auther := storyhub.NewAuthenticator(store, tokens)

	result, err := auther.Login(context.Background(), "claims@example.com", "password-123")
	require.NoError(t, err)

	claims, err := tokens.ValidateForPurpose(result.Token, storyhub.TokenPurposeSession)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.True(t, claims.HasRole(storyhub.RoleEditor.String()))
}

func TestLoginTracksLastLogin(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	account := seedAccount(t, store, "track@example.com", "password-123", nil)

	// store with the LoginTracker upgrade gets the record-level touch
	auther := storyhub.NewAuthenticator(trackerStore{store}, tokens)

	_, err := auther.Login(context.Background(), "track@example.com", "password-123")
	require.NoError(t, err)
	assert.Equal(t, 1, store.loginTracked)

	stored, err := store.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginFallsBackToSaveWithoutTracker(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	account := seedAccount(t, store, "fallback@example.com", "password-123", nil)

	auther := storyhub.NewAuthenticator(store, tokens)

	_, err := auther.Login(context.Background(), "fallback@example.com", "password-123")
	require.NoError(t, err)
	assert.Zero(t, store.loginTracked)

	stored, err := store.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginEmitsActivity(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	sink := &recordingSink{}
	seedAccount(t, store, "audit@example.com", "password-123", nil)

	auther := storyhub.NewAuthenticator(store, tokens,
		storyhub.WithAuthenticatorActivitySink(sink),
	)

	_, _ = auther.Login(context.Background(), "audit@example.com", "wrong")
	_, err := auther.Login(context.Background(), "audit@example.com", "password-123")
	require.NoError(t, err)

	recorded := sink.types()
	assert.Contains(t, recorded, storyhub.ActivityEventLoginFailure)
	assert.Contains(t, recorded, storyhub.ActivityEventLoginSuccess)
}

func TestReissue(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	account := seedAccount(t, store, "reissue@example.com", "password-123", func(a *storyhub.Account) {
		a.Admin = true
	})

	auther := storyhub.NewAuthenticator(store, tokens)

	result, err := auther.Login(context.Background(), "reissue@example.com", "password-123")
	require.NoError(t, err)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)

	// fresh token, same principal
	refreshed, err := auther.Reissue(context.Background(), claims)
	require.NoError(t, err)
	assert.NotEqual(t, result.Token, refreshed.Token)

	refreshedClaims, err := tokens.Validate(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, claims.AccountID(), refreshedClaims.AccountID())
	assert.Equal(t, claims.Email, refreshedClaims.Email)
	assert.Equal(t, claims.Username, refreshedClaims.Username)
	assert.Equal(t, claims.Admin, refreshedClaims.Admin)
	assert.Equal(t, claims.UserRole, refreshedClaims.UserRole)

	// role changed since issuance: the fresh token carries the new role
	stored, err := store.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	stored.Role = storyhub.RoleCoEditor
	_, err = store.Save(context.Background(), stored)
	require.NoError(t, err)

	fresh, err := auther.Reissue(context.Background(), claims)
	require.NoError(t, err)

	freshClaims, err := tokens.Validate(fresh.Token)
	require.NoError(t, err)
	assert.True(t, freshClaims.HasRole(storyhub.RoleCoEditor.String()))
}

func TestReissueGates(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	account := seedAccount(t, store, "gated@example.com", "password-123", nil)

	auther := storyhub.NewAuthenticator(store, tokens)

	result, err := auther.Login(context.Background(), "gated@example.com", "password-123")
	require.NoError(t, err)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)

	// deactivated accounts cannot refresh even with a valid token
	stored, err := store.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	stored.Active = false
	_, err = store.Save(context.Background(), stored)
	require.NoError(t, err)

	_, err = auther.Reissue(context.Background(), claims)
	assert.True(t, storyhub.HasTextCode(err, storyhub.TextCodeAccountInactive))
}

func TestReissueRejectsConfirmationClaims(t *testing.T) {
	store := newMemStore()
	tokens := newTokenService(t)
	account := seedAccount(t, store, "noconfirm@example.com", "password-123", nil)

	auther := storyhub.NewAuthenticator(store, tokens)

	raw, err := tokens.IssueConfirmation(account)
	require.NoError(t, err)

	claims, err := tokens.Validate(raw)
	require.NoError(t, err)

	_, err = auther.Reissue(context.Background(), claims)
	assert.True(t, storyhub.HasTextCode(err, storyhub.TextCodeTokenPurpose))

	_, err = auther.Reissue(context.Background(), nil)
	assert.Error(t, err)
}
