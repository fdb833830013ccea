package storyhub_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/storyhub"
)

func TestClaimsAccountUUID(t *testing.T) {
	id := uuid.New()
	claims := &storyhub.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
	}

	got, err := claims.AccountUUID()
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	claims.Subject = "not-a-uuid"
	_, err = claims.AccountUUID()
	assert.Error(t, err)
}

func TestClaimsAuthorizationRequiresSessionPurpose(t *testing.T) {
	tests := []struct {
		name        string
		purpose     storyhub.TokenPurpose
		admin       bool
		role        string
		wantAdmin   bool
		wantRole    bool
		wantSession bool
	}{
		{
			name:        "session admin",
			purpose:     storyhub.TokenPurposeSession,
			admin:       true,
			role:        "editor",
			wantAdmin:   true,
			wantRole:    true,
			wantSession: true,
		},
		{
			name:        "session non-admin",
			purpose:     storyhub.TokenPurposeSession,
			wantSession: true,
		},
		{
			// a forged or mis-issued confirmation token with admin-shaped
			// claims must never clear an authorization check
			name:    "confirm with admin claims",
			purpose: storyhub.TokenPurposeConfirm,
			admin:   true,
			role:    "editor",
		},
		{
			name:  "missing purpose",
			admin: true,
			role:  "editor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &storyhub.Claims{
				Purpose:  tt.purpose,
				Admin:    tt.admin,
				UserRole: tt.role,
			}

			assert.Equal(t, tt.wantSession, claims.IsSession())
			assert.Equal(t, tt.wantAdmin, claims.IsAdmin())
			assert.Equal(t, tt.wantRole, claims.HasRole("editor"))
		})
	}
}

func TestClaimsHasRole(t *testing.T) {
	claims := &storyhub.Claims{
		Purpose:  storyhub.TokenPurposeSession,
		UserRole: "editor",
	}

	assert.True(t, claims.HasRole("editor"))
	assert.False(t, claims.HasRole("sub-admin"))
	assert.False(t, claims.HasRole(""))
}
