package auth_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-auth-api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokenRoundTrip(t *testing.T) {
	service := auth.NewResetTokenService(testConfig{}, nil)
	userID := uuid.NewString()

	token, err := service.Generate(userID, "person@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := service.Verify(token)
	require.NotNil(t, claims)

	assert.Equal(t, userID, claims.UID)
	assert.Equal(t, "person@example.com", claims.UserEmail)
	assert.True(t, claims.EmailMatches("Person@Example.com"))
	assert.False(t, claims.EmailMatches("other@example.com"))
}

func TestResetTokenVerifyReturnsNilOnFailure(t *testing.T) {
	service := auth.NewResetTokenService(testConfig{}, nil)

	t.Run("garbage input", func(t *testing.T) {
		assert.Nil(t, service.Verify("not-a-token"))
		assert.Nil(t, service.Verify(""))
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewResetTokenService(testConfig{resetTTL: -1 * time.Minute}, nil)

		token, err := expired.Generate(uuid.NewString(), "person@example.com")
		require.NoError(t, err)

		assert.Nil(t, expired.Verify(token))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := auth.NewResetTokenService(testConfig{signingKey: "another-signing-key-0123456789"}, nil)

		token, err := other.Generate(uuid.NewString(), "person@example.com")
		require.NoError(t, err)

		assert.Nil(t, service.Verify(token))
	})

	t.Run("session token is not a reset token", func(t *testing.T) {
		// Same secret, different scope. A session token must never
		// pass the reset codec.
		tokens := auth.NewTokenService(testConfig{}, nil)

		session, err := tokens.Issue(auth.NewIdentityFromUser(newTestUser()), auth.TokenKindAccess)
		require.NoError(t, err)

		assert.Nil(t, service.Verify(session))
	})
}

func TestResetTokenTTL(t *testing.T) {
	service := auth.NewResetTokenService(testConfig{resetTTL: 45 * time.Minute}, nil)
	assert.Equal(t, 45*time.Minute, service.TTL())
}
