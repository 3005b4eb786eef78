package auth_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-auth-api"
	"github.com/stretchr/testify/assert"
)

func TestUserAddMetadata(t *testing.T) {
	user := &auth.User{}

	user.AddMetadata("source", "signup").AddMetadata("campaign", "spring")

	assert.Equal(t, "signup", user.Metadata["source"])
	assert.Equal(t, "spring", user.Metadata["campaign"])

	user.AddMetadata("source", "import")
	assert.Equal(t, "import", user.Metadata["source"])
}

func TestIssuedTokenIsLive(t *testing.T) {
	token := &auth.IssuedToken{}
	assert.True(t, token.IsLive())

	now := time.Now()
	token.InvalidatedAt = &now
	assert.False(t, token.IsLive())
}
