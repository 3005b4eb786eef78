package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-auth-api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupRegistryDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := auth.OpenSQLite("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	_, err = db.NewCreateTable().Model((*auth.User)(nil)).IfNotExists().Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateTable().Model((*auth.IssuedToken)(nil)).IfNotExists().Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewTruncateTable().Model((*auth.IssuedToken)(nil)).Exec(ctx)
	require.NoError(t, err)

	return db
}

func TestTokenRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupRegistryDB(t)
	registry := auth.NewTokensRepository(db)

	userID := uuid.New()
	raw := "header.payload.signature"
	expiresAt := time.Now().Add(15 * time.Minute)

	require.NoError(t, registry.Record(ctx, raw, userID, auth.TokenKindAccess, expiresAt))

	live, err := registry.IsLive(ctx, raw)
	require.NoError(t, err)
	assert.True(t, live)

	invalidated, err := registry.Invalidate(ctx, raw)
	require.NoError(t, err)
	assert.True(t, invalidated)

	live, err = registry.IsLive(ctx, raw)
	require.NoError(t, err)
	assert.False(t, live)

	// Idempotent: the second invalidation finds nothing left to do.
	invalidated, err = registry.Invalidate(ctx, raw)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestTokenRegistryUnknownToken(t *testing.T) {
	ctx := context.Background()
	db := setupRegistryDB(t)
	registry := auth.NewTokensRepository(db)

	live, err := registry.IsLive(ctx, "never-recorded")
	require.NoError(t, err)
	assert.False(t, live)

	invalidated, err := registry.Invalidate(ctx, "never-recorded")
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestTokenRegistryInvalidateAllForUser(t *testing.T) {
	ctx := context.Background()
	db := setupRegistryDB(t)
	registry := auth.NewTokensRepository(db)

	userID := uuid.New()
	otherID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	require.NoError(t, registry.Record(ctx, "user-access", userID, auth.TokenKindAccess, expiresAt))
	require.NoError(t, registry.Record(ctx, "user-refresh", userID, auth.TokenKindRefresh, expiresAt))
	require.NoError(t, registry.Record(ctx, "other-access", otherID, auth.TokenKindAccess, expiresAt))

	count, err := registry.InvalidateAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, raw := range []string{"user-access", "user-refresh"} {
		live, err := registry.IsLive(ctx, raw)
		require.NoError(t, err)
		assert.False(t, live, "token %q should be dead", raw)
	}

	live, err := registry.IsLive(ctx, "other-access")
	require.NoError(t, err)
	assert.True(t, live, "other users keep their sessions")

	count, err = registry.InvalidateAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTokenRegistryStoresOnlyHashes(t *testing.T) {
	ctx := context.Background()
	db := setupRegistryDB(t)
	registry := auth.NewTokensRepository(db)

	raw := "plaintext-session-token"
	require.NoError(t, registry.Record(ctx, raw, uuid.New(), auth.TokenKindAccess, time.Now().Add(time.Hour)))

	record := new(auth.IssuedToken)
	err := db.NewSelect().Model(record).Limit(1).Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, auth.HashToken(raw), record.TokenHash)
	assert.NotContains(t, record.TokenHash, raw)
	assert.NotNil(t, record.ExpiresAt)
	assert.True(t, record.IsLive())
}

func TestHashTokenDeterministic(t *testing.T) {
	assert.Equal(t, auth.HashToken("abc"), auth.HashToken("abc"))
	assert.NotEqual(t, auth.HashToken("abc"), auth.HashToken("abd"))
	assert.Len(t, auth.HashToken("abc"), 64)
}
