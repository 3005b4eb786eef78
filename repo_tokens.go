package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenRegistry is the persistent record of issued session tokens. A
// token is only honored while its record is live; when the registry
// cannot answer, callers treat the token as invalid.
type TokenRegistry interface {
	Record(ctx context.Context, raw string, userID uuid.UUID, kind TokenKind, expiresAt time.Time) error
	IsLive(ctx context.Context, raw string) (bool, error)
	Invalidate(ctx context.Context, raw string) (bool, error)
	InvalidateAllForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type Tokens interface {
	repository.Repository[*IssuedToken]
	TokenRegistry
}

type tokens struct {
	repository.Repository[*IssuedToken]
	db *bun.DB
}

var (
	_ Tokens                              = (*tokens)(nil)
	_ repository.Repository[*IssuedToken] = (*tokens)(nil)
)

func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*IssuedToken](db, repository.ModelHandlers[*IssuedToken]{
		NewRecord: func() *IssuedToken { return &IssuedToken{} },
		GetID: func(t *IssuedToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *IssuedToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token_hash"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

// HashToken derives the storage key for a raw token. Raw tokens never
// touch the database.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (a *tokens) Record(ctx context.Context, raw string, userID uuid.UUID, kind TokenKind, expiresAt time.Time) error {
	now := time.Now()
	record := &IssuedToken{
		ID:        uuid.New(),
		TokenHash: HashToken(raw),
		UserID:    userID,
		Kind:      kind,
		IssuedAt:  &now,
	}

	if !expiresAt.IsZero() {
		record.ExpiresAt = &expiresAt
	}

	if _, err := a.Repository.Create(ctx, record); err != nil {
		return WrapStorageError(err, "unable to record issued token")
	}

	return nil
}

func (a *tokens) IsLive(ctx context.Context, raw string) (bool, error) {
	record := &IssuedToken{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.token_hash = ?", HashToken(raw)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, WrapStorageError(err, "unable to check token liveness")
	}

	return record.IsLive(), nil
}

func (a *tokens) Invalidate(ctx context.Context, raw string) (bool, error) {
	now := time.Now()
	res, err := a.db.NewUpdate().
		Model((*IssuedToken)(nil)).
		Set("invalidated_at = ?", now).
		Where("token_hash = ?", HashToken(raw)).
		Where("invalidated_at IS NULL").
		Exec(ctx)

	if err != nil {
		return false, WrapStorageError(err, "unable to invalidate token")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, WrapStorageError(err, "unable to invalidate token")
	}

	return rows > 0, nil
}

func (a *tokens) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	now := time.Now()
	res, err := a.db.NewUpdate().
		Model((*IssuedToken)(nil)).
		Set("invalidated_at = ?", now).
		Where("user_id = ?", userID).
		Where("invalidated_at IS NULL").
		Exec(ctx)

	if err != nil {
		return 0, WrapStorageError(err, "unable to invalidate user tokens")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, WrapStorageError(err, "unable to invalidate user tokens")
	}

	return int(rows), nil
}
