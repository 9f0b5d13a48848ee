package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveRefreshToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, account_id, token, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	rows, _ := r.DB.Query(ctx, saveRefreshToken, token.ID, token.AccountID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return storeError(err)
	}
	return nil
}

const getRefreshToken = `-- name: GetRefreshToken
SELECT id, account_id, created_at, expires_at, used_at
FROM refresh_tokens
WHERE token = $1
`

// Get token
// It should return result even if token expired or used already
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getRefreshToken, tokenString)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RefreshToken, error) {
		t := models.RefreshToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.AccountID, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, storeError(err)
	}
}

const markRefreshTokenUsed = `-- name: MarkRefreshTokenUsed
UPDATE refresh_tokens
SET used_at = $2
WHERE token = $1
  AND used_at IS NULL
RETURNING id, account_id, created_at, expires_at, used_at
`

// Return the token and mark it used
// The used_at guard makes concurrent callers race for the row update:
// exactly one gets the token back, every other one sees it spent
func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, markRefreshTokenUsed, tokenString, time.Now())
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RefreshToken, error) {
		t := models.RefreshToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.AccountID, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No live row: the token was spent before or never existed
		spent, getErr := r.Get(ctx, tokenString)
		if getErr != nil {
			return spent, getErr
		}
		return spent, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
	default:
		return token, storeError(err)
	}
}

const revokeRefreshTokens = `-- name: RevokeRefreshTokens
UPDATE refresh_tokens
SET used_at = COALESCE(used_at, $2)
WHERE account_id = $1
`

func (r *RefreshTokenRepo) RevokeForAccount(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, revokeRefreshTokens, accountID, time.Now())
	if err != nil {
		return storeError(err)
	}
	return nil
}
