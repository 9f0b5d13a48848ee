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

type PasswordResetTokenRepo struct {
	DB DBTX
}

const saveResetToken = `-- name: SavePasswordResetToken
INSERT INTO password_reset_tokens (id, account_id, token, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`

func (r *PasswordResetTokenRepo) Save(ctx context.Context, token models.PasswordResetToken) error {
	rows, _ := r.DB.Query(ctx, saveResetToken, token.ID, token.AccountID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return storeError(err)
	}
	return nil
}

// Binding to the account, expiry and single use are all checked in one
// statement; the caller can't distinguish which check failed and that is
// the point
const consumeResetToken = `-- name: ConsumePasswordResetToken
UPDATE password_reset_tokens
SET used_at = $4
WHERE token = $1
  AND account_id = $2
  AND used_at IS NULL
  AND expires_at > $3
RETURNING id, account_id, created_at, expires_at, used_at
`

func (r *PasswordResetTokenRepo) Consume(ctx context.Context, accountID uuid.UUID, tokenString string, now time.Time) (models.PasswordResetToken, error) {
	rows, _ := r.DB.Query(ctx, consumeResetToken, tokenString, accountID, now, now)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.PasswordResetToken, error) {
		t := models.PasswordResetToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.AccountID, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrInvalidToken)
	default:
		return token, storeError(err)
	}
}
