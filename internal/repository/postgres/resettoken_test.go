package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/testutil"
)

func Test_PasswordResetTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newToken := func(accountID uuid.UUID, expiresAt time.Time) models.PasswordResetToken {
		return models.PasswordResetToken{
			ID:        uuid.New(),
			AccountID: accountID,
			Token:     "reset-token",
			CreatedAt: time.Now().Truncate(time.Second),
			ExpiresAt: expiresAt,
			UsedAt:    nil,
		}
	}

	t.Run("consume ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PasswordResetTokenRepo{DB: tx}
			account := mustCreateAccount(t, &AccountRepo{DB: tx})
			token := newToken(account.ID, time.Now().Add(time.Hour))
			require.NoError(t, repo.Save(t.Context(), token))

			now := time.Now()
			got, err := repo.Consume(t.Context(), account.ID, token.Token, now)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, account.ID, got.AccountID)
			require.NotNil(t, got.UsedAt, "consumed token must be marked used")
			assert.WithinDuration(t, now, *got.UsedAt, time.Microsecond)
		})
	})

	t.Run("consume twice fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PasswordResetTokenRepo{DB: tx}
			account := mustCreateAccount(t, &AccountRepo{DB: tx})
			token := newToken(account.ID, time.Now().Add(time.Hour))
			require.NoError(t, repo.Save(t.Context(), token))

			_, err := repo.Consume(t.Context(), account.ID, token.Token, time.Now())
			require.NoError(t, err)

			_, err = repo.Consume(t.Context(), account.ID, token.Token, time.Now())
			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	})

	t.Run("consume expired fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PasswordResetTokenRepo{DB: tx}
			account := mustCreateAccount(t, &AccountRepo{DB: tx})
			token := newToken(account.ID, time.Now().Add(-time.Minute))
			require.NoError(t, repo.Save(t.Context(), token))

			_, err := repo.Consume(t.Context(), account.ID, token.Token, time.Now())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	})

	t.Run("consume with wrong account fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			accountRepo := &AccountRepo{DB: tx}
			repo := PasswordResetTokenRepo{DB: tx}
			account := mustCreateAccount(t, accountRepo)
			other := mustCreateAccount(t, accountRepo)
			token := newToken(account.ID, time.Now().Add(time.Hour))
			require.NoError(t, repo.Save(t.Context(), token))

			_, err := repo.Consume(t.Context(), other.ID, token.Token, time.Now())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken, "token bound to another account must not be consumable")
		})
	})

	t.Run("consume unknown token fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PasswordResetTokenRepo{DB: tx}
			account := mustCreateAccount(t, &AccountRepo{DB: tx})

			_, err := repo.Consume(t.Context(), account.ID, "never-saved", time.Now())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	})
}
