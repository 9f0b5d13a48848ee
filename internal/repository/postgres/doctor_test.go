package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
	"github.com/nkiryanov/clinic/internal/testutil"
)

func Test_DoctorRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	doctor := models.Doctor{
		Name:      "Gregory House",
		Specialty: "Diagnostics",
		Price:     decimal.RequireFromString("149.90"),
	}

	t.Run("create and get ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}

			created, err := repo.Create(t.Context(), doctor)
			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, created.ID)
			require.Equal(t, doctor.Name, created.Name)
			require.Equal(t, doctor.Specialty, created.Specialty)
			require.True(t, doctor.Price.Equal(created.Price), "price should survive the round trip")

			got, err := repo.Get(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)
			require.True(t, doctor.Price.Equal(got.Price))
		})
	})

	t.Run("get missing doctor", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}

			_, err := repo.Get(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrDoctorNotFound)
		})
	})

	t.Run("list with limit and offset", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}

			for i := range 3 {
				d := doctor
				d.Name = doctor.Name + string(rune('A'+i))
				_, err := repo.Create(t.Context(), d)
				require.NoError(t, err)
			}

			all, err := repo.List(t.Context(), repository.ListParams{Limit: 10, Offset: 0})
			require.NoError(t, err)
			require.Len(t, all, 3)

			page, err := repo.List(t.Context(), repository.ListParams{Limit: 2, Offset: 2})
			require.NoError(t, err)
			require.Len(t, page, 1)
		})
	})

	t.Run("update ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}
			created, err := repo.Create(t.Context(), doctor)
			require.NoError(t, err)

			created.Specialty = "Nephrology"
			created.Price = decimal.RequireFromString("200.00")
			updated, err := repo.Update(t.Context(), created)

			require.NoError(t, err)
			require.Equal(t, "Nephrology", updated.Specialty)
			require.True(t, created.Price.Equal(updated.Price))
		})
	})

	t.Run("update missing doctor", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}
			missing := doctor
			missing.ID = uuid.New()

			_, err := repo.Update(t.Context(), missing)

			require.ErrorIs(t, err, apperrors.ErrDoctorNotFound)
		})
	})

	t.Run("delete ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}
			created, err := repo.Create(t.Context(), doctor)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(t.Context(), created.ID))

			_, err = repo.Get(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrDoctorNotFound)
		})
	})

	t.Run("delete missing doctor", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := DoctorRepo{DB: tx}

			err := repo.Delete(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrDoctorNotFound)
		})
	})
}
