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

func Test_PatientRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	patient := models.Patient{
		Name:      "John Smith",
		BirthDate: mustParseTime("1980-05-15 00:00:00Z"),
	}

	mustCreateDoctor := func(t *testing.T, tx pgx.Tx) models.Doctor {
		t.Helper()
		doctor, err := (&DoctorRepo{DB: tx}).Create(t.Context(), models.Doctor{
			Name:      "Gregory House",
			Specialty: "Diagnostics",
			Price:     decimal.RequireFromString("149.90"),
		})
		require.NoError(t, err)
		return doctor
	}

	t.Run("create and get ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}

			created, err := repo.Create(t.Context(), patient)
			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, created.ID)
			require.Equal(t, patient.Name, created.Name)
			require.WithinDuration(t, patient.BirthDate, created.BirthDate, 0)
			require.Nil(t, created.DoctorID, "patient without doctor should keep nil doctor")

			got, err := repo.Get(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("create with doctor ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}
			doctor := mustCreateDoctor(t, tx)

			p := patient
			p.DoctorID = &doctor.ID
			created, err := repo.Create(t.Context(), p)

			require.NoError(t, err)
			require.NotNil(t, created.DoctorID)
			require.Equal(t, doctor.ID, *created.DoctorID)
		})
	})

	t.Run("get missing patient", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}

			_, err := repo.Get(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrPatientNotFound)
		})
	})

	t.Run("list with limit and offset", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}

			for range 3 {
				_, err := repo.Create(t.Context(), patient)
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
			repo := PatientRepo{DB: tx}
			doctor := mustCreateDoctor(t, tx)
			created, err := repo.Create(t.Context(), patient)
			require.NoError(t, err)

			created.Name = "John A. Smith"
			created.BirthDate = mustParseTime("1980-05-16 00:00:00Z")
			created.DoctorID = &doctor.ID
			updated, err := repo.Update(t.Context(), created)

			require.NoError(t, err)
			require.Equal(t, "John A. Smith", updated.Name)
			require.WithinDuration(t, created.BirthDate, updated.BirthDate, 0)
			require.NotNil(t, updated.DoctorID)
			require.Equal(t, doctor.ID, *updated.DoctorID)
		})
	})

	t.Run("update missing patient", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}
			missing := patient
			missing.ID = uuid.New()

			_, err := repo.Update(t.Context(), missing)

			require.ErrorIs(t, err, apperrors.ErrPatientNotFound)
		})
	})

	t.Run("delete ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}
			created, err := repo.Create(t.Context(), patient)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(t.Context(), created.ID))

			_, err = repo.Get(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrPatientNotFound)
		})
	})

	t.Run("delete missing patient", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}

			err := repo.Delete(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrPatientNotFound)
		})
	})

	t.Run("deleting doctor keeps the patient", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := PatientRepo{DB: tx}
			doctorRepo := DoctorRepo{DB: tx}
			doctor := mustCreateDoctor(t, tx)

			p := patient
			p.DoctorID = &doctor.ID
			created, err := repo.Create(t.Context(), p)
			require.NoError(t, err)

			require.NoError(t, doctorRepo.Delete(t.Context(), doctor.ID))

			got, err := repo.Get(t.Context(), created.ID)
			require.NoError(t, err)
			require.Nil(t, got.DoctorID, "doctor reference should be cleared when the doctor is removed")
		})
	})
}
