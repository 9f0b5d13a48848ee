package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
)

type patientRepoStub struct {
	repository.PatientRepo

	created    *models.Patient
	listParams repository.ListParams
}

func (s *patientRepoStub) Create(ctx context.Context, patient models.Patient) (models.Patient, error) {
	patient.ID = uuid.New()
	s.created = &patient
	return patient, nil
}

func (s *patientRepoStub) List(ctx context.Context, params repository.ListParams) ([]models.Patient, error) {
	s.listParams = params
	return nil, nil
}

type doctorRepoStub struct {
	repository.DoctorRepo

	known map[uuid.UUID]bool
}

func (s *doctorRepoStub) Get(ctx context.Context, id uuid.UUID) (models.Doctor, error) {
	if s.known[id] {
		return models.Doctor{ID: id}, nil
	}
	return models.Doctor{}, apperrors.ErrDoctorNotFound
}

func Test_PatientService_Create(t *testing.T) {
	t.Parallel()

	t.Run("without doctor ok", func(t *testing.T) {
		patientRepo := &patientRepoStub{}
		s := NewService(patientRepo, &doctorRepoStub{})

		created, err := s.Create(t.Context(), models.Patient{Name: "John Smith"})

		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.ID)
		require.NotNil(t, patientRepo.created, "patient should reach the repo")
	})

	t.Run("with known doctor ok", func(t *testing.T) {
		doctorID := uuid.New()
		s := NewService(&patientRepoStub{}, &doctorRepoStub{known: map[uuid.UUID]bool{doctorID: true}})

		created, err := s.Create(t.Context(), models.Patient{Name: "John Smith", DoctorID: &doctorID})

		require.NoError(t, err)
		require.Equal(t, doctorID, *created.DoctorID)
	})

	t.Run("with unknown doctor fails", func(t *testing.T) {
		doctorID := uuid.New()
		patientRepo := &patientRepoStub{}
		s := NewService(patientRepo, &doctorRepoStub{})

		_, err := s.Create(t.Context(), models.Patient{Name: "John Smith", DoctorID: &doctorID})

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrDoctorNotFound)
		require.Nil(t, patientRepo.created, "patient must not be stored when the doctor is unknown")
	})
}

func Test_PatientService_List(t *testing.T) {
	t.Parallel()

	repo := &patientRepoStub{}
	s := NewService(repo, &doctorRepoStub{})

	_, err := s.List(t.Context(), 0, -3)

	require.NoError(t, err)
	require.Equal(t, 50, repo.listParams.Limit, "default limit should be applied")
	require.Equal(t, 0, repo.listParams.Offset, "negative offset should be normalized")
}
