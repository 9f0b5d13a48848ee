package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type PatientService struct {
	patientRepo repository.PatientRepo
	doctorRepo  repository.DoctorRepo
}

func NewService(patientRepo repository.PatientRepo, doctorRepo repository.DoctorRepo) *PatientService {
	return &PatientService{
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
	}
}

// Create stores the patient
// The attending doctor, if set, has to exist
func (s *PatientService) Create(ctx context.Context, patient models.Patient) (models.Patient, error) {
	if err := s.checkDoctor(ctx, patient.DoctorID); err != nil {
		return models.Patient{}, err
	}

	created, err := s.patientRepo.Create(ctx, patient)
	if err != nil {
		return created, fmt.Errorf("can't create patient. Err: %w", err)
	}

	return created, nil
}

func (s *PatientService) Get(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	return s.patientRepo.Get(ctx, id)
}

func (s *PatientService) List(ctx context.Context, limit int, offset int) ([]models.Patient, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.patientRepo.List(ctx, repository.ListParams{Limit: limit, Offset: offset})
}

func (s *PatientService) Update(ctx context.Context, patient models.Patient) (models.Patient, error) {
	if err := s.checkDoctor(ctx, patient.DoctorID); err != nil {
		return models.Patient{}, err
	}

	return s.patientRepo.Update(ctx, patient)
}

func (s *PatientService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patientRepo.Delete(ctx, id)
}

func (s *PatientService) checkDoctor(ctx context.Context, doctorID *uuid.UUID) error {
	if doctorID == nil {
		return nil
	}

	_, err := s.doctorRepo.Get(ctx, *doctorID)
	if errors.Is(err, apperrors.ErrDoctorNotFound) {
		return apperrors.ErrDoctorNotFound
	}

	return err
}
