package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type DoctorService struct {
	doctorRepo repository.DoctorRepo
}

func NewService(doctorRepo repository.DoctorRepo) *DoctorService {
	return &DoctorService{doctorRepo: doctorRepo}
}

func (s *DoctorService) Create(ctx context.Context, doctor models.Doctor) (models.Doctor, error) {
	created, err := s.doctorRepo.Create(ctx, doctor)
	if err != nil {
		return created, fmt.Errorf("can't create doctor. Err: %w", err)
	}

	return created, nil
}

func (s *DoctorService) Get(ctx context.Context, id uuid.UUID) (models.Doctor, error) {
	return s.doctorRepo.Get(ctx, id)
}

func (s *DoctorService) List(ctx context.Context, limit int, offset int) ([]models.Doctor, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.doctorRepo.List(ctx, repository.ListParams{Limit: limit, Offset: offset})
}

func (s *DoctorService) Update(ctx context.Context, doctor models.Doctor) (models.Doctor, error) {
	return s.doctorRepo.Update(ctx, doctor)
}

func (s *DoctorService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.doctorRepo.Delete(ctx, id)
}
