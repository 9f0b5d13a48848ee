package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
)

type DoctorRepo struct {
	DB DBTX
}

const createDoctor = `-- name: CreateDoctor
INSERT INTO doctors (id, name, specialty, price)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, name, specialty, price
`

func (r *DoctorRepo) Create(ctx context.Context, doctor models.Doctor) (models.Doctor, error) {
	rows, _ := r.DB.Query(ctx, createDoctor, uuid.New(), doctor.Name, doctor.Specialty, doctor.Price)
	created, err := pgx.CollectOneRow(rows, rowToDoctor)
	if err != nil {
		return created, storeError(err)
	}

	return created, nil
}

const getDoctor = `-- name: GetDoctor
SELECT id, created_at, name, specialty, price
FROM doctors
WHERE id = $1
`

func (r *DoctorRepo) Get(ctx context.Context, id uuid.UUID) (models.Doctor, error) {
	rows, _ := r.DB.Query(ctx, getDoctor, id)
	doctor, err := pgx.CollectOneRow(rows, rowToDoctor)

	switch {
	case err == nil:
		return doctor, nil
	case errors.Is(err, pgx.ErrNoRows):
		return doctor, apperrors.ErrDoctorNotFound
	default:
		return doctor, storeError(err)
	}
}

const listDoctors = `-- name: ListDoctors
SELECT id, created_at, name, specialty, price
FROM doctors
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

func (r *DoctorRepo) List(ctx context.Context, params repository.ListParams) ([]models.Doctor, error) {
	rows, _ := r.DB.Query(ctx, listDoctors, params.Limit, params.Offset)
	doctors, err := pgx.CollectRows(rows, rowToDoctor)
	if err != nil {
		return nil, storeError(err)
	}

	return doctors, nil
}

const updateDoctor = `-- name: UpdateDoctor
UPDATE doctors
SET name = $2, specialty = $3, price = $4
WHERE id = $1
RETURNING id, created_at, name, specialty, price
`

func (r *DoctorRepo) Update(ctx context.Context, doctor models.Doctor) (models.Doctor, error) {
	rows, _ := r.DB.Query(ctx, updateDoctor, doctor.ID, doctor.Name, doctor.Specialty, doctor.Price)
	updated, err := pgx.CollectOneRow(rows, rowToDoctor)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, apperrors.ErrDoctorNotFound
	default:
		return updated, storeError(err)
	}
}

const deleteDoctor = `-- name: DeleteDoctor
DELETE FROM doctors
WHERE id = $1
`

func (r *DoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteDoctor, id)
	if err != nil {
		return storeError(err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrDoctorNotFound
	}

	return nil
}

func rowToDoctor(row pgx.CollectableRow) (models.Doctor, error) {
	var d models.Doctor
	err := row.Scan(&d.ID, &d.CreatedAt, &d.Name, &d.Specialty, &d.Price)
	return d, err
}
