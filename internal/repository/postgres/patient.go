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

type PatientRepo struct {
	DB DBTX
}

const createPatient = `-- name: CreatePatient
INSERT INTO patients (id, name, birth_date, doctor_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, name, birth_date, doctor_id
`

func (r *PatientRepo) Create(ctx context.Context, patient models.Patient) (models.Patient, error) {
	rows, _ := r.DB.Query(ctx, createPatient, uuid.New(), patient.Name, patient.BirthDate, patient.DoctorID)
	created, err := pgx.CollectOneRow(rows, rowToPatient)
	if err != nil {
		return created, storeError(err)
	}

	return created, nil
}

const getPatient = `-- name: GetPatient
SELECT id, created_at, name, birth_date, doctor_id
FROM patients
WHERE id = $1
`

func (r *PatientRepo) Get(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	rows, _ := r.DB.Query(ctx, getPatient, id)
	patient, err := pgx.CollectOneRow(rows, rowToPatient)

	switch {
	case err == nil:
		return patient, nil
	case errors.Is(err, pgx.ErrNoRows):
		return patient, apperrors.ErrPatientNotFound
	default:
		return patient, storeError(err)
	}
}

const listPatients = `-- name: ListPatients
SELECT id, created_at, name, birth_date, doctor_id
FROM patients
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

func (r *PatientRepo) List(ctx context.Context, params repository.ListParams) ([]models.Patient, error) {
	rows, _ := r.DB.Query(ctx, listPatients, params.Limit, params.Offset)
	patients, err := pgx.CollectRows(rows, rowToPatient)
	if err != nil {
		return nil, storeError(err)
	}

	return patients, nil
}

const updatePatient = `-- name: UpdatePatient
UPDATE patients
SET name = $2, birth_date = $3, doctor_id = $4
WHERE id = $1
RETURNING id, created_at, name, birth_date, doctor_id
`

func (r *PatientRepo) Update(ctx context.Context, patient models.Patient) (models.Patient, error) {
	rows, _ := r.DB.Query(ctx, updatePatient, patient.ID, patient.Name, patient.BirthDate, patient.DoctorID)
	updated, err := pgx.CollectOneRow(rows, rowToPatient)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, apperrors.ErrPatientNotFound
	default:
		return updated, storeError(err)
	}
}

const deletePatient = `-- name: DeletePatient
DELETE FROM patients
WHERE id = $1
`

func (r *PatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deletePatient, id)
	if err != nil {
		return storeError(err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrPatientNotFound
	}

	return nil
}

func rowToPatient(row pgx.CollectableRow) (models.Patient, error) {
	var p models.Patient
	err := row.Scan(&p.ID, &p.CreatedAt, &p.Name, &p.BirthDate, &p.DoctorID)
	return p, err
}
