package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `id, created_at, email, full_name, password_hash, email_confirmed, is_active, failed_attempts, lockout_until, last_login_at`

// Account and its initial role land in one statement, so a failed role
// grant can't leave a role-less account behind the taken email
const createAccount = `-- name: CreateAccount
WITH new_account AS (
    INSERT INTO accounts (id, email, full_name, password_hash, email_confirmed)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING ` + accountColumns + `
), new_role AS (
    INSERT INTO account_roles (account_id, role)
    SELECT id, $6 FROM new_account WHERE $6 <> ''
)
SELECT ` + accountColumns + ` FROM new_account
`

func (r *AccountRepo) CreateAccount(ctx context.Context, params repository.CreateAccountParams) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount, uuid.New(), params.Email, params.FullName, params.HashedPassword, params.EmailConfirmed, params.Role)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account, apperrors.ErrAccountExists
		}

		return account, storeError(err)
	}

	return account, nil
}

const getAccountByID = `-- name: GetAccountByID
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByID, id)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, storeError(err)
	}
}

const getAccountByEmail = `-- name: GetAccountByEmail
SELECT ` + accountColumns + `
FROM accounts
WHERE email = $1
`

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByEmail, email)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, storeError(err)
	}
}

// Counter and lockout window are set in one statement, so concurrent
// failed logins can't lose increments
const registerFailedAttempt = `-- name: RegisterFailedAttempt
UPDATE accounts
SET failed_attempts = failed_attempts + 1,
    lockout_until   = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE lockout_until END
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) RegisterFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockedUntil time.Time) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, registerFailedAttempt, id, threshold, lockedUntil)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, storeError(err)
	}
}

const resetFailedAttempts = `-- name: ResetFailedAttempts
UPDATE accounts
SET failed_attempts = 0,
    lockout_until   = NULL,
    last_login_at   = $2
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) ResetFailedAttempts(ctx context.Context, id uuid.UUID, loginAt time.Time) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, resetFailedAttempts, id, loginAt)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, storeError(err)
	}
}

const updatePassword = `-- name: UpdatePassword
UPDATE accounts
SET password_hash = $2
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updatePassword, id, hashedPassword)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, storeError(err)
	}
}

const addRole = `-- name: AddRole
INSERT INTO account_roles (account_id, role)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (r *AccountRepo) AddRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.DB.Exec(ctx, addRole, id, role)
	if err != nil {
		return storeError(err)
	}
	return nil
}

const getRoles = `-- name: GetRoles
SELECT role FROM account_roles
WHERE account_id = $1
ORDER BY role
`

func (r *AccountRepo) GetRoles(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, _ := r.DB.Query(ctx, getRoles, id)
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storeError(err)
	}

	return roles, nil
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.CreatedAt, &a.Email, &a.FullName, &a.HashedPassword,
		&a.EmailConfirmed, &a.IsActive, &a.FailedAttempts, &a.LockoutUntil, &a.LastLoginAt,
	)
	return a, err
}
