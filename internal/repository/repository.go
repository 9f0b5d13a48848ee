package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nkiryanov/clinic/internal/models"
)

type CreateAccountParams struct {
	Email          string // must be normalized already
	FullName       string
	HashedPassword string
	EmailConfirmed bool

	// Role is granted together with the insert when set, so the account
	// can't come into existence without it
	Role string
}

// Account repository interface
// The database is the serialization point for the attempt counters:
// concurrent logins must not lose increments, so both counter methods
// have to be atomic single-statement updates
type AccountRepo interface {
	// Create account
	// If account with same email exists must return apperrors.ErrAccountExists
	CreateAccount(ctx context.Context, params CreateAccountParams) (models.Account, error)

	// Get account by id or normalized email
	// If account not found must return apperrors.ErrAccountNotFound
	GetByID(ctx context.Context, id uuid.UUID) (models.Account, error)
	GetByEmail(ctx context.Context, email string) (models.Account, error)

	// Atomically increment failed attempts and set the lockout window
	// once the counter reaches threshold
	RegisterFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockedUntil time.Time) (models.Account, error)

	// Zero the counter, clear lockout and stamp the login time
	ResetFailedAttempts(ctx context.Context, id uuid.UUID, loginAt time.Time) (models.Account, error)

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) (models.Account, error)

	// Role membership
	AddRole(ctx context.Context, id uuid.UUID, role string) error
	GetRoles(ctx context.Context, id uuid.UUID) ([]string, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save issued token
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists, used or expired ones included
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Return the token and mark it used in one statement
	// If the token is already used must return apperrors.ErrRefreshTokenIsUsed
	// and must not overwrite the existing used_at
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark every live token of the account used (logout)
	RevokeForAccount(ctx context.Context, accountID uuid.UUID) error
}

// PasswordResetToken repository interface
type PasswordResetTokenRepo interface {
	Save(ctx context.Context, token models.PasswordResetToken) error

	// Consume the token bound to the account: single use, not expired
	// Any mismatch must return apperrors.ErrInvalidToken
	Consume(ctx context.Context, accountID uuid.UUID, tokenString string, now time.Time) (models.PasswordResetToken, error)
}

type ListParams struct {
	Limit  int
	Offset int
}

type DoctorRepo interface {
	Create(ctx context.Context, doctor models.Doctor) (models.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (models.Doctor, error)
	List(ctx context.Context, params ListParams) ([]models.Doctor, error)
	Update(ctx context.Context, doctor models.Doctor) (models.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PatientRepo interface {
	Create(ctx context.Context, patient models.Patient) (models.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (models.Patient, error)
	List(ctx context.Context, params ListParams) ([]models.Patient, error)
	Update(ctx context.Context, patient models.Patient) (models.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
