package apperrors

import (
	"errors"
)

var (
	// Same error for "no such account" and "wrong password" on purpose:
	// responses must not let anyone tell which of the two happened
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountLocked   = errors.New("account is temporarily locked")
	ErrAccountInactive = errors.New("account is inactive")

	ErrWeakPassword = errors.New("password does not satisfy the policy")

	// Any bad, expired, mismatched or reused token, reset tokens included
	ErrInvalidToken = errors.New("invalid token")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")

	ErrStoreUnavailable = errors.New("storage unavailable")
)
