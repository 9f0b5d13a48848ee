package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string // stored normalized, see NormalizeEmail
	FullName       string
	HashedPassword string
	EmailConfirmed bool
	IsActive       bool

	// Login attempt bookkeeping
	// LockoutUntil is nil unless FailedAttempts crossed the threshold;
	// both are reset together on successful login
	FailedAttempts int
	LockoutUntil   *time.Time
	LastLoginAt    *time.Time
}

// Account is locked while the lockout window has not elapsed yet
func (a Account) IsLockedOut(now time.Time) bool {
	return a.LockoutUntil != nil && a.LockoutUntil.After(now)
}

// NormalizeEmail makes emails comparable: uniqueness is case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
