package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
	"github.com/nkiryanov/clinic/internal/service/auth/passpolicy"
	"github.com/nkiryanov/clinic/internal/service/auth/tokenmanager"
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
	defaultResetTokenTTL    = time.Hour
	defaultRole             = "patient"

	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

// Hash compared against when the account is unknown, so the miss costs
// about the same as a real password check
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Interface to create or compare account password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Auth service config with sensible defaults
type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Password strength requirements
	// passpolicy.Default() is used if not set
	Policy *passpolicy.Policy

	// Consecutive failed logins before the account is locked
	LockoutThreshold int

	// How long the lockout lasts once triggered
	LockoutDuration time.Duration

	// Password reset token lifetime
	ResetTokenTTL time.Duration

	// Role assigned to every new account
	DefaultRole string

	// New accounts start with confirmed email unless confirmation required
	RequireEmailConfirmation bool

	// Delivery hook for password reset tokens (mailer etc)
	// The token never appears in API responses, this hook is the only way out
	ResetNotifier func(ctx context.Context, account models.Account, token string)

	// Names used to pass tokens via http
	AccessHeaderName  string
	AccessAuthScheme  string
	RefreshCookieName string
}

// Everything a successful authentication returns
type LoginResult struct {
	Account models.Account
	Roles   []string
	Tokens  models.TokenPair
}

// Auth service
// Orchestrates account registration and the whole credential-session
// lifecycle on top of the account repo and token manager
type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher
	policy passpolicy.Policy

	lockoutThreshold int
	lockoutDuration  time.Duration
	resetTokenTTL    time.Duration
	defaultRole      string
	requireConfirm   bool
	notifyReset      func(ctx context.Context, account models.Account, token string)

	accountRepo repository.AccountRepo
	resetRepo   repository.PasswordResetTokenRepo

	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, accountRepo repository.AccountRepo, resetRepo repository.PasswordResetTokenRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	policy := passpolicy.Default()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	setDefaultInt := func(field *int, def int) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}

	setDefaultInt(&cfg.LockoutThreshold, defaultLockoutThreshold)
	setDefaultDuration(&cfg.LockoutDuration, defaultLockoutDuration)
	setDefaultDuration(&cfg.ResetTokenTTL, defaultResetTokenTTL)
	setDefaultString(&cfg.DefaultRole, defaultRole)
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		token:             token,
		hasher:            hasher,
		policy:            policy,
		lockoutThreshold:  cfg.LockoutThreshold,
		lockoutDuration:   cfg.LockoutDuration,
		resetTokenTTL:     cfg.ResetTokenTTL,
		defaultRole:       cfg.DefaultRole,
		requireConfirm:    cfg.RequireEmailConfirmation,
		notifyReset:       cfg.ResetNotifier,
		accountRepo:       accountRepo,
		resetRepo:         resetRepo,
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

// Register creates the account and assigns the default role
// No tokens are issued: the caller has to log in separately
func (s *AuthService) Register(ctx context.Context, email string, password string, fullName string) (models.Account, error) {
	var account models.Account

	if err := s.policy.Validate(password); err != nil {
		return account, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return account, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	// The role rides along in the same store call: a partial registration
	// would leave the email taken with no way to retry
	account, err = s.accountRepo.CreateAccount(ctx, repository.CreateAccountParams{
		Email:          models.NormalizeEmail(email),
		FullName:       fullName,
		HashedPassword: hash,
		EmailConfirmed: !s.requireConfirm,
		Role:           s.defaultRole,
	})
	if err != nil {
		return account, err
	}

	return account, nil
}

// Login verifies credentials and issues a token pair
// Unknown email and wrong password are indistinguishable on purpose
func (s *AuthService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	var result LoginResult
	now := time.Now()

	account, err := s.accountRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		// Burn comparable time so the miss is not observable
		_ = s.hasher.Compare(dummyPasswordHash, password)
		return result, apperrors.ErrInvalidCredentials
	case err != nil:
		return result, err
	}

	if !account.IsActive {
		return result, apperrors.ErrAccountInactive
	}

	if account.IsLockedOut(now) {
		return result, apperrors.ErrAccountLocked
	}

	if err := s.hasher.Compare(account.HashedPassword, password); err != nil {
		account, err = s.accountRepo.RegisterFailedAttempt(ctx, account.ID, s.lockoutThreshold, now.Add(s.lockoutDuration))
		if err != nil {
			return result, err
		}

		// The attempt that crosses the threshold reports the lockout
		if account.IsLockedOut(now) {
			return result, apperrors.ErrAccountLocked
		}

		return result, apperrors.ErrInvalidCredentials
	}

	account, err = s.accountRepo.ResetFailedAttempts(ctx, account.ID, now)
	if err != nil {
		return result, err
	}

	roles, err := s.accountRepo.GetRoles(ctx, account.ID)
	if err != nil {
		return result, err
	}

	pair, err := s.token.GeneratePair(ctx, account, roles)
	if err != nil {
		return result, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return LoginResult{Account: account, Roles: roles, Tokens: pair}, nil
}

// RefreshPair exchanges an expired (or still valid) access token plus a
// live refresh token for a fresh pair
// The password is not rechecked; the refresh token is single use and has
// to belong to the same account the access token names
func (s *AuthService) RefreshPair(ctx context.Context, access string, refresh string) (LoginResult, error) {
	var result LoginResult

	claims, err := s.token.ParseAccessExpired(access)
	if err != nil {
		return result, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	used, err := s.token.UseRefresh(ctx, refresh)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
		errors.Is(err, apperrors.ErrRefreshTokenIsUsed),
		errors.Is(err, apperrors.ErrRefreshTokenExpired):
		// Keep the specific sentinel but present every dead-token case
		// as an invalid token to callers
		return result, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	case err != nil:
		return result, err
	}

	if used.AccountID != claims.AccountID {
		return result, fmt.Errorf("refresh token belongs to different account: %w", apperrors.ErrInvalidToken)
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return result, apperrors.ErrInvalidToken
	case err != nil:
		return result, err
	}

	if !account.IsActive {
		return result, apperrors.ErrInvalidToken
	}

	roles, err := s.accountRepo.GetRoles(ctx, account.ID)
	if err != nil {
		return result, err
	}

	pair, err := s.token.GeneratePair(ctx, account, roles)
	if err != nil {
		return result, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return LoginResult{Account: account, Roles: roles, Tokens: pair}, nil
}

// Logout revokes every outstanding refresh token of the account
// Issued access tokens stay valid until they expire, nothing to do there
func (s *AuthService) Logout(ctx context.Context, accountID uuid.UUID) error {
	return s.token.RevokeAccount(ctx, accountID)
}

// ChangePassword replaces the hash after verifying the current password
// Outstanding access tokens are not invalidated, they expire naturally
func (s *AuthService) ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword string, newPassword string) error {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(account.HashedPassword, currentPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	_, err = s.accountRepo.UpdatePassword(ctx, accountID, hash)
	return err
}

// ForgotPassword issues a single-use reset token and hands it to the
// delivery hook. Succeeds whether the account exists or not, the reply
// never tells
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accountRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return nil
	case err != nil:
		return err
	}

	token, err := tokenmanager.NewOpaqueToken()
	if err != nil {
		return err
	}

	now := time.Now().Truncate(time.Second)
	err = s.resetRepo.Save(ctx, models.PasswordResetToken{
		ID:        uuid.New(),
		AccountID: account.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTokenTTL),
		UsedAt:    nil,
	})
	if err != nil {
		return err
	}

	if s.notifyReset != nil {
		s.notifyReset(ctx, account, token)
	}

	return nil
}

// ResetPassword consumes the reset token and replaces the hash
// Wrong token, wrong email, expired or reused token all look the same
func (s *AuthService) ResetPassword(ctx context.Context, email string, token string, newPassword string) error {
	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	account, err := s.accountRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return apperrors.ErrInvalidToken
	case err != nil:
		return err
	}

	_, err = s.resetRepo.Consume(ctx, account.ID, token, time.Now())
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	_, err = s.accountRepo.UpdatePassword(ctx, account.ID, hash)
	return err
}

// GetRoles returns role memberships of the account
func (s *AuthService) GetRoles(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	return s.accountRepo.GetRoles(ctx, accountID)
}

// Auth authenticates the request by its access token
// Used by the middleware to guard protected handlers
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.Account, error) {
	var account models.Account

	access, err := s.GetAccessString(r)
	if err != nil {
		return account, err
	}

	claims, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return account, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	account, err = s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return account, err
	}

	if !account.IsActive {
		return account, apperrors.ErrAccountInactive
	}

	return account, nil
}
