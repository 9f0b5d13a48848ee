package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository"
)

const (
	// 24 hours keeps the original template behavior
	defaultAccessTokenTTL  = 24 * time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
	defaultIssuer          = "clinic"
	defaultAudience        = "clinic-api"

	// 32 random bytes, well above the 128 bit floor for opaque tokens
	opaqueTokenBytesLen = 32
)

// Fixed claim set: everything the token carries is listed here, so
// validation can be exhaustive
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"uid"`
	Email     string    `json:"email"`
	FullName  string    `json:"name"`
	Roles     []string  `json:"roles"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Issuer and audience claims, checked on every parse
	// If not set then defaults are used
	Issuer   string
	Audience string

	// Access and refresh token lifetimes
	// If not set then defaults are used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	// Secret key to sign access tokens
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	issuer   string
	audience string

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = defaultAudience
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// NewOpaqueToken generates a random URL-safe token with no embedded claims
// Used for refresh and password reset tokens
func NewOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytesLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("error while generating opaque token. Err: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// IssueAccess mints a signed access token for the account
func (m *TokenManager) IssueAccess(account models.Account, roles []string) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Issuer:    m.issuer,
				Audience:  jwt.ClaimStrings{m.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			AccountID: account.ID,
			Email:     account.Email,
			FullName:  account.FullName,
			Roles:     roles,
		},
	)
	access, err := token.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: access, ExpiresAt: expiresAt}, nil
}

// GeneratePair issues access token and persisted random refresh token
func (m *TokenManager) GeneratePair(ctx context.Context, account models.Account, roles []string) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	refreshExpiresAt := now.Add(m.refreshTTL)

	access, err := m.IssueAccess(account, roles)
	if err != nil {
		return pair, err
	}

	refresh, err := NewOpaqueToken()
	if err != nil {
		return pair, err
	}

	err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		AccountID: account.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
		UsedAt:    nil,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Use token: return it if valid and mark as used
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	token, err := m.refreshRepo.GetAndMarkUsed(ctx, refresh)
	if err != nil {
		return token, fmt.Errorf("error while marking token used. Err: %w", err)
	}

	if token.ExpiresAt.Before(time.Now()) {
		return token, fmt.Errorf("error while marking token used. Err: %w", apperrors.ErrRefreshTokenExpired)
	}

	return token, nil
}

// RevokeAccount marks every live refresh token of the account used
func (m *TokenManager) RevokeAccount(ctx context.Context, accountID uuid.UUID) error {
	return m.refreshRepo.RevokeForAccount(ctx, accountID)
}

// Parse and fully validate access token: signature, expiry, issuer, audience
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (AccessTokenClaims, error) {
	claims := AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		&claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return AccessTokenClaims{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return claims, nil
}

// ParseAccessExpired recovers claims from a possibly expired access token
// Signature, issuer and audience are still verified; only the lifetime
// check is relaxed. Never use the result to authorize anything, it exists
// for the refresh flow only
func (m *TokenManager) ParseAccessExpired(access string) (AccessTokenClaims, error) {
	claims := AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		&claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return AccessTokenClaims{}, fmt.Errorf("error while parsing token. Err: %w", err)
	}

	if claims.Issuer != m.issuer {
		return AccessTokenClaims{}, fmt.Errorf("unexpected token issuer: %w", apperrors.ErrInvalidToken)
	}
	if !slices.Contains(claims.Audience, m.audience) {
		return AccessTokenClaims{}, fmt.Errorf("unexpected token audience: %w", apperrors.ErrInvalidToken)
	}

	return claims, nil
}
