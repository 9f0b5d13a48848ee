package passpolicy

import (
	"fmt"
	"unicode"

	"github.com/nkiryanov/clinic/internal/apperrors"
)

const defaultMinLength = 8

// Password strength policy
// Zero value means "no requirements", use Default() for the usual set
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

func Default() Policy {
	return Policy{
		MinLength:     defaultMinLength,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Validate returns error wrapping apperrors.ErrWeakPassword if the
// password misses any of the policy requirements
func (p Policy) Validate(password string) error {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	switch {
	case len([]rune(password)) < p.MinLength:
		return fmt.Errorf("%w: must be at least %d characters", apperrors.ErrWeakPassword, p.MinLength)
	case p.RequireUpper && !upper:
		return fmt.Errorf("%w: must contain an uppercase letter", apperrors.ErrWeakPassword)
	case p.RequireLower && !lower:
		return fmt.Errorf("%w: must contain a lowercase letter", apperrors.ErrWeakPassword)
	case p.RequireDigit && !digit:
		return fmt.Errorf("%w: must contain a digit", apperrors.ErrWeakPassword)
	case p.RequireSymbol && !symbol:
		return fmt.Errorf("%w: must contain a symbol", apperrors.ErrWeakPassword)
	}

	return nil
}
