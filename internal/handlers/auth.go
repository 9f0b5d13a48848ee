package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/handlers/accountctx"
	"github.com/nkiryanov/clinic/internal/handlers/render"
	"github.com/nkiryanov/clinic/internal/service/auth"
)

// Generic acknowledgment for the forgot-password flow
// Same text whether the account exists or not
const forgotPasswordAck = "If the email exists, a password reset link has been sent"

type accountInfo struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	EmailConfirmed bool      `json:"email_confirmed"`
	Roles          []string  `json:"roles"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Account     accountInfo `json:"account"`
}

func newTokenResponse(result auth.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken: result.Tokens.Access.Value,
		TokenType:   "Bearer",
		ExpiresAt:   result.Tokens.Access.ExpiresAt,
		Account: accountInfo{
			ID:             result.Account.ID,
			Email:          result.Account.Email,
			FullName:       result.Account.FullName,
			EmailConfirmed: result.Account.EmailConfirmed,
			Roles:          result.Roles,
		},
	}
}

func handleRegister(auth authService, l logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=100"`
		FullName string `json:"full_name" validate:"required,min=2,max=100"`
	}
	type response struct {
		ID        uuid.UUID `json:"id"`
		Email     string    `json:"email"`
		FullName  string    `json:"full_name"`
		CreatedAt time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, err := auth.Register(r.Context(), data.Email, data.Password, data.FullName)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrWeakPassword):
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrAccountExists):
				render.ServiceError(w, "Account with this email already exists", http.StatusConflict)
			default:
				l.Error("register failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, response{
			ID:        account.ID,
			Email:     account.Email,
			FullName:  account.FullName,
			CreatedAt: account.CreatedAt,
		}, http.StatusCreated)
	})
}

func handleLogin(auth authService, l logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := auth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrAccountLocked):
				render.ServiceError(w, "Account is temporarily locked. Please try again later", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrAccountInactive):
				render.ServiceError(w, "Account is inactive. Please contact support", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		auth.SetTokenPairToResponse(w, result.Tokens)
		render.JSON(w, newTokenResponse(result))
	})
}

func handleTokenRefresh(auth authService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, err := auth.GetAccessString(r)
		if err != nil {
			render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		refresh, err := auth.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		result, err := auth.RefreshPair(r.Context(), access, refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				l.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			default:
				// Reused, expired, mismatched and forged tokens all land here
				render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
			}
			return
		}

		auth.SetTokenPairToResponse(w, result.Tokens)
		render.JSON(w, newTokenResponse(result))
	})
}

func handleLogout(auth authService, l logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, _ := accountctx.FromContext(r.Context())

		if err := auth.Logout(r.Context(), account.ID); err != nil {
			l.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Logged out successfully"})
	})
}

func handleChangePassword(auth authService, l logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,max=100"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		account, _ := accountctx.FromContext(r.Context())

		err = auth.ChangePassword(r.Context(), account.ID, data.CurrentPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Current password is incorrect", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrWeakPassword):
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			default:
				l.Error("password change failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}

func handleForgotPassword(auth authService, l logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := auth.ForgotPassword(r.Context(), data.Email); err != nil {
			l.Error("forgot password failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: forgotPasswordAck})
	})
}

func handleResetPassword(auth authService, l logger) http.Handler {
	type request struct {
		Email       string `json:"email" validate:"required,email"`
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,max=100"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = auth.ResetPassword(r.Context(), data.Email, data.Token, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrWeakPassword):
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrInvalidToken):
				// Same reply for unknown email and wrong/expired/used token
				render.ServiceError(w, "Invalid reset token", http.StatusBadRequest)
			default:
				l.Error("password reset failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password reset successfully"})
	})
}

func handleMe(auth authService) http.Handler {
	type response struct {
		ID             uuid.UUID  `json:"id"`
		Email          string     `json:"email"`
		FullName       string     `json:"full_name"`
		EmailConfirmed bool       `json:"email_confirmed"`
		IsActive       bool       `json:"is_active"`
		CreatedAt      time.Time  `json:"created_at"`
		LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
		Roles          []string   `json:"roles"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, _ := accountctx.FromContext(r.Context())

		roles, err := auth.GetRoles(r.Context(), account.ID)
		if err != nil {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			ID:             account.ID,
			Email:          account.Email,
			FullName:       account.FullName,
			EmailConfirmed: account.EmailConfirmed,
			IsActive:       account.IsActive,
			CreatedAt:      account.CreatedAt,
			LastLoginAt:    account.LastLoginAt,
			Roles:          roles,
		})
	})
}
