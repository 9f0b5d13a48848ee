package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/handlers/middleware"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	doctorService doctorService,
	patientService patientService,
	l logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authService, l))
	api.Handle("POST /auth/login", handleLogin(authService, l))
	api.Handle("POST /auth/refresh", handleTokenRefresh(authService, l))
	api.Handle("POST /auth/forgot-password", handleForgotPassword(authService, l))
	api.Handle("POST /auth/reset-password", handleResetPassword(authService, l))

	api.Handle("POST /auth/logout", withAuth(handleLogout(authService, l)))
	api.Handle("POST /auth/change-password", withAuth(handleChangePassword(authService, l)))
	api.Handle("GET /auth/me", withAuth(handleMe(authService)))

	api.Handle("GET /doctors", withAuth(handleListDoctors(doctorService)))
	api.Handle("POST /doctors", withAuth(handleCreateDoctor(doctorService, l)))
	api.Handle("GET /doctors/{id}", withAuth(handleGetDoctor(doctorService)))
	api.Handle("PUT /doctors/{id}", withAuth(handleUpdateDoctor(doctorService, l)))
	api.Handle("DELETE /doctors/{id}", withAuth(handleDeleteDoctor(doctorService, l)))

	api.Handle("GET /patients", withAuth(handleListPatients(patientService)))
	api.Handle("POST /patients", withAuth(handleCreatePatient(patientService, l)))
	api.Handle("GET /patients/{id}", withAuth(handleGetPatient(patientService)))
	api.Handle("PUT /patients/{id}", withAuth(handleUpdatePatient(patientService, l)))
	api.Handle("DELETE /patients/{id}", withAuth(handleDeletePatient(patientService, l)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}

type authService interface {
	// Register new account
	// Has to return apperrors.ErrAccountExists if email is taken
	Register(ctx context.Context, email string, password string, fullName string) (models.Account, error)

	// Login with email and password
	// Unknown email and wrong password both map to apperrors.ErrInvalidCredentials
	Login(ctx context.Context, email string, password string) (auth.LoginResult, error)

	// Exchange expired access token + live refresh token for a fresh pair
	RefreshPair(ctx context.Context, access string, refresh string) (auth.LoginResult, error)

	// Revoke outstanding refresh tokens of the account
	Logout(ctx context.Context, accountID uuid.UUID) error

	// Replace password after verifying the current one
	ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword string, newPassword string) error

	// Issue reset token if the account exists; quiet either way
	ForgotPassword(ctx context.Context, email string) error

	// Consume reset token and replace the password
	ResetPassword(ctx context.Context, email string, token string, newPassword string) error

	// Role memberships for the profile endpoint
	GetRoles(ctx context.Context, accountID uuid.UUID) ([]string, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get tokens from request
	GetAccessString(r *http.Request) (string, error)
	GetRefreshString(r *http.Request) (string, error)

	// Authenticate request, used by the auth middleware
	Auth(ctx context.Context, r *http.Request) (models.Account, error)
}

type doctorService interface {
	Create(ctx context.Context, doctor models.Doctor) (models.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (models.Doctor, error)
	List(ctx context.Context, limit int, offset int) ([]models.Doctor, error)
	Update(ctx context.Context, doctor models.Doctor) (models.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type patientService interface {
	Create(ctx context.Context, patient models.Patient) (models.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (models.Patient, error)
	List(ctx context.Context, limit int, offset int) ([]models.Patient, error)
	Update(ctx context.Context, patient models.Patient) (models.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

func listParamsFromQuery(r *http.Request) (limit int, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
