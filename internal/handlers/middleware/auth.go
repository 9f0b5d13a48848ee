package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/handlers/accountctx"
	"github.com/nkiryanov/clinic/internal/handlers/render"
	"github.com/nkiryanov/clinic/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.Account, error)
}

// AuthMiddleware rejects requests without a valid access token and puts
// the authenticated account into the request context
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := as.Auth(r.Context(), r)
			switch {
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				// A database blip is not the client's fault, don't make
				// it look like the token went bad
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			case err != nil:
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := accountctx.New(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
