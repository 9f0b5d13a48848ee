package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/clinic/internal/models"
)

// SetTokenPairToResponse writes the pair the way clients expect it:
// access token in the auth header, refresh token in an HttpOnly cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetRefreshString reads the refresh token from the request cookie
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("refresh cookie not found. Err: %w", err)
	}

	return cookie.Value, nil
}

// GetAccessString reads the access token from the auth header
func (s *AuthService) GetAccessString(r *http.Request) (string, error) {
	header := r.Header.Get(s.accessHeaderName)
	if header == "" {
		return "", errors.New("auth header not found")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) {
		return "", fmt.Errorf("auth header is not in '%s <token>' format", s.accessAuthScheme)
	}

	return token, nil
}
