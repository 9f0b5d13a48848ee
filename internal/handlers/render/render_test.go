package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_JSON(t *testing.T) {
	t.Parallel()

	t.Run("ok with default status", func(t *testing.T) {
		rec := httptest.NewRecorder()

		JSON(rec, map[string]string{"message": "hello"})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"message": "hello"}`, rec.Body.String())
	})

	t.Run("custom status", func(t *testing.T) {
		rec := httptest.NewRecorder()

		JSONWithStatus(rec, map[string]string{"message": "created"}, http.StatusCreated)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.JSONEq(t, `{"message": "created"}`, rec.Body.String())
	})
}

func Test_ServiceError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()

	ServiceError(rec, "Something went wrong", http.StatusConflict)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `
		{
			"error": "service_error",
			"message": "Something went wrong"
		}`, rec.Body.String())
}

func Test_BindAndValidate(t *testing.T) {
	t.Parallel()

	type request struct {
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"full_name" validate:"required,min=2"`
	}

	t.Run("valid body ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email": "doc@clinic.test", "full_name": "Doc Brown"}`))

		got, err := BindAndValidate[request](rec, req)

		require.NoError(t, err)
		require.Equal(t, "doc@clinic.test", got.Email)
		require.Equal(t, "Doc Brown", got.FullName)
	})

	t.Run("broken json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email": `))

		_, err := BindAndValidate[request](rec, req)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), DecodingErrorType)
	})

	t.Run("wrong field type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email": 42}`))

		_, err := BindAndValidate[request](rec, req)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), DecodingErrorType)
		require.Contains(t, rec.Body.String(), "email", "message should name the offending field")
	})

	t.Run("validation errors use json names", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email": "not-an-email", "full_name": "D"}`))

		_, err := BindAndValidate[request](rec, req)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `
			{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {
					"email": "Invalid email format",
					"full_name": "Value is too short (minimum 2)"
				}
			}`, rec.Body.String())
	})

	t.Run("missing required fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))

		_, err := BindAndValidate[request](rec, req)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "This field is required")
	})
}
