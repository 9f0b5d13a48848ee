package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinic/internal/testutil"
)

func Test_DoctorHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("requires auth", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			resp, _ := doJSON(t, "GET", env.URL+"/api/doctors", "")

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("create and get ok", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "Gregory House", "specialty": "Diagnostics", "price": "149.90"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/doctors", data, withAuthHeader(header))

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)

			var created struct {
				ID uuid.UUID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &created))

			resp, body = doJSON(t, "GET", env.URL+"/api/doctors/"+created.ID.String(), "", withAuthHeader(header))
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"Gregory House"`)
			require.Contains(t, body, `"Diagnostics"`)
			require.Contains(t, body, "149.9")
		})
	})

	t.Run("validation failed", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "G", "specialty": ""}`
			resp, body := doJSON(t, "POST", env.URL+"/api/doctors", data, withAuthHeader(header))

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "validation_failed")
		})
	})

	t.Run("invalid id", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			resp, body := doJSON(t, "GET", env.URL+"/api/doctors/not-a-uuid", "", withAuthHeader(header))

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("get missing doctor", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			resp, body := doJSON(t, "GET", env.URL+"/api/doctors/"+uuid.NewString(), "", withAuthHeader(header))

			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("update and delete", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "Gregory House", "specialty": "Diagnostics", "price": "149.90"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/doctors", data, withAuthHeader(header))
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			var created struct {
				ID uuid.UUID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &created))

			data = `{"name": "Gregory House", "specialty": "Nephrology", "price": "200.00"}`
			resp, body = doJSON(t, "PUT", env.URL+"/api/doctors/"+created.ID.String(), data, withAuthHeader(header))
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"Nephrology"`)

			resp, _ = doJSON(t, "DELETE", env.URL+"/api/doctors/"+created.ID.String(), "", withAuthHeader(header))
			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			resp, _ = doJSON(t, "GET", env.URL+"/api/doctors/"+created.ID.String(), "", withAuthHeader(header))
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("list", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "Gregory House", "specialty": "Diagnostics", "price": "149.90"}`
			resp, _ := doJSON(t, "POST", env.URL+"/api/doctors", data, withAuthHeader(header))
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			resp, body := doJSON(t, "GET", env.URL+"/api/doctors?limit=10&offset=0", "", withAuthHeader(header))

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var list []json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(body), &list))
			require.Len(t, list, 1)
		})
	})
}

func Test_PatientHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createDoctor := func(t *testing.T, env testEnv, header string) uuid.UUID {
		t.Helper()

		data := `{"name": "Gregory House", "specialty": "Diagnostics", "price": "149.90"}`
		resp, body := doJSON(t, "POST", env.URL+"/api/doctors", data, withAuthHeader(header))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created struct {
			ID uuid.UUID `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &created))
		return created.ID
	}

	t.Run("create without doctor ok", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "John Smith", "birth_date": "1980-05-15"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/patients", data, withAuthHeader(header))

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"John Smith"`)
			require.Contains(t, body, `"1980-05-15"`)
			require.NotContains(t, body, `"doctor_id"`, "unassigned doctor should be omitted")
		})
	})

	t.Run("create with doctor ok", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")
			doctorID := createDoctor(t, env, header)

			data := `{"name": "John Smith", "birth_date": "1980-05-15", "doctor_id": "` + doctorID.String() + `"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/patients", data, withAuthHeader(header))

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, doctorID.String())
		})
	})

	t.Run("create with unknown doctor fails", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "John Smith", "birth_date": "1980-05-15", "doctor_id": "` + uuid.NewString() + `"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/patients", data, withAuthHeader(header))

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Doctor not found"
				}`, body)
		})
	})

	t.Run("bad birth date fails validation", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "John Smith", "birth_date": "15.05.1980"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/patients", data, withAuthHeader(header))

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "validation_failed")
			require.Contains(t, body, `"birth_date"`)
		})
	})

	t.Run("update and delete", func(t *testing.T) {
		withServer(pg, t, func(env testEnv) {
			_, header := mustLogin(t, env, "doc@clinic.test")

			data := `{"name": "John Smith", "birth_date": "1980-05-15"}`
			resp, body := doJSON(t, "POST", env.URL+"/api/patients", data, withAuthHeader(header))
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			var created struct {
				ID uuid.UUID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &created))

			data = `{"name": "John A. Smith", "birth_date": "1980-05-16"}`
			resp, body = doJSON(t, "PUT", env.URL+"/api/patients/"+created.ID.String(), data, withAuthHeader(header))
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"John A. Smith"`)

			resp, _ = doJSON(t, "DELETE", env.URL+"/api/patients/"+created.ID.String(), "", withAuthHeader(header))
			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			resp, _ = doJSON(t, "GET", env.URL+"/api/patients/"+created.ID.String(), "", withAuthHeader(header))
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})
}
