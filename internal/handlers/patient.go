package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/handlers/render"
	"github.com/nkiryanov/clinic/internal/models"
)

const birthDateLayout = "2006-01-02"

type patientResponse struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Name      string     `json:"name"`
	BirthDate string     `json:"birth_date"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
}

func newPatientResponse(p models.Patient) patientResponse {
	return patientResponse{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Name:      p.Name,
		BirthDate: p.BirthDate.Format(birthDateLayout),
		DoctorID:  p.DoctorID,
	}
}

type patientRequest struct {
	Name      string     `json:"name" validate:"required,min=2,max=100"`
	BirthDate string     `json:"birth_date" validate:"required,datetime=2006-01-02"`
	DoctorID  *uuid.UUID `json:"doctor_id"`
}

func (req patientRequest) model() models.Patient {
	// Layout is enforced by the datetime validation tag already
	birthDate, _ := time.Parse(birthDateLayout, req.BirthDate)

	return models.Patient{
		Name:      req.Name,
		BirthDate: birthDate,
		DoctorID:  req.DoctorID,
	}
}

func handleCreatePatient(patients patientService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[patientRequest](w, r)
		if err != nil {
			return
		}

		patient, err := patients.Create(r.Context(), data.model())
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrDoctorNotFound):
				render.ServiceError(w, "Doctor not found", http.StatusBadRequest)
			default:
				l.Error("patient create failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, newPatientResponse(patient), http.StatusCreated)
	})
}

func handleGetPatient(patients patientService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid patient id", http.StatusBadRequest)
			return
		}

		patient, err := patients.Get(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPatientNotFound):
				render.ServiceError(w, "Patient not found", http.StatusNotFound)
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newPatientResponse(patient))
	})
}

func handleListPatients(patients patientService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, offset := listParamsFromQuery(r)

		list, err := patients.List(r.Context(), limit, offset)
		if err != nil {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]patientResponse, 0, len(list))
		for _, p := range list {
			response = append(response, newPatientResponse(p))
		}

		render.JSON(w, response)
	})
}

func handleUpdatePatient(patients patientService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid patient id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[patientRequest](w, r)
		if err != nil {
			return
		}

		patient := data.model()
		patient.ID = id

		updated, err := patients.Update(r.Context(), patient)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPatientNotFound):
				render.ServiceError(w, "Patient not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrDoctorNotFound):
				render.ServiceError(w, "Doctor not found", http.StatusBadRequest)
			default:
				l.Error("patient update failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newPatientResponse(updated))
	})
}

func handleDeletePatient(patients patientService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid patient id", http.StatusBadRequest)
			return
		}

		err = patients.Delete(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrPatientNotFound):
				render.ServiceError(w, "Patient not found", http.StatusNotFound)
			default:
				l.Error("patient delete failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
