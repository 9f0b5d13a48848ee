package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/clinic/internal/apperrors"
	"github.com/nkiryanov/clinic/internal/handlers/render"
	"github.com/nkiryanov/clinic/internal/models"
)

type doctorResponse struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Name      string          `json:"name"`
	Specialty string          `json:"specialty"`
	Price     decimal.Decimal `json:"price"`
}

func newDoctorResponse(d models.Doctor) doctorResponse {
	return doctorResponse{
		ID:        d.ID,
		CreatedAt: d.CreatedAt,
		Name:      d.Name,
		Specialty: d.Specialty,
		Price:     d.Price,
	}
}

type doctorRequest struct {
	Name      string          `json:"name" validate:"required,min=2,max=100"`
	Specialty string          `json:"specialty" validate:"required,min=2,max=100"`
	Price     decimal.Decimal `json:"price"`
}

func handleCreateDoctor(doctors doctorService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[doctorRequest](w, r)
		if err != nil {
			return
		}

		doctor, err := doctors.Create(r.Context(), models.Doctor{
			Name:      data.Name,
			Specialty: data.Specialty,
			Price:     data.Price,
		})
		if err != nil {
			l.Error("doctor create failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, newDoctorResponse(doctor), http.StatusCreated)
	})
}

func handleGetDoctor(doctors doctorService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid doctor id", http.StatusBadRequest)
			return
		}

		doctor, err := doctors.Get(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrDoctorNotFound):
				render.ServiceError(w, "Doctor not found", http.StatusNotFound)
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newDoctorResponse(doctor))
	})
}

func handleListDoctors(doctors doctorService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, offset := listParamsFromQuery(r)

		list, err := doctors.List(r.Context(), limit, offset)
		if err != nil {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]doctorResponse, 0, len(list))
		for _, d := range list {
			response = append(response, newDoctorResponse(d))
		}

		render.JSON(w, response)
	})
}

func handleUpdateDoctor(doctors doctorService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid doctor id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[doctorRequest](w, r)
		if err != nil {
			return
		}

		doctor, err := doctors.Update(r.Context(), models.Doctor{
			ID:        id,
			Name:      data.Name,
			Specialty: data.Specialty,
			Price:     data.Price,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrDoctorNotFound):
				render.ServiceError(w, "Doctor not found", http.StatusNotFound)
			default:
				l.Error("doctor update failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newDoctorResponse(doctor))
	})
}

func handleDeleteDoctor(doctors doctorService, l logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid doctor id", http.StatusBadRequest)
			return
		}

		err = doctors.Delete(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrDoctorNotFound):
				render.ServiceError(w, "Doctor not found", http.StatusNotFound)
			default:
				l.Error("doctor delete failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
