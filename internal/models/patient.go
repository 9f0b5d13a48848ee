package models

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	BirthDate time.Time

	// Attending doctor, nil if not assigned yet
	DoctorID *uuid.UUID
}
