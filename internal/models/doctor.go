package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Doctor struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	Specialty string

	// Consultation price, money so decimal
	Price decimal.Decimal
}
