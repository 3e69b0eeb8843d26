package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one append-only ledger row against an invoice. An invoice may
// accumulate multiple rows (partial manual payment plus a gateway settlement).
type Payment struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	Method          string
	ReferenceNumber string
	PaidAt          time.Time
	CreatedAt       time.Time
}
