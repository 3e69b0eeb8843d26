package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayTransaction records one payment-initiation attempt with an external
// payment processor. Many-to-one with Invoice: an invoice may see several
// attempts, only one of which should resolve to success.
type GatewayTransaction struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Gateway     string
	OrderID     string // derived from the invoice number, e.g. PAY-INV-202608-4F2A91C3
	Amount      decimal.Decimal
	Status      GatewayPaymentStatus
	PaymentType string
	FraudStatus string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
