package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adiwena/netbilling/pkg/timeutil"
)

// InvoiceStatus represents the settlement state of an invoice
type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
)

// GatewayPaymentStatus mirrors the payment gateway's transaction lifecycle
type GatewayPaymentStatus string

const (
	GatewayPending GatewayPaymentStatus = "pending"
	GatewaySuccess GatewayPaymentStatus = "success"
	GatewayFailed  GatewayPaymentStatus = "failed"
)

// Invoice represents one billing-cycle charge for a customer
type Invoice struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	PackageID  uuid.UUID
	Number     string // globally unique, e.g. INV-202608-4F2A91C3
	BaseAmount decimal.Decimal
	TaxRate    decimal.Decimal // percent applied at generation time
	Amount     decimal.Decimal // BaseAmount * (1 + TaxRate/100)
	DueDate    time.Time
	Status     InvoiceStatus
	// PaymentMethod records how the invoice was settled (manual, transfer,
	// or the gateway payment type reported by the webhook)
	PaymentMethod string

	// Online-payment fields, set when a checkout is initiated
	Gateway              string
	GatewayToken         string
	GatewayRedirectURL   string
	GatewayPaymentStatus GatewayPaymentStatus

	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceAmount computes the gross amount for a base price and tax percentage,
// rounded to two decimal places.
func InvoiceAmount(base, taxRatePercent decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return base.Mul(one.Add(taxRatePercent.Div(hundred))).Round(2)
}

// IsOverdue reports whether the invoice is unpaid and past due at the given time
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceUnpaid && now.After(i.DueDate)
}

// DaysOverdue returns whole days elapsed since the due date, zero when not overdue
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsOverdue(now) {
		return 0
	}
	return timeutil.DaysOverdue(i.DueDate, now)
}
