package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/adiwena/netbilling/internal/domain/models"
)

// GatewayCheckout is the result of initiating an online payment
type GatewayCheckout struct {
	OrderID     string
	Token       string
	RedirectURL string
}

// GatewayNotification is the canonical form of a gateway webhook payload
type GatewayNotification struct {
	OrderID     string
	Status      models.GatewayPaymentStatus
	PaymentType string
	FraudStatus string
	GrossAmount decimal.Decimal
}

// PaymentGateway adapts one external payment processor: payment initiation
// and webhook payload normalization.
type PaymentGateway interface {
	Name() string
	// CreateTransaction initiates an online payment for an invoice and returns
	// the checkout token and redirect URL to hand to the customer
	CreateTransaction(ctx context.Context, invoice *models.Invoice, customer *models.Customer) (*GatewayCheckout, error)
	// ParseNotification normalizes a raw webhook payload. Payloads that do not
	// parse return domain errors with ErrorCodeInvalidPayload.
	ParseNotification(payload []byte) (*GatewayNotification, error)
	// OrderID derives the gateway order id for an invoice number
	OrderID(invoiceNumber string) string
	// InvoiceNumberFromOrderID strips the gateway prefix from an order id,
	// the fallback match path when no transaction record was persisted
	InvoiceNumberFromOrderID(orderID string) string
}
