// Package midtrans adapts the Midtrans Snap API as a payment gateway:
// checkout initiation through Snap and normalization of HTTP notification
// payloads into the canonical gateway statuses.
package midtrans

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
)

// GatewayName identifies this adapter in transaction rows and webhook routes
const GatewayName = "midtrans"

// orderIDPrefix distinguishes gateway order ids from raw invoice numbers.
// Stripping it recovers the invoice number for the fallback match path.
const orderIDPrefix = "PAY-"

// Config contains Midtrans credentials
type Config struct {
	ServerKey  string
	Production bool
}

// Gateway implements ports.PaymentGateway over Midtrans Snap
type Gateway struct {
	client snap.Client
	logger *zap.Logger
}

// NewGateway creates a Midtrans Snap gateway
func NewGateway(cfg *Config, logger *zap.Logger) *Gateway {
	g := &Gateway{logger: logger}
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}
	g.client.New(cfg.ServerKey, env)
	return g
}

// Name returns the gateway identifier
func (g *Gateway) Name() string {
	return GatewayName
}

// CreateTransaction initiates a Snap checkout for the invoice
func (g *Gateway) CreateTransaction(ctx context.Context, invoice *models.Invoice, customer *models.Customer) (*ports.GatewayCheckout, error) {
	orderID := g.OrderID(invoice.Number)

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: invoice.Amount.Round(0).IntPart(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customer.Name,
			Phone: customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    invoice.Number,
				Name:  "Tagihan internet " + invoice.Number,
				Price: invoice.Amount.Round(0).IntPart(),
				Qty:   1,
			},
		},
	}

	resp, mErr := g.client.CreateTransaction(req)
	if mErr != nil {
		g.logger.Error("snap transaction creation failed",
			zap.String("order_id", orderID),
			zap.Error(mErr),
		)
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "create snap transaction", mErr)
	}

	return &ports.GatewayCheckout{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// notification is the Midtrans HTTP notification body
type notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	GrossAmount       string `json:"gross_amount"`
}

// ParseNotification normalizes a Midtrans notification. Status mapping:
// settlement, and capture with fraud_status accept, mean success;
// deny, cancel, expire and failure mean failed; everything else
// (pending, capture under fraud challenge) stays pending.
func (g *Gateway) ParseNotification(payload []byte) (*ports.GatewayNotification, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInvalidPayload, "decode midtrans notification", err)
	}
	if n.OrderID == "" || n.TransactionStatus == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidPayload, "midtrans notification missing order_id or transaction_status")
	}

	var status models.GatewayPaymentStatus
	switch n.TransactionStatus {
	case "settlement":
		status = models.GatewaySuccess
	case "capture":
		if n.FraudStatus == "challenge" {
			status = models.GatewayPending
		} else {
			status = models.GatewaySuccess
		}
	case "deny", "cancel", "expire", "failure":
		status = models.GatewayFailed
	default:
		status = models.GatewayPending
	}

	gross := decimal.Zero
	if n.GrossAmount != "" {
		parsed, err := decimal.NewFromString(n.GrossAmount)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeInvalidPayload, fmt.Sprintf("gross_amount %q", n.GrossAmount), err)
		}
		gross = parsed
	}

	return &ports.GatewayNotification{
		OrderID:     n.OrderID,
		Status:      status,
		PaymentType: n.PaymentType,
		FraudStatus: n.FraudStatus,
		GrossAmount: gross,
	}, nil
}

// OrderID derives the Snap order id for an invoice number
func (g *Gateway) OrderID(invoiceNumber string) string {
	return orderIDPrefix + invoiceNumber
}

// InvoiceNumberFromOrderID strips the gateway prefix from an order id
func (g *Gateway) InvoiceNumberFromOrderID(orderID string) string {
	return strings.TrimPrefix(orderID, orderIDPrefix)
}
