package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
)

// Service initiates online payments: it asks the gateway for a checkout
// token, persists it on the invoice and records a pending gateway
// transaction for the reconciler to match against.
type Service struct {
	gateway      ports.PaymentGateway
	invoices     ports.InvoiceRepository
	customers    ports.CustomerRepository
	transactions ports.GatewayTransactionRepository
	logger       ports.Logger
}

// NewService creates a checkout service bound to one gateway
func NewService(
	gateway ports.PaymentGateway,
	invoices ports.InvoiceRepository,
	customers ports.CustomerRepository,
	transactions ports.GatewayTransactionRepository,
	logger ports.Logger,
) *Service {
	return &Service{
		gateway:      gateway,
		invoices:     invoices,
		customers:    customers,
		transactions: transactions,
		logger:       logger,
	}
}

// InitiateOnlinePayment creates a gateway checkout for an unpaid invoice.
// An invoice may see several attempts; each gets its own pending
// transaction row and only one should resolve to success.
func (s *Service) InitiateOnlinePayment(ctx context.Context, invoiceID uuid.UUID) (*ports.GatewayCheckout, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if invoice.Status == models.InvoicePaid {
		return nil, fmt.Errorf("invoice %s already paid", invoice.Number)
	}

	customer, err := s.customers.GetByID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	result, err := s.gateway.CreateTransaction(ctx, invoice, customer)
	if err != nil {
		return nil, fmt.Errorf("create gateway transaction: %w", err)
	}

	if err := s.invoices.SetGatewayCheckout(ctx, invoice.ID, s.gateway.Name(), result.Token, result.RedirectURL); err != nil {
		return nil, fmt.Errorf("persist checkout on invoice: %w", err)
	}

	if err := s.transactions.Create(ctx, &models.GatewayTransaction{
		ID:        uuid.New(),
		InvoiceID: invoice.ID,
		Gateway:   s.gateway.Name(),
		OrderID:   result.OrderID,
		Amount:    invoice.Amount,
		Status:    models.GatewayPending,
	}); err != nil {
		return nil, fmt.Errorf("record gateway transaction: %w", err)
	}

	s.logger.Info("online payment initiated",
		ports.String("invoice", invoice.Number),
		ports.String("gateway", s.gateway.Name()),
		ports.String("order_id", result.OrderID))

	return result, nil
}
