package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adiwena/netbilling/internal/domain/models"
)

// CustomerRepository provides access to customer records
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	// ListActiveWithPackage returns active customers that have a package
	// assigned, the population both invoice generators iterate
	ListActiveWithPackage(ctx context.Context) ([]*models.Customer, error)
	ListByStatus(ctx context.Context, status models.CustomerStatus) ([]*models.Customer, error)
	// UpdateStatus is a single-row, last-writer-wins status write
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.CustomerStatus) error
}

// PackageRepository provides access to service packages
type PackageRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error)
}

// InvoiceRepository provides access to invoices and derived billing queries
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*models.Invoice, error)
	// ListOverdue returns unpaid invoices whose due date precedes asOf
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Invoice, error)
	CountUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) (int, error)
	// ExistsInRange reports whether the customer already has an invoice with a
	// due date inside [start, end); guards duplicate generation within a month
	ExistsInRange(ctx context.Context, customerID uuid.UUID, start, end time.Time) (bool, error)
	// MarkPaid flips an unpaid invoice to paid and reports whether this call
	// performed the flip; a second call for the same invoice returns false
	MarkPaid(ctx context.Context, id uuid.UUID, method string, paidAt time.Time) (bool, error)
	// SetGatewayCheckout persists the gateway name, token and redirect URL
	// produced by an online payment initiation
	SetGatewayCheckout(ctx context.Context, id uuid.UUID, gateway, token, redirectURL string) error
}

// PaymentRepository appends rows to the payment ledger
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
}

// GatewayTransactionRepository tracks payment-initiation attempts
type GatewayTransactionRepository interface {
	Create(ctx context.Context, txn *models.GatewayTransaction) error
	GetByOrderID(ctx context.Context, orderID, gateway string) (*models.GatewayTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.GatewayPaymentStatus, paymentType, fraudStatus string) error
}
