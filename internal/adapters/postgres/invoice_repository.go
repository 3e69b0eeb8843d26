package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
)

const invoiceColumns = `
	id, customer_id, package_id, number, base_amount, tax_rate, amount,
	due_date, status, payment_method, gateway, gateway_token,
	gateway_redirect_url, gateway_payment_status, paid_at, created_at, updated_at`

// InvoiceRepository implements ports.InvoiceRepository over pgx
type InvoiceRepository struct {
	db *pgxpool.Pool
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts a new invoice
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, customer_id, package_id, number, base_amount, tax_rate, amount,
			due_date, status, payment_method, gateway, gateway_token,
			gateway_redirect_url, gateway_payment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		invoice.ID, invoice.CustomerID, invoice.PackageID, invoice.Number,
		invoice.BaseAmount, invoice.TaxRate, invoice.Amount,
		invoice.DueDate, invoice.Status, invoice.PaymentMethod,
		invoice.Gateway, invoice.GatewayToken, invoice.GatewayRedirectURL,
		invoice.GatewayPaymentStatus,
	)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by id
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByNumber retrieves an invoice by its globally unique number
func (r *InvoiceRepository) GetByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	query := `SELECT` + invoiceColumns + ` FROM invoices WHERE number = $1`
	return r.getOne(ctx, query, number)
}

// ListOverdue returns unpaid invoices whose due date precedes asOf
func (r *InvoiceRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error) {
	query := `SELECT` + invoiceColumns + `
		FROM invoices
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date`

	rows, err := r.db.Query(ctx, query, models.InvoiceUnpaid, asOf)
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// ListByCustomer returns all invoices for a customer, newest first
func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT` + invoiceColumns + `
		FROM invoices
		WHERE customer_id = $1
		ORDER BY due_date DESC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices by customer: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// CountUnpaidByCustomer counts the customer's unpaid invoices
func (r *InvoiceRepository) CountUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE customer_id = $1 AND status = $2`

	var count int
	if err := r.db.QueryRow(ctx, query, customerID, models.InvoiceUnpaid).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unpaid invoices: %w", err)
	}
	return count, nil
}

// ExistsInRange reports whether the customer has an invoice due in [start, end)
func (r *InvoiceRepository) ExistsInRange(ctx context.Context, customerID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE customer_id = $1 AND due_date >= $2 AND due_date < $3
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, customerID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("invoice range check: %w", err)
	}
	return exists, nil
}

// MarkPaid flips an unpaid invoice to paid. The WHERE status guard makes the
// flip happen at most once; the return value reports whether this call did it.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, method string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE invoices
		SET status = $1, payment_method = $2, gateway_payment_status = $3,
		    paid_at = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6`

	tag, err := r.db.Exec(ctx, query,
		models.InvoicePaid, method, models.GatewaySuccess, paidAt, id, models.InvoiceUnpaid)
	if err != nil {
		return false, fmt.Errorf("mark invoice paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetGatewayCheckout persists the checkout token produced by a payment initiation
func (r *InvoiceRepository) SetGatewayCheckout(ctx context.Context, id uuid.UUID, gateway, token, redirectURL string) error {
	query := `
		UPDATE invoices
		SET gateway = $1, gateway_token = $2, gateway_redirect_url = $3,
		    gateway_payment_status = $4, updated_at = NOW()
		WHERE id = $5`

	tag, err := r.db.Exec(ctx, query, gateway, token, redirectURL, models.GatewayPending, id)
	if err != nil {
		return fmt.Errorf("set gateway checkout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Invoice, error) {
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return invoice, nil
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var i models.Invoice
	err := row.Scan(
		&i.ID, &i.CustomerID, &i.PackageID, &i.Number,
		&i.BaseAmount, &i.TaxRate, &i.Amount,
		&i.DueDate, &i.Status, &i.PaymentMethod,
		&i.Gateway, &i.GatewayToken, &i.GatewayRedirectURL,
		&i.GatewayPaymentStatus, &i.PaidAt, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func collectInvoices(rows pgx.Rows) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}
