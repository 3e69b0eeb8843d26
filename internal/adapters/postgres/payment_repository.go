package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwena/netbilling/internal/domain/models"
)

// PaymentRepository implements ports.PaymentRepository over pgx.
// The payments table is append-only.
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends one payment row
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, invoice_id, amount, method, reference_number, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := r.db.Exec(ctx, query,
		payment.ID, payment.InvoiceID, payment.Amount,
		payment.Method, payment.ReferenceNumber, payment.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}
