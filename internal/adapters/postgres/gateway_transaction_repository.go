package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
)

// GatewayTransactionRepository implements ports.GatewayTransactionRepository over pgx
type GatewayTransactionRepository struct {
	db *pgxpool.Pool
}

// NewGatewayTransactionRepository creates a new gateway transaction repository
func NewGatewayTransactionRepository(db *pgxpool.Pool) *GatewayTransactionRepository {
	return &GatewayTransactionRepository{db: db}
}

// Create records one payment-initiation attempt
func (r *GatewayTransactionRepository) Create(ctx context.Context, txn *models.GatewayTransaction) error {
	query := `
		INSERT INTO gateway_transactions (
			id, invoice_id, gateway, order_id, amount, status,
			payment_type, fraud_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		txn.ID, txn.InvoiceID, txn.Gateway, txn.OrderID, txn.Amount,
		txn.Status, txn.PaymentType, txn.FraudStatus,
	)
	if err != nil {
		return fmt.Errorf("create gateway transaction: %w", err)
	}
	return nil
}

// GetByOrderID retrieves the most recent attempt for an order id and gateway
func (r *GatewayTransactionRepository) GetByOrderID(ctx context.Context, orderID, gateway string) (*models.GatewayTransaction, error) {
	query := `
		SELECT id, invoice_id, gateway, order_id, amount, status,
		       payment_type, fraud_status, created_at, updated_at
		FROM gateway_transactions
		WHERE order_id = $1 AND gateway = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var t models.GatewayTransaction
	err := r.db.QueryRow(ctx, query, orderID, gateway).Scan(
		&t.ID, &t.InvoiceID, &t.Gateway, &t.OrderID, &t.Amount, &t.Status,
		&t.PaymentType, &t.FraudStatus, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get gateway transaction: %w", err)
	}
	return &t, nil
}

// UpdateStatus mirrors the gateway-side lifecycle onto the attempt record
func (r *GatewayTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.GatewayPaymentStatus, paymentType, fraudStatus string) error {
	query := `
		UPDATE gateway_transactions
		SET status = $1, payment_type = $2, fraud_status = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := r.db.Exec(ctx, query, status, paymentType, fraudStatus, id)
	if err != nil {
		return fmt.Errorf("update gateway transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
