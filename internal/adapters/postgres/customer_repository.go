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

const customerColumns = `
	id, username, name, phone, pppoe_username, pppoe_profile,
	package_id, billing_day, auto_suspension, status, created_at, updated_at`

// CustomerRepository implements ports.CustomerRepository over pgx
type CustomerRepository struct {
	db *pgxpool.Pool
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID retrieves a customer by id
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	return customer, nil
}

// ListActiveWithPackage returns active customers that have a package assigned
func (r *CustomerRepository) ListActiveWithPackage(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT` + customerColumns + `
		FROM customers
		WHERE status = $1 AND package_id IS NOT NULL
		ORDER BY username`

	rows, err := r.db.Query(ctx, query, models.CustomerActive)
	if err != nil {
		return nil, fmt.Errorf("list active customers: %w", err)
	}
	defer rows.Close()

	return collectCustomers(rows)
}

// ListByStatus returns all customers with the given billing status
func (r *CustomerRepository) ListByStatus(ctx context.Context, status models.CustomerStatus) ([]*models.Customer, error) {
	query := `SELECT` + customerColumns + ` FROM customers WHERE status = $1 ORDER BY username`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list customers by status: %w", err)
	}
	defer rows.Close()

	return collectCustomers(rows)
}

// UpdateStatus writes the customer's billing status. Single-row write,
// last writer wins.
func (r *CustomerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CustomerStatus) error {
	query := `UPDATE customers SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update customer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID, &c.Username, &c.Name, &c.Phone, &c.PPPoEUsername, &c.PPPoEProfile,
		&c.PackageID, &c.BillingDay, &c.AutoSuspension, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]*models.Customer, error) {
	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}
