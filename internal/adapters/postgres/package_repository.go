package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
)

// PackageRepository implements ports.PackageRepository over pgx
type PackageRepository struct {
	db *pgxpool.Pool
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{db: db}
}

// GetByID retrieves a package by id
func (r *PackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	query := `
		SELECT id, name, price, tax_rate, pppoe_profile, created_at, updated_at
		FROM packages
		WHERE id = $1`

	var p models.Package
	var taxRate decimal.NullDecimal
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Price, &taxRate, &p.PPPoEProfile, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("get package by id: %w", err)
	}
	if taxRate.Valid {
		p.TaxRate = &taxRate.Decimal
	}
	return &p, nil
}
