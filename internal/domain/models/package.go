package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package represents a service plan a customer subscribes to
type Package struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
	// TaxRate is a percentage. nil means "use the configured default";
	// an explicit zero is a valid tax-free override.
	TaxRate *decimal.Decimal
	// PPPoEProfile is the router profile a restored customer returns to
	PPPoEProfile string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectiveTaxRate resolves the package tax rate against the configured default
func (p *Package) EffectiveTaxRate(defaultRate decimal.Decimal) decimal.Decimal {
	if p.TaxRate == nil {
		return defaultRate
	}
	return *p.TaxRate
}
