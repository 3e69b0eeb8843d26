// Package fixtures provides test data builders shared across test files.
package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adiwena/netbilling/internal/domain/models"
)

// Customer returns an active customer with router and device identities.
func Customer() *models.Customer {
	pkgID := uuid.New()
	return &models.Customer{
		ID:             uuid.New(),
		Username:       "budi01",
		Name:           "Budi Santoso",
		Phone:          "6281234567890",
		PPPoEUsername:  "budi01@net",
		PackageID:      &pkgID,
		BillingDay:     5,
		AutoSuspension: true,
		Status:         models.CustomerActive,
	}
}

// Package returns a service package with a 10 Mbps profile.
func Package(id uuid.UUID) *models.Package {
	return &models.Package{
		ID:           id,
		Name:         "Home 10M",
		Price:        decimal.NewFromInt(150000),
		PPPoEProfile: "profile-10m",
	}
}

// UnpaidInvoice returns an unpaid invoice for the customer due at the
// given time.
func UnpaidInvoice(customerID, packageID uuid.UUID, due time.Time) *models.Invoice {
	base := decimal.NewFromInt(150000)
	rate := decimal.NewFromFloat(11.0)
	return &models.Invoice{
		ID:         uuid.New(),
		CustomerID: customerID,
		PackageID:  packageID,
		Number:     "INV-" + due.Format("200601") + "-AB12CD34",
		BaseAmount: base,
		TaxRate:    rate,
		Amount:     models.InvoiceAmount(base, rate),
		DueDate:    due,
		Status:     models.InvoiceUnpaid,
	}
}

// DecimalPtr returns a pointer to the given decimal.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
