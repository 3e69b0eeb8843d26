package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/pkg/observability"
	"github.com/adiwena/netbilling/pkg/timeutil"
)

// GenerationResult reports one generator run
type GenerationResult struct {
	Checked int `json:"checked"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Generator produces one invoice per active customer per calendar month.
// Two entry points share the duplicate guard: the monthly batch and the
// daily batch keyed off each customer's billing day. Whichever runs first
// for a given month wins; the other finds the existing invoice and skips.
type Generator struct {
	customers ports.CustomerRepository
	packages  ports.PackageRepository
	invoices  ports.InvoiceRepository
	settings  ports.SettingsStore
	notifier  ports.Notifier
	logger    ports.Logger
}

// NewGenerator creates an invoice generator
func NewGenerator(
	customers ports.CustomerRepository,
	packages ports.PackageRepository,
	invoices ports.InvoiceRepository,
	settings ports.SettingsStore,
	notifier ports.Notifier,
	logger ports.Logger,
) *Generator {
	return &Generator{
		customers: customers,
		packages:  packages,
		invoices:  invoices,
		settings:  settings,
		notifier:  notifier,
		logger:    logger,
	}
}

// GenerateMonthly creates the current month's invoice for every active
// customer with a package. The due day is the customer's billing day clamped
// to the month's length. Per-customer failures are counted and do not abort
// the batch.
func (g *Generator) GenerateMonthly(ctx context.Context, now time.Time) (GenerationResult, error) {
	var result GenerationResult

	customers, err := g.customers.ListActiveWithPackage(ctx)
	if err != nil {
		return result, fmt.Errorf("list active customers: %w", err)
	}

	for _, customer := range customers {
		result.Checked++

		dueDay := customer.BillingDayClamped()
		if last := timeutil.LastDayOfMonth(now); dueDay > last {
			dueDay = last
		}
		due := time.Date(now.Year(), now.Month(), dueDay, 0, 0, 0, 0, now.Location())

		g.generateOne(ctx, customer, now, due, &result)
	}

	observability.RecordInvoiceGeneration("monthly", result.Created)
	g.logger.Info("monthly invoice generation completed",
		ports.Int("checked", result.Checked),
		ports.Int("created", result.Created),
		ports.Int("skipped", result.Skipped),
		ports.Int("errors", result.Errors))

	return result, nil
}

// GenerateForBillingDay creates invoices for active customers whose clamped
// billing day equals today's day-of-month, due today.
func (g *Generator) GenerateForBillingDay(ctx context.Context, now time.Time) (GenerationResult, error) {
	var result GenerationResult

	customers, err := g.customers.ListActiveWithPackage(ctx)
	if err != nil {
		return result, fmt.Errorf("list active customers: %w", err)
	}

	for _, customer := range customers {
		if customer.BillingDayClamped() != now.Day() {
			continue
		}
		result.Checked++

		due := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		g.generateOne(ctx, customer, now, due, &result)
	}

	observability.RecordInvoiceGeneration("daily", result.Created)
	g.logger.Info("billing-day invoice generation completed",
		ports.Int("day", now.Day()),
		ports.Int("checked", result.Checked),
		ports.Int("created", result.Created),
		ports.Int("skipped", result.Skipped),
		ports.Int("errors", result.Errors))

	return result, nil
}

// generateOne applies the shared duplicate-check-and-create logic for one
// customer within the month containing now.
func (g *Generator) generateOne(ctx context.Context, customer *models.Customer, now, due time.Time, result *GenerationResult) {
	start, end := timeutil.MonthWindow(now)

	exists, err := g.invoices.ExistsInRange(ctx, customer.ID, start, end)
	if err != nil {
		result.Errors++
		g.logger.Error("duplicate check failed",
			ports.String("customer", customer.Username),
			ports.Err(err))
		return
	}
	if exists {
		result.Skipped++
		return
	}

	pkg, err := g.packages.GetByID(ctx, *customer.PackageID)
	if err != nil {
		result.Errors++
		g.logger.Error("package load failed",
			ports.String("customer", customer.Username),
			ports.Err(err))
		return
	}

	defaultRate := decimal.NewFromFloat(g.settings.GetFloat(ports.KeyDefaultTaxRatePercent, ports.DefaultTaxRatePercent))
	taxRate := pkg.EffectiveTaxRate(defaultRate)

	inv := &models.Invoice{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		PackageID:  pkg.ID,
		Number:     NewInvoiceNumber(now),
		BaseAmount: pkg.Price,
		TaxRate:    taxRate,
		Amount:     models.InvoiceAmount(pkg.Price, taxRate),
		DueDate:    due,
		Status:     models.InvoiceUnpaid,
	}

	if err := g.invoices.Create(ctx, inv); err != nil {
		result.Errors++
		g.logger.Error("invoice create failed",
			ports.String("customer", customer.Username),
			ports.String("invoice", inv.Number),
			ports.Err(err))
		return
	}

	result.Created++

	if customer.Phone != "" {
		if ok := g.notifier.Notify(ctx, customer.Phone, ports.TemplateInvoiceCreated, map[string]string{
			"name":     customer.Name,
			"invoice":  inv.Number,
			"amount":   inv.Amount.StringFixed(0),
			"due_date": due.Format("2006-01-02"),
		}); !ok {
			g.logger.Warn("invoice notification delivery failed",
				ports.String("customer", customer.Username))
		}
	}

	g.logger.Info("invoice created",
		ports.String("customer", customer.Username),
		ports.String("invoice", inv.Number),
		ports.String("amount", inv.Amount.String()),
		ports.String("due", due.Format("2006-01-02")))
}

// NewInvoiceNumber generates a globally unique invoice number carrying the
// billing period, e.g. INV-202608-4F2A91C3.
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), suffix)
}
