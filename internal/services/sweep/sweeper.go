package sweep

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/internal/services/suspension"
	"github.com/adiwena/netbilling/pkg/observability"
)

// Orchestrator is the slice of the suspension orchestrator the sweeps use
type Orchestrator interface {
	Suspend(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet
	Restore(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet
}

// OverdueResult reports one overdue sweep run
type OverdueResult struct {
	Checked   int `json:"checked"`
	Suspended int `json:"suspended"`
	Errors    int `json:"errors"`
}

// RestorationResult reports one restoration sweep run
type RestorationResult struct {
	Checked  int `json:"checked"`
	Restored int `json:"restored"`
	Errors   int `json:"errors"`
}

// Sweeper runs the two periodic batch jobs that converge billing state and
// network state: suspending customers overdue past the grace period and
// restoring suspended customers with no unpaid invoices left.
type Sweeper struct {
	invoices     ports.InvoiceRepository
	customers    ports.CustomerRepository
	orchestrator Orchestrator
	settings     ports.SettingsStore
	logger       ports.Logger

	// overdueRunning guards against overlapping overdue sweeps from
	// overlapping scheduler triggers. Process-local: a horizontally scaled
	// deployment gets no cross-instance protection from this flag.
	overdueRunning atomic.Bool
}

// NewSweeper creates a new sweeper
func NewSweeper(
	invoices ports.InvoiceRepository,
	customers ports.CustomerRepository,
	orchestrator Orchestrator,
	settings ports.SettingsStore,
	logger ports.Logger,
) *Sweeper {
	return &Sweeper{
		invoices:     invoices,
		customers:    customers,
		orchestrator: orchestrator,
		settings:     settings,
		logger:       logger,
	}
}

// RunOverdueSweep suspends customers whose oldest unpaid invoice has aged
// past the grace period. A concurrent invocation while one is already
// running is dropped entirely, not queued, and reported as
// domain.ErrSweepAlreadyRunning. Per-invoice failures are counted and do
// not stop the batch.
func (s *Sweeper) RunOverdueSweep(ctx context.Context) (OverdueResult, error) {
	var result OverdueResult

	if !s.overdueRunning.CompareAndSwap(false, true) {
		s.logger.Warn("overdue sweep trigger dropped, previous run still executing")
		return result, domain.ErrSweepAlreadyRunning
	}
	defer s.overdueRunning.Store(false)

	if !s.settings.GetBool(ports.KeyAutoSuspensionEnabled, true) {
		s.logger.Info("auto suspension disabled, overdue sweep skipped")
		return result, nil
	}

	started := time.Now()
	graceDays := s.settings.GetInt(ports.KeySuspensionGraceDays, ports.DefaultGraceDays)

	overdue, err := s.invoices.ListOverdue(ctx, started)
	if err != nil {
		return result, fmt.Errorf("list overdue invoices: %w", err)
	}

	// A customer can have several overdue invoices in the batch; after the
	// first suspension the already-suspended check skips the rest.
	for _, invoice := range overdue {
		result.Checked++

		days := invoice.DaysOverdue(started)
		if days < graceDays {
			continue
		}

		customer, err := s.customers.GetByID(ctx, invoice.CustomerID)
		if err != nil {
			result.Errors++
			s.logger.Error("customer load failed during overdue sweep",
				ports.String("invoice", invoice.Number),
				ports.Err(err))
			continue
		}
		if customer.Status == models.CustomerSuspended {
			continue
		}
		if !customer.AutoSuspension {
			s.logger.Debug("customer opted out of auto suspension",
				ports.String("customer", customer.Username))
			continue
		}

		outcome := s.orchestrator.Suspend(ctx, customer, fmt.Sprintf("Telat bayar %d hari", days))
		if outcome.Success {
			result.Suspended++
		} else {
			result.Errors++
		}
	}

	observability.RecordSweep("overdue", time.Since(started), result.Errors == 0)
	s.logger.Info("overdue sweep completed",
		ports.Int("checked", result.Checked),
		ports.Int("suspended", result.Suspended),
		ports.Int("errors", result.Errors),
		ports.Int("grace_days", graceDays))

	return result, nil
}

// RunRestorationSweep restores every suspended customer whose unpaid-invoice
// count is zero at scan time. Per-customer failures are counted and do not
// abort the sweep.
func (s *Sweeper) RunRestorationSweep(ctx context.Context) (RestorationResult, error) {
	var result RestorationResult
	started := time.Now()

	suspended, err := s.customers.ListByStatus(ctx, models.CustomerSuspended)
	if err != nil {
		return result, fmt.Errorf("list suspended customers: %w", err)
	}

	for _, customer := range suspended {
		result.Checked++

		unpaid, err := s.invoices.CountUnpaidByCustomer(ctx, customer.ID)
		if err != nil {
			result.Errors++
			s.logger.Error("unpaid count failed during restoration sweep",
				ports.String("customer", customer.Username),
				ports.Err(err))
			continue
		}
		if unpaid > 0 {
			continue
		}

		outcome := s.orchestrator.Restore(ctx, customer, "Tagihan lunas")
		if outcome.Success {
			result.Restored++
		} else {
			result.Errors++
		}
	}

	observability.RecordSweep("restoration", time.Since(started), result.Errors == 0)
	s.logger.Info("restoration sweep completed",
		ports.Int("checked", result.Checked),
		ports.Int("restored", result.Restored),
		ports.Int("errors", result.Errors))

	return result, nil
}
