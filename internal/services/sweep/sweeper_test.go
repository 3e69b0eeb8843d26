package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/services/suspension"
	"github.com/adiwena/netbilling/internal/testutil/fixtures"
	"github.com/adiwena/netbilling/internal/testutil/mocks"
	"github.com/adiwena/netbilling/pkg/zaplog"
)

// MockOrchestrator implements the Orchestrator interface
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Suspend(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet {
	args := m.Called(ctx, customer, reason)
	return args.Get(0).(suspension.OutcomeSet)
}

func (m *MockOrchestrator) Restore(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet {
	args := m.Called(ctx, customer, reason)
	return args.Get(0).(suspension.OutcomeSet)
}

// blockingOrchestrator holds Suspend until released, to exercise the
// re-entrancy guard
type blockingOrchestrator struct {
	started   chan struct{}
	release   chan struct{}
	startOnce sync.Once
}

func (b *blockingOrchestrator) Suspend(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet {
	b.startOnce.Do(func() { close(b.started) })
	<-b.release
	return suspension.OutcomeSet{Success: true}
}

func (b *blockingOrchestrator) Restore(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet {
	return suspension.OutcomeSet{Success: true}
}

func setupSweeper(orchestrator Orchestrator) (*Sweeper, *mocks.MockInvoiceRepository, *mocks.MockCustomerRepository) {
	invoices := new(mocks.MockInvoiceRepository)
	customers := new(mocks.MockCustomerRepository)
	s := NewSweeper(invoices, customers, orchestrator, &mocks.MockSettingsStore{}, zaplog.New(zap.NewNop()))
	return s, invoices, customers
}

func TestRunOverdueSweep_SuspendsPastGrace(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	s, invoices, customers := setupSweeper(orchestrator)

	customer := fixtures.Customer()
	overdue := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now().AddDate(0, 0, -10))

	invoices.On("ListOverdue", mock.Anything, mock.Anything).Return([]*models.Invoice{overdue}, nil)
	customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	orchestrator.On("Suspend", mock.Anything, customer, "Telat bayar 10 hari").
		Return(suspension.OutcomeSet{Success: true})

	result, err := s.RunOverdueSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Suspended)
	assert.Equal(t, 0, result.Errors)
	orchestrator.AssertExpectations(t)
}

func TestRunOverdueSweep_WithinGraceSkipped(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	s, invoices, customers := setupSweeper(orchestrator)

	customer := fixtures.Customer()
	recent := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now().AddDate(0, 0, -3))

	invoices.On("ListOverdue", mock.Anything, mock.Anything).Return([]*models.Invoice{recent}, nil)

	result, err := s.RunOverdueSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Suspended)
	orchestrator.AssertNotCalled(t, "Suspend", mock.Anything, mock.Anything, mock.Anything)
	customers.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRunOverdueSweep_OptedOutCustomerSkipped(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	s, invoices, customers := setupSweeper(orchestrator)

	customer := fixtures.Customer()
	customer.AutoSuspension = false
	overdue := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now().AddDate(0, 0, -10))

	invoices.On("ListOverdue", mock.Anything, mock.Anything).Return([]*models.Invoice{overdue}, nil)
	customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)

	result, err := s.RunOverdueSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Suspended)
	orchestrator.AssertNotCalled(t, "Suspend", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOverdueSweep_AlreadySuspendedSkipped(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	s, invoices, customers := setupSweeper(orchestrator)

	customer := fixtures.Customer()
	customer.Status = models.CustomerSuspended
	overdue := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now().AddDate(0, 0, -10))

	invoices.On("ListOverdue", mock.Anything, mock.Anything).Return([]*models.Invoice{overdue}, nil)
	customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)

	result, err := s.RunOverdueSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Suspended)
	orchestrator.AssertNotCalled(t, "Suspend", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOverdueSweep_DisabledGlobally(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	invoices := new(mocks.MockInvoiceRepository)
	customers := new(mocks.MockCustomerRepository)
	settings := &mocks.MockSettingsStore{Bools: map[string]bool{"suspension.auto_enabled": false}}
	s := NewSweeper(invoices, customers, orchestrator, settings, zaplog.New(zap.NewNop()))

	result, err := s.RunOverdueSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)
	invoices.AssertNotCalled(t, "ListOverdue", mock.Anything, mock.Anything)
}

func TestRunOverdueSweep_ConcurrentTriggerDropped(t *testing.T) {
	blocking := &blockingOrchestrator{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, invoices, customers := setupSweeper(blocking)

	customer := fixtures.Customer()
	overdue := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now().AddDate(0, 0, -10))

	invoices.On("ListOverdue", mock.Anything, mock.Anything).Return([]*models.Invoice{overdue}, nil)
	customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.RunOverdueSweep(context.Background())
		assert.NoError(t, err)
	}()

	<-blocking.started
	_, err := s.RunOverdueSweep(context.Background())
	assert.ErrorIs(t, err, domain.ErrSweepAlreadyRunning)

	close(blocking.release)
	wg.Wait()

	// Guard released, a later run proceeds
	_, err = s.RunOverdueSweep(context.Background())
	assert.NoError(t, err)
}

func TestRunRestorationSweep_RestoresSettledCustomers(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	s, invoices, customers := setupSweeper(orchestrator)

	settled := fixtures.Customer()
	settled.Status = models.CustomerSuspended
	stillOwing := fixtures.Customer()
	stillOwing.Username = "siti02"
	stillOwing.Status = models.CustomerSuspended

	customers.On("ListByStatus", mock.Anything, models.CustomerSuspended).
		Return([]*models.Customer{settled, stillOwing}, nil)
	invoices.On("CountUnpaidByCustomer", mock.Anything, settled.ID).Return(0, nil)
	invoices.On("CountUnpaidByCustomer", mock.Anything, stillOwing.ID).Return(2, nil)
	orchestrator.On("Restore", mock.Anything, settled, "Tagihan lunas").
		Return(suspension.OutcomeSet{Success: true})

	result, err := s.RunRestorationSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Restored)
	orchestrator.AssertNotCalled(t, "Restore", mock.Anything, stillOwing, mock.Anything)
}

func TestRunRestorationSweep_FailedRestoreCounted(t *testing.T) {
	orchestrator := new(MockOrchestrator)
	s, invoices, customers := setupSweeper(orchestrator)

	customer := fixtures.Customer()
	customer.Status = models.CustomerSuspended

	customers.On("ListByStatus", mock.Anything, models.CustomerSuspended).
		Return([]*models.Customer{customer}, nil)
	invoices.On("CountUnpaidByCustomer", mock.Anything, customer.ID).Return(0, nil)
	orchestrator.On("Restore", mock.Anything, customer, mock.Anything).
		Return(suspension.OutcomeSet{Success: false})

	result, err := s.RunRestorationSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Restored)
	assert.Equal(t, 1, result.Errors)
}
