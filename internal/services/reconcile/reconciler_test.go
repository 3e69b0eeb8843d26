package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/internal/services/suspension"
	"github.com/adiwena/netbilling/internal/testutil/fixtures"
	"github.com/adiwena/netbilling/internal/testutil/mocks"
	"github.com/adiwena/netbilling/pkg/zaplog"
)

// MockRestorer implements the Restorer interface
type MockRestorer struct {
	mock.Mock
}

func (m *MockRestorer) Restore(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet {
	args := m.Called(ctx, customer, reason)
	return args.Get(0).(suspension.OutcomeSet)
}

type reconcilerMocks struct {
	gateway      *mocks.MockPaymentGateway
	transactions *mocks.MockGatewayTransactionRepository
	invoices     *mocks.MockInvoiceRepository
	payments     *mocks.MockPaymentRepository
	customers    *mocks.MockCustomerRepository
	restorer     *MockRestorer
	notifier     *mocks.MockNotifier
}

func setupReconciler() (*Reconciler, *reconcilerMocks) {
	m := &reconcilerMocks{
		gateway:      new(mocks.MockPaymentGateway),
		transactions: new(mocks.MockGatewayTransactionRepository),
		invoices:     new(mocks.MockInvoiceRepository),
		payments:     new(mocks.MockPaymentRepository),
		customers:    new(mocks.MockCustomerRepository),
		restorer:     new(MockRestorer),
		notifier:     new(mocks.MockNotifier),
	}
	r := NewReconciler(
		[]ports.PaymentGateway{m.gateway},
		m.transactions, m.invoices, m.payments, m.customers,
		m.restorer, m.notifier, zaplog.New(zap.NewNop()),
	)
	return r, m
}

func successNotification(orderID string, amount decimal.Decimal) *ports.GatewayNotification {
	return &ports.GatewayNotification{
		OrderID:     orderID,
		Status:      models.GatewaySuccess,
		PaymentType: "bank_transfer",
		GrossAmount: amount,
	}
}

func TestHandleWebhook_SuccessSettlesInvoice(t *testing.T) {
	r, m := setupReconciler()

	customer := fixtures.Customer()
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())
	orderID := "PAY-" + inv.Number
	txn := &models.GatewayTransaction{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		Gateway:   "midtrans",
		OrderID:   orderID,
		Amount:    inv.Amount,
		Status:    models.GatewayPending,
	}
	payload := []byte(`{"order_id":"` + orderID + `"}`)

	m.gateway.On("ParseNotification", payload).Return(successNotification(orderID, inv.Amount), nil)
	m.transactions.On("GetByOrderID", mock.Anything, orderID, "midtrans").Return(txn, nil)
	m.transactions.On("UpdateStatus", mock.Anything, txn.ID, models.GatewaySuccess, "bank_transfer", "").Return(nil)
	m.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	m.invoices.On("MarkPaid", mock.Anything, inv.ID, "bank_transfer", mock.Anything).Return(true, nil)
	m.payments.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.InvoiceID == inv.ID && p.ReferenceNumber == orderID && p.Amount.Equal(inv.Amount)
	})).Return(nil)
	m.customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	m.notifier.On("Notify", mock.Anything, customer.Phone, ports.TemplatePaymentReceived, mock.Anything).Return(true)

	result, err := r.HandleWebhook(context.Background(), "midtrans", payload)

	require.NoError(t, err)
	assert.Equal(t, inv.ID, result.InvoiceID)
	assert.Equal(t, models.GatewaySuccess, result.Status)
	m.payments.AssertExpectations(t)
	m.restorer.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_DuplicateSuccessIsNoOp(t *testing.T) {
	r, m := setupReconciler()

	customer := fixtures.Customer()
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())
	orderID := "PAY-" + inv.Number
	txn := &models.GatewayTransaction{ID: uuid.New(), InvoiceID: inv.ID, Gateway: "midtrans", OrderID: orderID}
	payload := []byte(`{}`)

	m.gateway.On("ParseNotification", payload).Return(successNotification(orderID, inv.Amount), nil)
	m.transactions.On("GetByOrderID", mock.Anything, orderID, "midtrans").Return(txn, nil)
	m.transactions.On("UpdateStatus", mock.Anything, txn.ID, models.GatewaySuccess, "bank_transfer", "").Return(nil)
	m.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	// Replay: the flip already happened on the first delivery
	m.invoices.On("MarkPaid", mock.Anything, inv.ID, "bank_transfer", mock.Anything).Return(false, nil)

	result, err := r.HandleWebhook(context.Background(), "midtrans", payload)

	require.NoError(t, err)
	assert.Equal(t, models.GatewaySuccess, result.Status)
	m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_PendingUpdatesTransactionOnly(t *testing.T) {
	r, m := setupReconciler()

	inv := fixtures.UnpaidInvoice(uuid.New(), uuid.New(), time.Now())
	orderID := "PAY-" + inv.Number
	txn := &models.GatewayTransaction{ID: uuid.New(), InvoiceID: inv.ID, Gateway: "midtrans", OrderID: orderID}
	payload := []byte(`{}`)

	m.gateway.On("ParseNotification", payload).Return(&ports.GatewayNotification{
		OrderID:     orderID,
		Status:      models.GatewayPending,
		PaymentType: "bank_transfer",
	}, nil)
	m.transactions.On("GetByOrderID", mock.Anything, orderID, "midtrans").Return(txn, nil)
	m.transactions.On("UpdateStatus", mock.Anything, txn.ID, models.GatewayPending, "bank_transfer", "").Return(nil)

	result, err := r.HandleWebhook(context.Background(), "midtrans", payload)

	require.NoError(t, err)
	assert.Equal(t, models.GatewayPending, result.Status)
	m.invoices.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_FallbackMatchesInvoiceByNumber(t *testing.T) {
	r, m := setupReconciler()

	customer := fixtures.Customer()
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())
	orderID := "PAY-" + inv.Number
	payload := []byte(`{}`)

	m.gateway.On("ParseNotification", payload).Return(successNotification(orderID, inv.Amount), nil)
	m.transactions.On("GetByOrderID", mock.Anything, orderID, "midtrans").
		Return(nil, domain.WrapError(domain.ErrorCodeTxnNotMatched, "missing", domain.ErrNotFound))
	m.invoices.On("GetByNumber", mock.Anything, inv.Number).Return(inv, nil)
	m.invoices.On("MarkPaid", mock.Anything, inv.ID, "bank_transfer", mock.Anything).Return(true, nil)
	m.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	m.notifier.On("Notify", mock.Anything, customer.Phone, ports.TemplatePaymentReceived, mock.Anything).Return(true)

	result, err := r.HandleWebhook(context.Background(), "midtrans", payload)

	require.NoError(t, err)
	assert.Equal(t, inv.ID, result.InvoiceID)
}

func TestHandleWebhook_BothLookupsMissFailsCall(t *testing.T) {
	r, m := setupReconciler()

	orderID := "PAY-INV-202608-ZZZZZZZZ"
	payload := []byte(`{}`)

	m.gateway.On("ParseNotification", payload).Return(successNotification(orderID, decimal.Zero), nil)
	m.transactions.On("GetByOrderID", mock.Anything, orderID, "midtrans").
		Return(nil, domain.WrapError(domain.ErrorCodeTxnNotMatched, "missing", domain.ErrNotFound))
	m.invoices.On("GetByNumber", mock.Anything, "INV-202608-ZZZZZZZZ").
		Return(nil, domain.ErrInvoiceNotFound)

	result, err := r.HandleWebhook(context.Background(), "midtrans", payload)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrTransactionNotMatched)
}

func TestHandleWebhook_PaymentRestoresSuspendedCustomer(t *testing.T) {
	r, m := setupReconciler()

	customer := fixtures.Customer()
	customer.Status = models.CustomerSuspended
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())
	orderID := "PAY-" + inv.Number
	txn := &models.GatewayTransaction{ID: uuid.New(), InvoiceID: inv.ID, Gateway: "midtrans", OrderID: orderID}
	payload := []byte(`{}`)

	m.gateway.On("ParseNotification", payload).Return(successNotification(orderID, inv.Amount), nil)
	m.transactions.On("GetByOrderID", mock.Anything, orderID, "midtrans").Return(txn, nil)
	m.transactions.On("UpdateStatus", mock.Anything, txn.ID, models.GatewaySuccess, "bank_transfer", "").Return(nil)
	m.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	m.invoices.On("MarkPaid", mock.Anything, inv.ID, "bank_transfer", mock.Anything).Return(true, nil)
	m.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	m.notifier.On("Notify", mock.Anything, customer.Phone, ports.TemplatePaymentReceived, mock.Anything).Return(true)
	m.invoices.On("CountUnpaidByCustomer", mock.Anything, customer.ID).Return(0, nil)
	m.restorer.On("Restore", mock.Anything, customer, "Pembayaran diterima").
		Return(suspension.OutcomeSet{Success: true})

	_, err := r.HandleWebhook(context.Background(), "midtrans", payload)

	require.NoError(t, err)
	m.restorer.AssertExpectations(t)
}

func TestHandleWebhook_UnknownGatewayRejected(t *testing.T) {
	r, _ := setupReconciler()

	_, err := r.HandleWebhook(context.Background(), "paypal", []byte(`{}`))

	assert.Error(t, err)
}
