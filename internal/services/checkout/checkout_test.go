package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/internal/testutil/fixtures"
	"github.com/adiwena/netbilling/internal/testutil/mocks"
	"github.com/adiwena/netbilling/pkg/zaplog"
)

type checkoutMocks struct {
	gateway      *mocks.MockPaymentGateway
	invoices     *mocks.MockInvoiceRepository
	customers    *mocks.MockCustomerRepository
	transactions *mocks.MockGatewayTransactionRepository
}

func setupCheckout() (*Service, *checkoutMocks) {
	m := &checkoutMocks{
		gateway:      new(mocks.MockPaymentGateway),
		invoices:     new(mocks.MockInvoiceRepository),
		customers:    new(mocks.MockCustomerRepository),
		transactions: new(mocks.MockGatewayTransactionRepository),
	}
	s := NewService(m.gateway, m.invoices, m.customers, m.transactions, zaplog.New(zap.NewNop()))
	return s, m
}

func TestInitiateOnlinePayment_PersistsCheckoutAndPendingTransaction(t *testing.T) {
	s, m := setupCheckout()

	customer := fixtures.Customer()
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())
	checkout := &ports.GatewayCheckout{
		OrderID:     "PAY-" + inv.Number,
		Token:       "snap-token-abc",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token-abc",
	}

	m.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	m.customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	m.gateway.On("CreateTransaction", mock.Anything, inv, customer).Return(checkout, nil)
	m.invoices.On("SetGatewayCheckout", mock.Anything, inv.ID, "midtrans", checkout.Token, checkout.RedirectURL).Return(nil)
	m.transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.GatewayTransaction) bool {
		return txn.InvoiceID == inv.ID &&
			txn.Gateway == "midtrans" &&
			txn.OrderID == checkout.OrderID &&
			txn.Status == models.GatewayPending &&
			txn.Amount.Equal(inv.Amount)
	})).Return(nil)

	result, err := s.InitiateOnlinePayment(context.Background(), inv.ID)

	require.NoError(t, err)
	assert.Equal(t, checkout, result)
	m.invoices.AssertExpectations(t)
	m.transactions.AssertExpectations(t)
}

func TestInitiateOnlinePayment_PaidInvoiceRejected(t *testing.T) {
	s, m := setupCheckout()

	customer := fixtures.Customer()
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())
	inv.Status = models.InvoicePaid

	m.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)

	result, err := s.InitiateOnlinePayment(context.Background(), inv.ID)

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "already paid")
	m.gateway.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiateOnlinePayment_GatewayFailureSurfaced(t *testing.T) {
	s, m := setupCheckout()

	customer := fixtures.Customer()
	inv := fixtures.UnpaidInvoice(customer.ID, *customer.PackageID, time.Now())

	m.invoices.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	m.customers.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	m.gateway.On("CreateTransaction", mock.Anything, inv, customer).Return(nil, assert.AnError)

	result, err := s.InitiateOnlinePayment(context.Background(), inv.ID)

	assert.Nil(t, result)
	assert.Error(t, err)
	m.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
