// Package mocks provides shared mock implementations of the domain ports,
// so individual test files do not each redeclare them.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
)

// MockCustomerRepository mocks ports.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListActiveWithPackage(ctx context.Context) ([]*models.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListByStatus(ctx context.Context, status models.CustomerStatus) ([]*models.Customer, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CustomerStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockPackageRepository mocks ports.PackageRepository
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

// MockInvoiceRepository mocks ports.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsInRange(ctx context.Context, customerID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, customerID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, method string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, method, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) SetGatewayCheckout(ctx context.Context, id uuid.UUID, gateway, token, redirectURL string) error {
	args := m.Called(ctx, id, gateway, token, redirectURL)
	return args.Error(0)
}

// MockPaymentRepository mocks ports.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockGatewayTransactionRepository mocks ports.GatewayTransactionRepository
type MockGatewayTransactionRepository struct {
	mock.Mock
}

func (m *MockGatewayTransactionRepository) Create(ctx context.Context, txn *models.GatewayTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockGatewayTransactionRepository) GetByOrderID(ctx context.Context, orderID, gateway string) (*models.GatewayTransaction, error) {
	args := m.Called(ctx, orderID, gateway)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayTransaction), args.Error(1)
}

func (m *MockGatewayTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.GatewayPaymentStatus, paymentType, fraudStatus string) error {
	args := m.Called(ctx, id, status, paymentType, fraudStatus)
	return args.Error(0)
}

// MockRouterControlPlane mocks ports.RouterControlPlane
type MockRouterControlPlane struct {
	mock.Mock
}

func (m *MockRouterControlPlane) FindSecretByName(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockRouterControlPlane) SetSecretProfile(ctx context.Context, idOrName, profile, comment string) error {
	args := m.Called(ctx, idOrName, profile, comment)
	return args.Error(0)
}

func (m *MockRouterControlPlane) ListActiveSessions(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRouterControlPlane) DropSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRouterControlPlane) FindProfile(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockRouterControlPlane) CreateProfile(ctx context.Context, spec ports.ProfileSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

// MockDeviceControlPlane mocks ports.DeviceControlPlane
type MockDeviceControlPlane struct {
	mock.Mock
}

func (m *MockDeviceControlPlane) FindDeviceByPhone(ctx context.Context, phone string) (*ports.Device, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Device), args.Error(1)
}

func (m *MockDeviceControlPlane) FindDeviceByPPPoE(ctx context.Context, username string) (*ports.Device, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Device), args.Error(1)
}

func (m *MockDeviceControlPlane) SetParameters(ctx context.Context, deviceID string, params []ports.ParameterValue) error {
	args := m.Called(ctx, deviceID, params)
	return args.Error(0)
}

// MockPaymentGateway mocks ports.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
	GatewayName string
}

func (m *MockPaymentGateway) Name() string {
	if m.GatewayName != "" {
		return m.GatewayName
	}
	return "midtrans"
}

func (m *MockPaymentGateway) CreateTransaction(ctx context.Context, invoice *models.Invoice, customer *models.Customer) (*ports.GatewayCheckout, error) {
	args := m.Called(ctx, invoice, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GatewayCheckout), args.Error(1)
}

func (m *MockPaymentGateway) ParseNotification(payload []byte) (*ports.GatewayNotification, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GatewayNotification), args.Error(1)
}

func (m *MockPaymentGateway) OrderID(invoiceNumber string) string {
	return "PAY-" + invoiceNumber
}

func (m *MockPaymentGateway) InvoiceNumberFromOrderID(orderID string) string {
	if len(orderID) > 4 && orderID[:4] == "PAY-" {
		return orderID[4:]
	}
	return orderID
}

// MockNotifier mocks ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, phone, templateKey string, data map[string]string) bool {
	args := m.Called(ctx, phone, templateKey, data)
	return args.Bool(0)
}

// MockSettingsStore mocks ports.SettingsStore. Unconfigured keys fall back to
// the caller default, like the real store.
type MockSettingsStore struct {
	Strings map[string]string
	Ints    map[string]int
	Bools   map[string]bool
	Floats  map[string]float64
}

func (m *MockSettingsStore) GetString(key, def string) string {
	if v, ok := m.Strings[key]; ok {
		return v
	}
	return def
}

func (m *MockSettingsStore) GetInt(key string, def int) int {
	if v, ok := m.Ints[key]; ok {
		return v
	}
	return def
}

func (m *MockSettingsStore) GetBool(key string, def bool) bool {
	if v, ok := m.Bools[key]; ok {
		return v
	}
	return def
}

func (m *MockSettingsStore) GetFloat(key string, def float64) float64 {
	if v, ok := m.Floats[key]; ok {
		return v
	}
	return def
}
