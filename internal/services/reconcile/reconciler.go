package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/models"
	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/internal/services/suspension"
	"github.com/adiwena/netbilling/pkg/observability"
)

// Restorer is the slice of the suspension orchestrator the reconciler uses
type Restorer interface {
	Restore(ctx context.Context, customer *models.Customer, reason string) suspension.OutcomeSet
}

// WebhookResult is returned to the webhook caller
type WebhookResult struct {
	InvoiceID uuid.UUID                   `json:"invoice_id"`
	Status    models.GatewayPaymentStatus `json:"status"`
}

// Reconciler matches inbound payment-gateway notifications to ledger state:
// it updates the gateway transaction, settles the invoice exactly once per
// successful payment, and triggers restoration when the paying customer was
// suspended.
type Reconciler struct {
	gateways     map[string]ports.PaymentGateway
	transactions ports.GatewayTransactionRepository
	invoices     ports.InvoiceRepository
	payments     ports.PaymentRepository
	customers    ports.CustomerRepository
	restorer     Restorer
	notifier     ports.Notifier
	logger       ports.Logger
}

// NewReconciler creates a payment reconciler over the given gateways
func NewReconciler(
	gateways []ports.PaymentGateway,
	transactions ports.GatewayTransactionRepository,
	invoices ports.InvoiceRepository,
	payments ports.PaymentRepository,
	customers ports.CustomerRepository,
	restorer Restorer,
	notifier ports.Notifier,
	logger ports.Logger,
) *Reconciler {
	byName := make(map[string]ports.PaymentGateway, len(gateways))
	for _, gw := range gateways {
		byName[gw.Name()] = gw
	}
	return &Reconciler{
		gateways:     byName,
		transactions: transactions,
		invoices:     invoices,
		payments:     payments,
		customers:    customers,
		restorer:     restorer,
		notifier:     notifier,
		logger:       logger,
	}
}

// HandleWebhook processes one gateway notification. Matching order: the
// persisted gateway transaction by (order id, gateway), then the invoice
// derived from the order id. When both miss, domain.ErrTransactionNotMatched
// is returned so the gateway can retry or alert.
func (r *Reconciler) HandleWebhook(ctx context.Context, gatewayName string, payload []byte) (*WebhookResult, error) {
	gateway, ok := r.gateways[gatewayName]
	if !ok {
		return nil, fmt.Errorf("unknown payment gateway %q", gatewayName)
	}

	notification, err := gateway.ParseNotification(payload)
	if err != nil {
		observability.RecordWebhook(gatewayName, "invalid")
		return nil, fmt.Errorf("parse notification: %w", err)
	}

	r.logger.Info("gateway notification received",
		ports.String("gateway", gatewayName),
		ports.String("order_id", notification.OrderID),
		ports.String("status", string(notification.Status)),
		ports.String("payment_type", notification.PaymentType))

	txn, err := r.transactions.GetByOrderID(ctx, notification.OrderID, gatewayName)
	switch {
	case err == nil:
		return r.settleTransaction(ctx, gateway, txn, notification)
	case domain.IsNotFoundError(err):
		// Transaction record was never persisted, or a replay carries a stale
		// identifier. Fall back to the invoice number embedded in the order id.
		return r.settleByInvoiceNumber(ctx, gateway, notification)
	default:
		return nil, fmt.Errorf("get gateway transaction: %w", err)
	}
}

func (r *Reconciler) settleTransaction(ctx context.Context, gateway ports.PaymentGateway, txn *models.GatewayTransaction, n *ports.GatewayNotification) (*WebhookResult, error) {
	if err := r.transactions.UpdateStatus(ctx, txn.ID, n.Status, n.PaymentType, n.FraudStatus); err != nil {
		return nil, fmt.Errorf("update gateway transaction: %w", err)
	}

	// A non-success status update is terminal for this call: no ledger mutation.
	if n.Status != models.GatewaySuccess {
		observability.RecordWebhook(gateway.Name(), string(n.Status))
		return &WebhookResult{InvoiceID: txn.InvoiceID, Status: n.Status}, nil
	}

	invoice, err := r.invoices.GetByID(ctx, txn.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", txn.InvoiceID, err)
	}
	if err := r.applyPayment(ctx, gateway, invoice, n); err != nil {
		return nil, err
	}
	observability.RecordWebhook(gateway.Name(), "success")
	return &WebhookResult{InvoiceID: invoice.ID, Status: models.GatewaySuccess}, nil
}

func (r *Reconciler) settleByInvoiceNumber(ctx context.Context, gateway ports.PaymentGateway, n *ports.GatewayNotification) (*WebhookResult, error) {
	number := gateway.InvoiceNumberFromOrderID(n.OrderID)
	invoice, err := r.invoices.GetByNumber(ctx, number)
	if err != nil {
		if domain.IsNotFoundError(err) {
			observability.RecordWebhook(gateway.Name(), "unmatched")
			r.logger.Error("webhook matched neither transaction nor invoice",
				ports.String("gateway", gateway.Name()),
				ports.String("order_id", n.OrderID),
				ports.String("derived_invoice", number))
			return nil, domain.ErrTransactionNotMatched
		}
		return nil, fmt.Errorf("get invoice by number %q: %w", number, err)
	}

	r.logger.Warn("gateway transaction missing, matched invoice by number",
		ports.String("order_id", n.OrderID),
		ports.String("invoice", invoice.Number))

	if n.Status != models.GatewaySuccess {
		observability.RecordWebhook(gateway.Name(), string(n.Status))
		return &WebhookResult{InvoiceID: invoice.ID, Status: n.Status}, nil
	}
	if err := r.applyPayment(ctx, gateway, invoice, n); err != nil {
		return nil, err
	}
	observability.RecordWebhook(gateway.Name(), "success")
	return &WebhookResult{InvoiceID: invoice.ID, Status: models.GatewaySuccess}, nil
}

// applyPayment settles a successful notification against an invoice. The
// unpaid-to-paid flip happens at most once; a replayed success notification
// finds the invoice already paid and appends nothing.
func (r *Reconciler) applyPayment(ctx context.Context, gateway ports.PaymentGateway, invoice *models.Invoice, n *ports.GatewayNotification) error {
	now := time.Now()

	flipped, err := r.invoices.MarkPaid(ctx, invoice.ID, n.PaymentType, now)
	if err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	if !flipped {
		r.logger.Warn("duplicate success notification for paid invoice ignored",
			ports.String("invoice", invoice.Number),
			ports.String("order_id", n.OrderID))
		return nil
	}

	amount := n.GrossAmount
	if amount.IsZero() {
		amount = invoice.Amount
	}
	if err := r.payments.Create(ctx, &models.Payment{
		ID:              uuid.New(),
		InvoiceID:       invoice.ID,
		Amount:          amount,
		Method:          n.PaymentType,
		ReferenceNumber: n.OrderID,
		PaidAt:          now,
	}); err != nil {
		return fmt.Errorf("append payment: %w", err)
	}

	customer, err := r.customers.GetByID(ctx, invoice.CustomerID)
	if err != nil {
		return fmt.Errorf("get customer %s: %w", invoice.CustomerID, err)
	}

	if customer.Phone != "" {
		if ok := r.notifier.Notify(ctx, customer.Phone, ports.TemplatePaymentReceived, map[string]string{
			"name":    customer.Name,
			"invoice": invoice.Number,
			"amount":  amount.StringFixed(0),
		}); !ok {
			r.logger.Warn("payment notification delivery failed",
				ports.String("customer", customer.Username))
		}
	}

	r.maybeRestore(ctx, customer)
	return nil
}

// maybeRestore restores the customer when this payment cleared their last
// unpaid invoice and they are currently suspended.
func (r *Reconciler) maybeRestore(ctx context.Context, customer *models.Customer) {
	if customer.Status != models.CustomerSuspended {
		return
	}
	unpaid, err := r.invoices.CountUnpaidByCustomer(ctx, customer.ID)
	if err != nil {
		r.logger.Error("unpaid count failed after payment",
			ports.String("customer", customer.Username),
			ports.Err(err))
		return
	}
	if unpaid > 0 {
		return
	}
	outcome := r.restorer.Restore(ctx, customer, "Pembayaran diterima")
	if !outcome.Success {
		r.logger.Error("automatic restore after payment failed",
			ports.String("customer", customer.Username))
	}
}
