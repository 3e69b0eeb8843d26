package ports

import "context"

// Notification template keys rendered by the notification gateway
const (
	TemplateServiceSuspended = "service_suspended"
	TemplateServiceRestored  = "service_restored"
	TemplatePaymentReceived  = "payment_received"
	TemplateInvoiceCreated   = "invoice_created"
)

// Notifier delivers templated text to a phone number. It never returns an
// error to the caller; a failed delivery reports false and is otherwise
// invisible to business flow.
type Notifier interface {
	Notify(ctx context.Context, phone, templateKey string, data map[string]string) bool
}
