// Package notify delivers customer notifications through an external
// WhatsApp HTTP gateway. Delivery is best effort: the adapter reports a
// boolean and logs failures, it never propagates errors into business flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain/ports"
	"github.com/adiwena/netbilling/pkg/resilience"
)

// maxSendAttempts bounds retries for one message; messages are advisory
// and a customer must never receive a stale notification hours later
const maxSendAttempts = 3

// Config contains WhatsApp gateway settings
type Config struct {
	// BaseURL of the gateway send endpoint, e.g. "http://wa-gateway:3000"
	BaseURL string
	APIKey  string
	// Enabled turns delivery off entirely; Notify reports true so callers
	// do not log every skipped message as a failure
	Enabled bool
}

// WhatsAppNotifier implements ports.Notifier over a WhatsApp HTTP gateway
type WhatsAppNotifier struct {
	config     *Config
	httpClient ports.HTTPClient
	logger     *zap.Logger
	templates  map[string]string
	backoff    resilience.BackoffStrategy
}

// NewWhatsAppNotifier creates a WhatsApp notifier with the built-in
// Indonesian message templates
func NewWhatsAppNotifier(cfg *Config, httpClient ports.HTTPClient, logger *zap.Logger) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		backoff:    resilience.NotificationBackoff(),
		templates: map[string]string{
			ports.TemplateServiceSuspended: "Halo {name}, layanan internet Anda dinonaktifkan sementara. Alasan: {reason}. Mohon segera lakukan pembayaran.",
			ports.TemplateServiceRestored:  "Halo {name}, layanan internet Anda sudah aktif kembali. Terima kasih.",
			ports.TemplatePaymentReceived:  "Halo {name}, pembayaran tagihan {invoice} sebesar Rp{amount} sudah kami terima. Terima kasih.",
			ports.TemplateInvoiceCreated:   "Halo {name}, tagihan {invoice} sebesar Rp{amount} sudah terbit, jatuh tempo {due_date}.",
		},
	}
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Notify renders the template and posts it to the gateway
func (n *WhatsAppNotifier) Notify(ctx context.Context, phone, templateKey string, data map[string]string) bool {
	if !n.config.Enabled {
		return true
	}
	if phone == "" {
		return false
	}

	template, ok := n.templates[templateKey]
	if !ok {
		n.logger.Warn("unknown notification template", zap.String("template", templateKey))
		return false
	}
	message := render(template, data)

	payload, err := json.Marshal(sendRequest{Phone: phone, Message: message})
	if err != nil {
		return false
	}

	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(n.backoff.NextDelay(attempt - 1)):
			}
		}
		if n.send(ctx, templateKey, payload, attempt) {
			return true
		}
	}
	return false
}

func (n *WhatsAppNotifier) send(ctx context.Context, templateKey string, payload []byte, attempt int) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.BaseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if n.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.APIKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("notification send failed",
			zap.String("template", templateKey),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Warn("notification gateway rejected message",
			zap.String("template", templateKey),
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode),
		)
		return false
	}
	return true
}

// render substitutes {key} placeholders with values from data
func render(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
