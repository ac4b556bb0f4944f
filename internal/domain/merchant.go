package domain

import "time"

// Merchant is the tenant owning orders, payments and refunds. Webhook
// configuration is optional; without a URL no notifications are sent.
type Merchant struct {
	ID            string
	Name          string
	Email         string
	APIKey        string
	WebhookURL    *string
	WebhookSecret *string
	CreatedAt     time.Time
}

// HasWebhook reports whether the merchant can receive notifications.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != nil && *m.WebhookURL != ""
}
