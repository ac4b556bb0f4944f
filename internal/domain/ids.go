package domain

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Entity identifiers are minted by the gateway, never by the database.
// Orders, payments and refunds use short prefixed random hex; webhook logs
// use a prefixed UUID so the same identifier flows through job payloads and
// the manual retry path.

func NewOrderID() string   { return "order_" + randomHex(12) }
func NewPaymentID() string { return "pay_" + randomHex(8) }
func NewRefundID() string  { return "rfnd_" + randomHex(8) }

func NewWebhookLogID() string { return "whk_" + uuid.NewString() }

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	return hex.EncodeToString(b)
}
