// Package signature implements the HMAC primitive used to authenticate
// outbound webhook payloads.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex-encoded HMAC-SHA256 digest of payload under secret.
// The digest covers the exact byte sequence transmitted on the wire.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
func Verify(payload []byte, sig, secret string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}
