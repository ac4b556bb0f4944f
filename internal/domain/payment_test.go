package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	vpa := "buyer@upi"
	p, err := NewPayment("order_1", "merchant_1", 10000, "INR", MethodUPI, &vpa)
	require.NoError(t, err)
	return p
}

func TestNewPayment_Validation(t *testing.T) {
	_, err := NewPayment("", "merchant_1", 10000, "INR", MethodUPI, nil)
	assert.Error(t, err)

	_, err = NewPayment("order_1", "merchant_1", 0, "INR", MethodUPI, nil)
	assert.Error(t, err)

	_, err = NewPayment("order_1", "merchant_1", 10000, "INR", PaymentMethod("wire"), nil)
	assert.Error(t, err)
}

func TestPayment_SettlesExactlyOnce(t *testing.T) {
	p := newTestPayment(t)
	require.NoError(t, p.Succeed())
	assert.Equal(t, PaymentSuccess, p.Status)
	assert.True(t, p.IsTerminal())

	err := p.Fail("PAYMENT_FAILED", "late failure")
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrCodeInvalidState))
	assert.Equal(t, PaymentSuccess, p.Status)
}

func TestPayment_FailRecordsDetail(t *testing.T) {
	p := newTestPayment(t)
	require.NoError(t, p.Fail("PAYMENT_FAILED", "Card payment failed"))

	assert.Equal(t, PaymentFailed, p.Status)
	require.NotNil(t, p.ErrorCode)
	assert.Equal(t, "PAYMENT_FAILED", *p.ErrorCode)
	assert.False(t, p.Refundable())
}

func TestPayment_CaptureRequiresSuccess(t *testing.T) {
	p := newTestPayment(t)
	assert.Error(t, p.MarkCaptured())

	require.NoError(t, p.Succeed())
	require.NoError(t, p.MarkCaptured())
	assert.True(t, p.Captured)
}
