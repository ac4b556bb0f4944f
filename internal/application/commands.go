package application

// CreateOrderCommand creates an order to pay against.
type CreateOrderCommand struct {
	Amount   int64   `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Receipt  *string `json:"receipt"`
}

// CardDetails are validated and then discarded. Card numbers are never
// persisted or logged.
type CardDetails struct {
	Number      string `json:"number" validate:"required,numeric,min=12,max=19"`
	ExpiryMonth int    `json:"expiry_month" validate:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" validate:"required,min=2000"`
	CVV         string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

type CreatePaymentCommand struct {
	OrderID string       `json:"order_id" validate:"required"`
	Method  string       `json:"method" validate:"required,oneof=upi card"`
	VPA     *string      `json:"vpa"`
	Card    *CardDetails `json:"card"`
}

// CreateRefundCommand requests a refund against a payment. A zero amount
// means the payment's full amount.
type CreateRefundCommand struct {
	Amount int64   `json:"amount" validate:"omitempty,gt=0"`
	Reason *string `json:"reason"`
}
