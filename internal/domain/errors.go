package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidState    = "INVALID_STATE"
	ErrCodeInvalidAmount   = "INVALID_AMOUNT"
	ErrCodeNotRefundable   = "NOT_REFUNDABLE"
	ErrCodeRefundOverdrawn = "REFUND_OVERDRAWN"
)

func NewInvalidStateError(current, expected string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("invalid state: entity is %s, expected %s", current, expected),
	}
}

func NewInvalidAmountError(amount int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %d", amount),
	}
}

func NewNotRefundableError(status PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotRefundable,
		Message: fmt.Sprintf("only successful payments can be refunded, payment is %s", status),
	}
}

func NewRefundOverdrawnError(requested, available int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundOverdrawn,
		Message: fmt.Sprintf("refund amount %d exceeds available amount %d", requested, available),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code.
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
