package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is the application-level error surfaced to API callers as
// {"error":{"code","description"}}. Delivery failures never become
// ServiceErrors; they stay inside the webhook delivery engine.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Wire error codes. State conflicts share BAD_REQUEST_ERROR with
// validation failures; callers distinguish them by description.
const (
	ErrCodeBadRequest = "BAD_REQUEST_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// NewValidationError reports missing or malformed request fields.
func NewValidationError(description string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeBadRequest,
		Message:    description,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError reports an absent order/payment/refund/webhook record.
func NewNotFoundError(what string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    what + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// NewStateConflictError reports an operation invalid for the entity's
// current state, such as refunding a non-successful payment or overdrawing
// the available refund balance.
func NewStateConflictError(description string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeBadRequest,
		Message:    description,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInternalError wraps an infrastructure failure as an opaque 500.
func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
