package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrCapacityExceeded     = errors.New("event is full")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrUnauthorized         = errors.New("invalid credentials")
	ErrForbidden            = errors.New("admin access required")

	ErrGateway       = errors.New("payment gateway error")
	ErrGatewayAuth   = errors.New("failed to get Pesapal access token")
	ErrGatewayIPN    = errors.New("failed to register IPN URL")
	ErrGatewayOrder  = errors.New("failed to submit order to Pesapal")
	ErrGatewayStatus = errors.New("failed to get transaction status")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Gateway operations
const (
	OpAuth        = "auth"
	OpRegisterIPN = "register_ipn"
	OpSubmitOrder = "submit_order"
	OpStatus      = "transaction_status"
)

// GatewayError is returned for any failed call to Pesapal
type GatewayError struct {
	Op         string
	StatusCode int    // HTTP status, 0 when the request never completed
	Code       string // error code from the response body
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.sentinel().Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway || target == e.sentinel()
}

func (e *GatewayError) sentinel() error {
	switch e.Op {
	case OpAuth:
		return ErrGatewayAuth
	case OpRegisterIPN:
		return ErrGatewayIPN
	case OpSubmitOrder:
		return ErrGatewayOrder
	case OpStatus:
		return ErrGatewayStatus
	default:
		return ErrGateway
	}
}
