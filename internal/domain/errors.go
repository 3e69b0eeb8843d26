package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Ledger lookups (LEDGER_*)
	ErrorCodeCustomerNotFound ErrorCode = "LEDGER_CUSTOMER_NOT_FOUND"
	ErrorCodePackageNotFound  ErrorCode = "LEDGER_PACKAGE_NOT_FOUND"
	ErrorCodeInvoiceNotFound  ErrorCode = "LEDGER_INVOICE_NOT_FOUND"

	// Control planes (ROUTER_* / DEVICE_*)
	ErrorCodeSecretNotFound  ErrorCode = "ROUTER_SECRET_NOT_FOUND"
	ErrorCodeProfileNotFound ErrorCode = "ROUTER_PROFILE_NOT_FOUND"
	ErrorCodeDeviceNotFound  ErrorCode = "DEVICE_NOT_FOUND"

	// Payment gateway (GATEWAY_*)
	ErrorCodeTxnNotMatched  ErrorCode = "GATEWAY_TXN_NOT_MATCHED"
	ErrorCodeGatewayError   ErrorCode = "GATEWAY_ERROR"
	ErrorCodeInvalidPayload ErrorCode = "GATEWAY_INVALID_PAYLOAD"

	// Batch jobs (SWEEP_*)
	ErrorCodeSweepRunning ErrorCode = "SWEEP_ALREADY_RUNNING"

	// Internal (INTERNAL_*)
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		IsDomainError(err, ErrorCodeCustomerNotFound) ||
		IsDomainError(err, ErrorCodePackageNotFound) ||
		IsDomainError(err, ErrorCodeInvoiceNotFound) ||
		IsDomainError(err, ErrorCodeSecretNotFound) ||
		IsDomainError(err, ErrorCodeProfileNotFound) ||
		IsDomainError(err, ErrorCodeDeviceNotFound)
}

var (
	// ErrNotFound is the generic lookup-miss sentinel repositories and
	// control-plane adapters return; callers treat it as a skip, not a failure
	ErrNotFound = errors.New("not found")

	ErrCustomerNotFound = NewDomainError(ErrorCodeCustomerNotFound, "customer not found")
	ErrPackageNotFound  = NewDomainError(ErrorCodePackageNotFound, "package not found")
	ErrInvoiceNotFound  = NewDomainError(ErrorCodeInvoiceNotFound, "invoice not found")

	// ErrTransactionNotMatched is returned to the webhook caller when both the
	// gateway-transaction lookup and the invoice-number fallback miss
	ErrTransactionNotMatched = NewDomainError(ErrorCodeTxnNotMatched, "webhook matched no gateway transaction or invoice")

	// ErrSweepAlreadyRunning is returned when an overdue sweep is triggered
	// while a previous run is still executing; the run is dropped, not queued
	ErrSweepAlreadyRunning = NewDomainError(ErrorCodeSweepRunning, "overdue sweep already running")
)
