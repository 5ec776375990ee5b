// Package errors provides standardized error handling for the payment pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Payment pipeline error taxonomy.
const (
	ErrCodeWidgetLoadFailure    ErrorCode = "WIDGET_LOAD_FAILURE"
	ErrCodeOrderCreationFailed  ErrorCode = "ORDER_CREATION_FAILED"
	ErrCodeUserCancelled        ErrorCode = "USER_CANCELLED"
	ErrCodeGatewayFailure       ErrorCode = "GATEWAY_FAILURE"
	ErrCodeVerificationFailed   ErrorCode = "VERIFICATION_FAILED"
	ErrCodePaymentInFlight      ErrorCode = "PAYMENT_IN_FLIGHT"
	ErrCodePaymentTimeout       ErrorCode = "PAYMENT_TIMEOUT"

	ErrCodeDraftValidationFailed ErrorCode = "DRAFT_VALIDATION_FAILED"
	ErrCodeDraftMissing          ErrorCode = "DRAFT_MISSING"
	ErrCodeUnpaidSession         ErrorCode = "UNPAID_SESSION"

	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"

	ErrCodeLedgerInsertFailed ErrorCode = "LEDGER_INSERT_FAILED"
	ErrCodeLedgerQueryFailed  ErrorCode = "LEDGER_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Benign reports whether the error is a user abort rather than a failure.
func (e *StandardError) Benign() bool {
	return e.Code == ErrCodeUserCancelled
}

// ==========================
// 2. Error Constructors
// ==========================

// NewWidgetLoadFailureError creates an error for a checkout script that
// could not be loaded. Retryable only via an explicit user re-attempt.
func NewWidgetLoadFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWidgetLoadFailure,
		Message:   "Payment gateway failed to load",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderCreationFailedError creates an error for a failed or malformed
// order-create call.
func NewOrderCreationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrderCreationFailed,
		Message:   "Could not create payment order",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserCancelledError records a checkout dismissal. Not a failure.
func NewUserCancelledError() *StandardError {
	return &StandardError{
		Code:      ErrCodeUserCancelled,
		Message:   "Payment cancelled by user",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentInFlightError rejects a pay attempt that arrived while an
// earlier one is still between initiation and a terminal state.
func NewPaymentInFlightError(state string) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentInFlight,
		Message:   "A payment attempt is already in progress",
		Details:   fmt.Sprintf("current state: %s", state),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayFailureError wraps the gateway's own failure reason.
func NewGatewayFailureError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayFailure,
		Message:   "Payment failed at the gateway",
		Details:   reason,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVerificationFailedError creates the highest-severity error: a success
// callback whose authenticity the verify endpoint rejected. Money may have
// moved without a verified record.
func NewVerificationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerificationFailed,
		Message:   "Payment verification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentTimeoutError records the safety timeout that resets local state
// while a remote order may still be pending.
func NewPaymentTimeoutError(waited time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentTimeout,
		Message:   "No checkout interaction before timeout",
		Details:   fmt.Sprintf("waited: %s", waited),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftValidationFailedError creates a non-retryable intake error.
func NewDraftValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftValidationFailed,
		Message:   "Registration data failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftMissingError reports an absent draft record for the session.
func NewDraftMissingError(context string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftMissing,
		Message:   "No pending registration found",
		Details:   fmt.Sprintf("context: %s", context),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnpaidSessionError reports a confirmation attempt without a verified
// transaction identifier in the store.
func NewUnpaidSessionError() *StandardError {
	return &StandardError{
		Code:      ErrCodeUnpaidSession,
		Message:   "No verified payment for this session",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreReadFailedError creates a retryable session store error.
func NewStoreReadFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Session store read error",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteFailedError creates a retryable session store error.
func NewStoreWriteFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Session store write error",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerInsertFailedError creates a retryable ledger error.
func NewLedgerInsertFailedError(ledger string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerInsertFailed,
		Message:   "Ledger insert error",
		Details:   fmt.Sprintf("ledger: %s, error: %s", ledger, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerQueryFailedError creates a retryable ledger error.
func NewLedgerQueryFailedError(ledger string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerQueryFailed,
		Message:   "Ledger query error",
		Details:   fmt.Sprintf("ledger: %s, error: %s", ledger, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a non-fatal notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Confirmation notification failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
