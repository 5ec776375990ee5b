package errors

import (
	"errors"
	"time"
)

// Severity classifies how an error is surfaced to the user.
type Severity string

const (
	SeverityInfo     Severity = "info"     // benign aborts (user cancelled)
	SeverityError    Severity = "error"    // recoverable by re-initiating the flow
	SeverityCritical Severity = "critical" // verification failures: money may have moved
)

// Notice is the user-visible surface of a pipeline error. Every failure in
// the funnel is surfaced synchronously; none are silently swallowed.
type Notice struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Handler normalizes pipeline errors and turns them into notices.
type Handler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle normalizes err, logs it at the right level, and returns the notice
// the caller presents to the user. There is no fatal class: every failure is
// recoverable by an explicit user-initiated re-attempt from Idle.
func (h *Handler) Handle(err error) Notice {
	stdErr := Normalize(err)
	notice := Notice{
		Code:     stdErr.Code,
		Message:  stdErr.Message,
		Severity: severityOf(stdErr.Code),
	}

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
	}
	switch notice.Severity {
	case SeverityInfo:
		h.logger.Info(stdErr.Message, fields)
	case SeverityCritical:
		h.logger.Error(stdErr.Message, fields)
	default:
		h.logger.Warn(stdErr.Message, fields)
	}

	return notice
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func severityOf(code ErrorCode) Severity {
	switch code {
	case ErrCodeUserCancelled:
		return SeverityInfo
	case ErrCodeVerificationFailed:
		return SeverityCritical
	default:
		return SeverityError
	}
}
