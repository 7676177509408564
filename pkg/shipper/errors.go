package shipper

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ShipperError so callers can tell a carrier refusal
// apart from a response we could not understand.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindValidation    ErrorKind = "validation"
	KindNetwork       ErrorKind = "network"
	KindCarrier       ErrorKind = "carrier"
	KindProtocol      ErrorKind = "protocol"
	KindPersistence   ErrorKind = "persistence"
	KindUnsupported   ErrorKind = "unsupported"
)

// Kind sentinels. errors.Is(err, ErrProtocol) reports whether err is a
// ShipperError of kind protocol.
var (
	ErrConfiguration = errors.New("carrier configuration error")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("invalid request")
	ErrNetwork       = errors.New("carrier network error")
	ErrCarrier       = errors.New("carrier rejected request")
	ErrProtocol      = errors.New("unexpected carrier response")
	ErrPersistence   = errors.New("persistence error")
	ErrUnsupported   = errors.New("operation not supported")
)

var kindSentinels = map[ErrorKind]error{
	KindConfiguration: ErrConfiguration,
	KindNotFound:      ErrNotFound,
	KindValidation:    ErrValidation,
	KindNetwork:       ErrNetwork,
	KindCarrier:       ErrCarrier,
	KindProtocol:      ErrProtocol,
	KindPersistence:   ErrPersistence,
	KindUnsupported:   ErrUnsupported,
}

// ShipperError represents an error from a shipping carrier.
type ShipperError struct {
	Carrier    string
	Kind       ErrorKind
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// Is matches another ShipperError by code, or a kind sentinel by kind.
func (e *ShipperError) Is(target error) bool {
	if t, ok := target.(*ShipperError); ok {
		return e.Code == t.Code
	}
	if sentinel, ok := kindSentinels[e.Kind]; ok && sentinel == target {
		return true
	}
	return false
}

// NewShipperError creates a new ShipperError of kind carrier.
func NewShipperError(carrier, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Kind:    KindCarrier,
		Code:    code,
		Message: message,
	}
}

// NewConfigurationError reports missing credentials or endpoints.
func NewConfigurationError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: KindConfiguration, Code: "CONFIGURATION", Message: message}
}

// NewNotFoundError reports an unknown carrier or record.
func NewNotFoundError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: KindNotFound, Code: "NOT_FOUND", Message: message}
}

// NewValidationError reports a request that cannot be turned into a carrier call.
func NewValidationError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: KindValidation, Code: "INVALID_REQUEST", Message: message}
}

// NewNetworkError wraps an HTTP transport or timeout failure.
func NewNetworkError(carrier string, cause error) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: KindNetwork, Code: "NETWORK", Message: "carrier call failed", Cause: cause, Retryable: true}
}

// NewCarrierError reports an explicit rejection by the carrier.
func NewCarrierError(carrier, code, message string) *ShipperError {
	if code == "" {
		code = "CARRIER_ERROR"
	}
	return &ShipperError{Carrier: carrier, Kind: KindCarrier, Code: code, Message: message}
}

// NewProtocolError reports a carrier response that did not match the expected schema.
func NewProtocolError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: KindProtocol, Code: "PROTOCOL", Message: message}
}

// NewPersistenceError wraps a document store failure.
func NewPersistenceError(message string, cause error) *ShipperError {
	return &ShipperError{Carrier: "store", Kind: KindPersistence, Code: "PERSISTENCE", Message: message, Cause: cause}
}

// NewUnsupportedError reports an operation a carrier does not offer.
func NewUnsupportedError(carrier, operation string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: KindUnsupported, Code: "UNSUPPORTED", Message: operation + " is not supported"}
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ShipperError) WithStatusCode(code int) *ShipperError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *ShipperError) WithRetryable(retryable bool) *ShipperError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for common shipping scenarios.
var (
	// ErrInvalidAddress indicates the address is invalid or incomplete.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrServiceUnavailable indicates the carrier service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates the carrier rate limit was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidPackage indicates package dimensions or weight are invalid.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")
)

// KindOf returns the kind of err. Plain errors wrapping one of the package
// sentinels get the matching kind; anything else is reported as empty.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Kind
	}
	switch {
	case errors.Is(err, ErrCarrierNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidPackage):
		return KindValidation
	}
	return ""
}

// Message returns the human-readable part of err, without carrier or code
// decoration, suitable for direct display.
func Message(err error) string {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) && shipperErr.Message != "" {
		return shipperErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsRetryable returns true if the error is retryable. This layer never
// retries; the flag is informational for callers.
func IsRetryable(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}
