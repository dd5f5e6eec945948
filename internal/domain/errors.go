package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a transport-level failure talking to the exchange.
// The request may or may not have reached the venue.
type NetworkError struct {
	Op        string // Operation that failed (e.g., "submit_order", "cancel_order")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// APIError is a business-level rejection reported by the exchange with a
// non-zero result code (insufficient balance, invalid qty, ...).
// Resending the same request produces the same rejection, so it is never retriable.
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: exchange rejected request: code=%d msg=%s", e.Op, e.Code, e.Msg)
}

func (e *APIError) IsRetriable() bool {
	return false
}

// OrderSubmissionFailedError is returned once every submission attempt failed
// at the transport level.
type OrderSubmissionFailedError struct {
	Attempts int
	Err      error // Last transport error
}

func (e *OrderSubmissionFailedError) Error() string {
	return fmt.Sprintf("order submission failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *OrderSubmissionFailedError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidPrice is returned for negative, zero or non-finite reference prices.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidDirection is returned for anything other than LONG or SHORT.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidQuantity is returned for non-positive order quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrFillPriceUnavailable is returned when a filled order never shows up in
	// the historic order list with an average price.
	ErrFillPriceUnavailable = errors.New("fill price unavailable")

	// ErrRealTradingNotConfirmed guards REAL mode behind an explicit opt-in.
	ErrRealTradingNotConfirmed = errors.New("real trading requires CONFIRM_REAL_MONEY=true")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
