package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML/JSON/CSV parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeEncoding represents character-encoding errors
	ErrorTypeEncoding ErrorType = "encoding"
	// ErrorTypeIdentity represents product-identity resolution errors
	ErrorTypeIdentity ErrorType = "identity"
	// ErrorTypeDatabase represents persistence errors
	ErrorTypeDatabase ErrorType = "database"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeAuth represents trigger-authentication errors
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// IngestError represents an ingestion error tagged with the ASP it came from.
type IngestError struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *IngestError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeDatabase:
		return true
	default:
		return false
	}
}

// New creates a new IngestError
func New(errType ErrorType, provider, message string, err error) *IngestError {
	return &IngestError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *IngestError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *IngestError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewEncoding creates a new encoding error
func NewEncoding(provider, message string, err error) *IngestError {
	return New(ErrorTypeEncoding, provider, message, err)
}

// NewIdentity creates a new identity-resolution error
func NewIdentity(provider, message string, err error) *IngestError {
	return New(ErrorTypeIdentity, provider, message, err)
}

// NewDatabase creates a new persistence error
func NewDatabase(provider, message string, err error) *IngestError {
	return New(ErrorTypeDatabase, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, duration time.Duration) *IngestError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewAuth creates a new authentication error
func NewAuth(message string) *IngestError {
	return New(ErrorTypeAuth, "", message, nil)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *IngestError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *IngestError {
	return New(ErrorTypeConfiguration, "", message, err)
}
