package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents failed fetches and non-success responses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStructure represents result pages whose element groups no longer line up
	ErrorTypeStructure ErrorType = "structure"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStorage represents output sink errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ErrStructureMismatch matches every ErrorTypeStructure error via errors.Is.
var ErrStructureMismatch = errors.New("page structure changed")

// ScrapeError represents an error raised while scraping or emitting listings
type ScrapeError struct {
	Type    ErrorType
	URL     string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	target := e.URL
	if target == "" {
		target = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, target, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Is reports structure errors as ErrStructureMismatch.
func (e *ScrapeError) Is(target error) bool {
	return target == ErrStructureMismatch && e.Type == ErrorTypeStructure
}

// IsPageLocal returns true if the error only invalidates the page or query
// it was raised for, so the run can continue with the next one.
func (e *ScrapeError) IsPageLocal() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeParsing, ErrorTypeStructure:
		return true
	default:
		return false
	}
}

// TypeOf returns the ErrorType of the first ScrapeError in err's chain, or
// an empty ErrorType when there is none.
func TypeOf(err error) ErrorType {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Type
	}
	return ""
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(url, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, url, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(url, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, url, message, err)
}

// NewStructure creates a new structure mismatch error
func NewStructure(url, message string) *ScrapeError {
	return New(ErrorTypeStructure, url, message, nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, duration time.Duration, err error) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, url, message, err)
}

// NewCache creates a new cache error
func NewCache(key, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, key, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(stream, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, stream, message, err)
}

// NewStorage creates a new storage error
func NewStorage(target, message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, target, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
