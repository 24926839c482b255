package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// CategoryOf returns the category of err, or CategoryUnknown.
func CategoryOf(err error) Category {
	if fe, ok := As(err); ok {
		return fe.Category()
	}
	return classifyCategory(err)
}

// SeverityOf returns the severity of err, or SeverityMedium.
func SeverityOf(err error) Severity {
	if fe, ok := As(err); ok {
		return fe.Severity()
	}
	return SeverityMedium
}

// IsValidation reports whether err is a data validation failure.
func IsValidation(err error) bool {
	return err != nil && CategoryOf(err) == CategoryValidation
}

// IsCritical reports whether err carries critical severity.
func IsCritical(err error) bool {
	return err != nil && SeverityOf(err) == SeverityCritical
}

// IsCancellation reports whether err stems from context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Classify returns the context describing err. For an *Error in the chain the
// shared context is returned; other errors get a fresh context whose
// category is inferred from the error's shape.
func Classify(err error) *ErrorContext {
	if fe, ok := As(err); ok {
		return fe.ctx
	}
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	return &ErrorContext{
		ErrorID:      uuid.NewString(),
		Timestamp:    time.Now(),
		ErrorType:    typeName(err),
		ErrorMessage: msg,
		Category:     classifyCategory(err),
		Severity:     SeverityMedium,
		Component:    "unknown",
		MaxRetries:   DefaultMaxRetries,
	}
}

func classifyCategory(err error) Category {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeoutError
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return CategoryTimeoutError
		}
		return CategoryNetworkError
	}
	return CategoryUnknown
}

func typeName(err error) string {
	if err == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", err)
}
