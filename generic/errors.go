/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All shared error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
 1. Input errors - Malformed dates, months, amounts (client errors)
 2. Lookup errors - Missing employees or payroll records
 3. Store errors - Idempotency violations on ledger writes

USAGE:
  Domain packages can wrap generic errors:

    if errors.Is(err, generic.ErrInvalidDate) {
        return &InvalidInputError{...}
    }

SEE ALSO:
  - payroll/errors.go: Deduction ledger and record lifecycle errors
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date cannot be parsed or is missing.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidMonth is returned when a month is not in YYYY-MM form.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidAmount is returned for unparsable or out-of-range money values
	// (for example a negative salary).
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRecordNotFound is returned when no payroll record exists for an
	// (employee, month) pair.
	ErrRecordNotFound = errors.New("payroll record not found")

	// ErrDuplicateIdempotencyKey is returned when a ledger write with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError names the offending field and value.
type InvalidInputError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// clientErrors is extended by domain packages through RegisterClientError.
var clientErrors = []error{
	ErrInvalidDate,
	ErrInvalidMonth,
	ErrInvalidPeriod,
	ErrInvalidAmount,
}

// RegisterClientError marks a domain sentinel as caused by client input.
// Call from package init only.
func RegisterClientError(err error) {
	clientErrors = append(clientErrors, err)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var notFoundErrors = []error{
	ErrEmployeeNotFound,
	ErrRecordNotFound,
}

// RegisterNotFoundError marks a domain sentinel as a missing resource.
// Call from package init only.
func RegisterNotFoundError(err error) {
	notFoundErrors = append(notFoundErrors, err)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
