package domain

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Error kinds. Every validation failure wraps exactly one of them, so callers
// can branch with errors.Is on a single or combined error.
var (
	ErrStructural          = errors.New("structural validation failed")
	ErrInvariantViolation  = errors.New("balance invariant violated")
	ErrLifecycle           = errors.New("lifecycle rule violated")
	ErrNotFound            = errors.New("not found")
	ErrInvalidBalanceState = errors.New("invalid balance state")
)

// ValidationError is a single failed rule.
type ValidationError struct {
	Kind error
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Structuralf builds a structural validation error.
func Structuralf(format string, args ...any) error {
	return &ValidationError{Kind: ErrStructural, Msg: fmt.Sprintf(format, args...)}
}

// Invariantf builds a balance invariant violation.
func Invariantf(format string, args ...any) error {
	return &ValidationError{Kind: ErrInvariantViolation, Msg: fmt.Sprintf(format, args...)}
}

// Lifecyclef builds a lifecycle (period/transaction state) error.
func Lifecyclef(format string, args ...any) error {
	return &ValidationError{Kind: ErrLifecycle, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a lookup failure.
func NotFoundf(format string, args ...any) error {
	return &ValidationError{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Problems accumulates validation failures so one call reports all of them.
type Problems struct {
	err error
}

// Add records err if it is not nil.
func (p *Problems) Add(err error) {
	p.err = multierr.Append(p.err, err)
}

// Addf records a validation error of the given kind.
func (p *Problems) Addf(kind error, format string, args ...any) {
	p.Add(&ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Err returns the combined error or nil.
func (p *Problems) Err() error {
	return p.err
}

// Errors splits a combined error into its parts.
func Errors(err error) []error {
	return multierr.Errors(err)
}
