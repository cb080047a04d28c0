package draft

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLocationRequired    = errors.New("location must be selected")
	ErrCounterpartRequired = errors.New("counterpart must be selected")
	ErrNoLines             = errors.New("at least one line item is required")
	ErrItemRequired        = errors.New("line item must name an item")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrNegativePrice       = errors.New("unit price must not be negative")
	ErrPriceReadOnly       = errors.New("unit price cannot be changed")
	ErrZeroPrice           = errors.New("unit price must be set")
	ErrPartPaymentRange    = errors.New("part payment must be less than the grand total")
	ErrLineIndex           = errors.New("no line item at index")
	ErrLocationLocked      = errors.New("remove sales lines before changing location")

	// ErrSubmitInProgress asks the caller to wait for the pending submission.
	ErrSubmitInProgress = errors.New("submission in progress, please wait")

	// ErrStaleAdmission is returned when the draft changed while an
	// admission check was in flight; the line was not added.
	ErrStaleAdmission = errors.New("draft changed during stock check")
)

// ValidationError describes one local rule a draft breaks.
type ValidationError struct {
	Field string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every rule a draft breaks.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Has reports whether field failed.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
