package stocktake

import (
	"errors"
	"fmt"
)

// ValidationError reports a draft that cannot be reconciled. It is recovered
// locally and presented to the operator; nothing has been written when it is
// returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ErrLedgerAppend marks a failure appending to the quantity ledger after the
// product itself was already saved. The product write is not rolled back; the
// caller can retry the quantity add without re-entering the product data.
var ErrLedgerAppend = errors.New("ledger append failed after product save")
