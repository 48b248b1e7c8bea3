package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCFOP          = errors.New("invalid_cfop")
	ErrMissingDestination   = errors.New("missing_destination_state")
	ErrMissingRegime        = errors.New("missing_tax_regime")
	ErrMissingInterstate    = errors.New("missing_interstate_rate")
	ErrMissingIntrastate    = errors.New("missing_intrastate_rate")
	ErrNegativePresumptive  = errors.New("negative_presumptive_rate")
	ErrEmptyOrder           = errors.New("order_has_no_items")
)

// FieldError reports one offending payload field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every violation found in one pass so operators
// can fix the whole payload at once.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any violation was recorded.
func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }
