package domain

import "errors"

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidDocument = errors.New("invalid_document")
	ErrMissingRegime   = errors.New("missing_tax_regime")
)
