package domain

import "errors"

var (
	ErrInvalidNature     = errors.New("invalid_operation_nature")
	ErrMissingICMSRule   = errors.New("missing_icms_rule")
	ErrInvalidKind       = errors.New("invalid_rule_kind")
	ErrNotFound          = errors.New("not_found")
	ErrMissingRateTable  = errors.New("missing_rate_table_entry")
	ErrInvalidRate       = errors.New("invalid_rate")
	ErrInvalidSituation  = errors.New("invalid_situation_code")
	ErrInvalidDestFilter = errors.New("invalid_destination_filter")
)
