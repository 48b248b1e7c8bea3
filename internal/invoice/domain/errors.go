package domain

import "errors"

var (
	ErrInvoiceNotFound         = errors.New("invoice_not_found")
	ErrInvalidTransition       = errors.New("invalid_status_transition")
	ErrNotCancellable          = errors.New("invoice_not_cancellable")
	ErrJustificationTooShort   = errors.New("cancel_justification_too_short")
	ErrNotDraft                = errors.New("invoice_not_draft")
	ErrNoPayloadToClone        = errors.New("invoice_has_no_payload_to_clone")
	ErrAlreadySubmitted        = errors.New("invoice_already_submitted")
	ErrEmptyPayload            = errors.New("invoice_payload_empty")
	ErrOrderAlreadyHasEmission = errors.New("order_already_has_active_emission")
)
