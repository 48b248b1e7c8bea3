package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure for the retry policy.
type Kind string

const (
	// KindPermanent failures (schema rejection, bad credentials) must not be
	// retried: the same request will fail the same way.
	KindPermanent Kind = "permanent"
	// KindTemporary failures (timeout, network, rate limit, server error)
	// are retried with backoff.
	KindTemporary Kind = "temporary"
)

// Error is a classified gateway failure. Callers dispatch on Kind, never on
// the message text.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("gateway (%s): %s", e.Kind, e.Message)
}

func NewPermanentError(status int, message string) *Error {
	return &Error{Kind: KindPermanent, StatusCode: status, Message: message}
}

func NewTemporaryError(status int, message string) *Error {
	return &Error{Kind: KindTemporary, StatusCode: status, Message: message}
}

// IsPermanent reports whether err is a gateway failure that retrying cannot fix.
func IsPermanent(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == KindPermanent
}

// IsTemporary reports whether err is a retryable gateway failure.
func IsTemporary(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == KindTemporary
}

// ErrMissingCredential means no token exists for the company nor globally.
// It is permanent: retrying without configuration changes cannot succeed.
var ErrMissingCredential = errors.New("missing_gateway_credential")
