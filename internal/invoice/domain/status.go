package domain

// Status is the emission lifecycle state.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusAuthorized Status = "AUTHORIZED"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
	StatusError      Status = "ERROR"
)

// IsTerminal reports whether the state admits no further transitions.
// AUTHORIZED is not terminal: it can still move to CANCELLED.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusError:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusDraft:      {StatusPending},
	StatusPending:    {StatusProcessing, StatusError},
	StatusProcessing: {StatusAuthorized, StatusRejected, StatusCancelled, StatusError},
	StatusAuthorized: {StatusCancelled},
}

// CanTransition reports whether moving from s to next is allowed.
// Transitions to the same state are always allowed so that repeated
// webhook deliveries and reconciliation sweeps stay idempotent.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// cancellationPendingStatus is the gateway's "cancellation still being
// processed" answer.
const cancellationPendingStatus = "processando_cancelamento"

// CanTransitionOn reports whether moving from s to next is allowed given
// the raw gateway status. It extends CanTransition with the cancel path:
// a pending cancellation pulls an AUTHORIZED invoice back to PROCESSING
// so reconciliation follows the cancellation to its end. A late plain
// "processando" still never drags an authorized invoice backwards.
func (s Status) CanTransitionOn(next Status, raw string) bool {
	if s.CanTransition(next) {
		return true
	}
	return s == StatusAuthorized && next == StatusProcessing && raw == cancellationPendingStatus
}

// authorityStatuses maps gateway status strings to lifecycle states.
// Unknown strings leave the invoice untouched.
var authorityStatuses = map[string]Status{
	"autorizado":               StatusAuthorized,
	"cancelado":                StatusCancelled,
	"rejeitado":                StatusRejected,
	"denegado":                 StatusRejected,
	"erro":                     StatusRejected,
	"erro_validacao":           StatusError,
	"erro_autorizacao":         StatusError,
	"processando":              StatusProcessing,
	"processando_autorizacao":  StatusProcessing,
	"processando_cancelamento": StatusProcessing,
	"aguardando_processamento": StatusProcessing,
}

// FromAuthorityStatus maps a gateway status string to a lifecycle state.
func FromAuthorityStatus(raw string) (Status, bool) {
	s, ok := authorityStatuses[raw]
	return s, ok
}
