// Package service orchestrates the emission lifecycle: building payloads,
// queueing submissions, talking to the authority gateway, and keeping the
// invoice state machine honest.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiscal/internal/clock"
	"github.com/smallbiznis/fiscal/internal/config"
	"github.com/smallbiznis/fiscal/internal/document"
	"github.com/smallbiznis/fiscal/internal/emission/queue"
	"github.com/smallbiznis/fiscal/internal/gateway"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	"github.com/smallbiznis/fiscal/internal/observability/metrics"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const minJustificationLen = 15

// EmitRequest identifies what to emit.
type EmitRequest struct {
	OrderID           snowflake.ID `json:"order_id"`
	OperationNatureID snowflake.ID `json:"operation_nature_id"`
	// Series overrides the nature's default document series.
	Series string `json:"series,omitempty"`
}

// Service drives the emission lifecycle.
type Service interface {
	// Preview builds the payload without persisting anything.
	Preview(ctx context.Context, req EmitRequest) (*document.Document, error)
	// SaveDraft builds and stores the payload in DRAFT, not queued.
	SaveDraft(ctx context.Context, req EmitRequest) (*invoicedomain.Invoice, error)
	// Emit creates the invoice in PENDING and queues it for submission.
	Emit(ctx context.Context, req EmitRequest) (*invoicedomain.Invoice, error)
	// EmitWithDocument queues an operator-edited payload after
	// re-normalizing its computed portions.
	EmitWithDocument(ctx context.Context, req EmitRequest, doc *document.Document) (*invoicedomain.Invoice, error)
	// EmitDraft promotes a DRAFT invoice to PENDING and queues it.
	EmitDraft(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error)

	// Submit performs one submission attempt. The worker calls it and
	// decides on retry from the returned error's classification.
	Submit(ctx context.Context, invoiceID snowflake.ID, attempt int) error

	// Cancel requests cancellation at the authority. Only AUTHORIZED
	// invoices qualify and the justification must carry at least 15
	// characters.
	Cancel(ctx context.Context, id snowflake.ID, justification string) (*invoicedomain.Invoice, error)
	// Clone copies the last submitted payload into a fresh DRAFT invoice.
	Clone(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error)

	Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error)
	List(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error)
	Events(ctx context.Context, id snowflake.ID) ([]invoicedomain.Event, error)
	// LastPayload returns the most recently submitted payload, or the
	// stored one when nothing was submitted yet.
	LastPayload(ctx context.Context, id snowflake.ID) (datatypes.JSONMap, error)

	// SyncNow queries the gateway for one invoice and applies the answer.
	SyncNow(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error)
	// ApplyGatewayResult folds a gateway answer into the state machine.
	// Safe to call repeatedly with the same answer.
	ApplyGatewayResult(ctx context.Context, inv *invoicedomain.Invoice, res *gateway.QueryResult, source string) error

	// Download proxies an authorized document's XML or PDF.
	Download(ctx context.Context, id snowflake.ID, kind gateway.ArtifactKind) (*gateway.Artifact, error)
}

type service struct {
	invoices  invoicedomain.Repository
	events    invoicedomain.EventRepository
	sequences invoicedomain.SequenceRepository

	orders    orderdomain.Repository
	companies partydomain.CompanyRepository
	parties   partydomain.CounterpartyRepository
	natures   naturedomain.Repository
	resolver  taxdomain.Resolver

	gateway gateway.Client
	queue   queue.Queue
	clock   clock.Clock
	cfg     config.Config
	policy  *config.PolicyHolder
	node    *snowflake.Node
	log     *zap.Logger
	metrics *metrics.EmissionMetrics
}

// Params collects the service dependencies.
type Params struct {
	fx.In

	Invoices  invoicedomain.Repository
	Events    invoicedomain.EventRepository
	Sequences invoicedomain.SequenceRepository
	Orders    orderdomain.Repository
	Companies partydomain.CompanyRepository
	Parties   partydomain.CounterpartyRepository
	Natures   naturedomain.Repository
	Resolver  taxdomain.Resolver
	Gateway   gateway.Client
	Queue     queue.Queue
	Clock     clock.Clock
	Config    config.Config
	Policy    *config.PolicyHolder `optional:"true"`
	Node      *snowflake.Node
	Logger    *zap.Logger
	Metrics   *metrics.EmissionMetrics `optional:"true"`
}

// New builds the emission service.
func New(p Params) Service {
	return &service{
		invoices:  p.Invoices,
		events:    p.Events,
		sequences: p.Sequences,
		orders:    p.Orders,
		companies: p.Companies,
		parties:   p.Parties,
		natures:   p.Natures,
		resolver:  p.Resolver,
		gateway:   p.Gateway,
		queue:     p.Queue,
		clock:     p.Clock,
		cfg:       p.Config,
		policy:    p.Policy,
		node:      p.Node,
		log:       p.Logger.Named("emission"),
		metrics:   p.Metrics,
	}
}

// emissionInput is the loaded graph one build needs.
type emissionInput struct {
	order        *orderdomain.Order
	company      *partydomain.Company
	counterparty *partydomain.Counterparty
	nature       *naturedomain.OperationNature
	rules        taxdomain.RuleSet
}

func (s *service) loadInput(ctx context.Context, req EmitRequest) (*emissionInput, error) {
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %d: %w", req.OrderID, err)
	}
	company, err := s.companies.FindByID(ctx, order.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("loading company %d: %w", order.CompanyID, err)
	}
	counterparty, err := s.parties.FindByID(ctx, order.CounterpartyID)
	if err != nil {
		return nil, fmt.Errorf("loading counterparty %d: %w", order.CounterpartyID, err)
	}
	nature, err := s.natures.FindByID(ctx, req.OperationNatureID)
	if err != nil {
		return nil, fmt.Errorf("loading operation nature %d: %w", req.OperationNatureID, err)
	}
	rules, err := s.resolver.ResolveAll(ctx, nature.ID, counterparty.State)
	if err != nil {
		return nil, fmt.Errorf("resolving tax rules: %w", err)
	}
	return &emissionInput{
		order:        order,
		company:      company,
		counterparty: counterparty,
		nature:       nature,
		rules:        rules,
	}, nil
}

func (s *service) build(in *emissionInput) (*document.Document, error) {
	bi := document.BuildInput{
		Order:        in.order,
		Company:      in.company,
		Counterparty: in.counterparty,
		Nature:       in.nature,
		Rules:        in.rules,
		Now:          s.clock.Now(),
	}
	if s.policy != nil {
		d := s.policy.Load().Disclosure
		bi.Disclosure = &document.DisclosurePercents{
			Total:   decimal.NewFromFloat(d.TotalPercent),
			Federal: decimal.NewFromFloat(d.FederalPercent),
			State:   decimal.NewFromFloat(d.StatePercent),
		}
	}
	return document.Build(bi)
}

func (s *service) Preview(ctx context.Context, req EmitRequest) (*document.Document, error) {
	in, err := s.loadInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.build(in)
}

func (s *service) SaveDraft(ctx context.Context, req EmitRequest) (*invoicedomain.Invoice, error) {
	in, err := s.loadInput(ctx, req)
	if err != nil {
		return nil, err
	}
	doc, err := s.build(in)
	if err != nil {
		return nil, err
	}
	return s.createInvoice(ctx, req, in, doc, invoicedomain.StatusDraft)
}

func (s *service) Emit(ctx context.Context, req EmitRequest) (*invoicedomain.Invoice, error) {
	in, err := s.loadInput(ctx, req)
	if err != nil {
		return nil, err
	}
	doc, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if errs := document.Validate(doc); len(errs) > 0 {
		return nil, errs
	}
	if err := s.ensureNoActiveEmission(ctx, req.OrderID); err != nil {
		return nil, err
	}
	inv, err := s.createInvoice(ctx, req, in, doc, invoicedomain.StatusPending)
	if err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, inv.ID, 1, time.Time{}); err != nil {
		return nil, err
	}
	return inv, nil
}

// ensureNoActiveEmission rejects a second live emission for the same order.
// Terminal documents free the order again; an authorized one must be
// cancelled first.
func (s *service) ensureNoActiveEmission(ctx context.Context, orderID snowflake.ID) error {
	existing, err := s.invoices.List(ctx, invoicedomain.ListFilter{OrderID: orderID})
	if err != nil {
		return err
	}
	for i := range existing {
		switch existing[i].Status {
		case invoicedomain.StatusPending, invoicedomain.StatusProcessing, invoicedomain.StatusAuthorized:
			return invoicedomain.ErrOrderAlreadyHasEmission
		}
	}
	return nil
}

func (s *service) EmitWithDocument(ctx context.Context, req EmitRequest, doc *document.Document) (*invoicedomain.Invoice, error) {
	if doc == nil {
		return nil, invoicedomain.ErrEmptyPayload
	}
	in, err := s.loadInput(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := document.Normalize(doc, s.normalizeOptions(in)); err != nil {
		return nil, err
	}
	if errs := document.Validate(doc); len(errs) > 0 {
		return nil, errs
	}
	if err := s.ensureNoActiveEmission(ctx, req.OrderID); err != nil {
		return nil, err
	}
	inv, err := s.createInvoice(ctx, req, in, doc, invoicedomain.StatusPending)
	if err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, inv.ID, 1, time.Time{}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) normalizeOptions(in *emissionInput) document.NormalizeOptions {
	opts := document.NormalizeOptions{
		Regime:        in.company.RegimeCode,
		SpecialRegime: in.company.SpecialRegime,
	}
	if rule := in.rules.Get(taxdomain.RuleKindICMS); rule != nil && rule.PresumptiveRate.Valid {
		rate := rule.PresumptiveRate.Decimal
		opts.PresumptiveRate = &rate
	}
	return opts
}

func (s *service) EmitDraft(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != invoicedomain.StatusDraft {
		return nil, invoicedomain.ErrNotDraft
	}
	if len(inv.Payload) == 0 {
		return nil, invoicedomain.ErrEmptyPayload
	}
	if err := s.ensureNoActiveEmission(ctx, inv.OrderID); err != nil {
		return nil, err
	}
	inv.Status = invoicedomain.StatusPending
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, inv.ID, invoicedomain.EventStatusChanged, "queued for emission", nil)
	if err := s.enqueue(ctx, inv.ID, 1, time.Time{}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) createInvoice(ctx context.Context, req EmitRequest, in *emissionInput, doc *document.Document, status invoicedomain.Status) (*invoicedomain.Invoice, error) {
	series := strings.TrimSpace(req.Series)
	if series == "" {
		series = in.nature.Series
	}
	if series == "" {
		series = "1"
	}
	number, err := s.sequences.Next(ctx, in.company.ID, series)
	if err != nil {
		return nil, fmt.Errorf("allocating document number: %w", err)
	}
	doc.Series = series
	doc.Number = number

	payload, err := payloadMap(doc)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	inv := &invoicedomain.Invoice{
		ID:                s.node.Generate(),
		CompanyID:         in.company.ID,
		OrderID:           in.order.ID,
		OperationNatureID: in.nature.ID,
		Series:            series,
		Number:            number,
		Environment:       s.cfg.Gateway.Environment,
		Status:            status,
		TotalValue:        doc.Total,
		Payload:           payload,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	inv.CorrelationRef = fmt.Sprintf("ORDER-%d-%d", in.order.ID, now.UnixMilli())

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, inv.ID, invoicedomain.EventCreated, string(status), nil)
	s.appendEvent(ctx, inv.ID, invoicedomain.EventPayloadBuilt, "", payload)
	return inv, nil
}

func (s *service) enqueue(ctx context.Context, id snowflake.ID, attempt int, notBefore time.Time) error {
	return s.queue.Enqueue(ctx, queue.Task{InvoiceID: id, Attempt: attempt, NotBefore: notBefore})
}

// Submit performs one submission attempt against the gateway.
func (s *service) Submit(ctx context.Context, invoiceID snowflake.ID, attempt int) error {
	inv, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	switch inv.Status {
	case invoicedomain.StatusPending, invoicedomain.StatusProcessing:
	default:
		// Stale task: the invoice moved on (cancelled, errored, or a
		// webhook already resolved it). Nothing to do.
		s.log.Info("skipping stale emission task",
			zap.Int64("invoice_id", int64(inv.ID)),
			zap.String("status", string(inv.Status)))
		return nil
	}
	if len(inv.Payload) == 0 {
		return s.failPermanently(ctx, inv, invoicedomain.ErrEmptyPayload.Error())
	}

	company, err := s.companies.FindByID(ctx, inv.CompanyID)
	if err != nil {
		return fmt.Errorf("loading company %d: %w", inv.CompanyID, err)
	}
	cred, err := gateway.ResolveCredential(s.cfg.Gateway, company)
	if err != nil {
		return s.failPermanently(ctx, inv, err.Error())
	}

	inv.Attempts = attempt
	if inv.Status != invoicedomain.StatusProcessing {
		// The sweep tracks PROCESSING rows, so the status flips before the
		// gateway call; a retrying invoice stays visible to reconciliation.
		inv.Status = invoicedomain.StatusProcessing
		if err := s.invoices.Update(ctx, inv); err != nil {
			return err
		}
		s.appendEvent(ctx, inv.ID, invoicedomain.EventStatusChanged, string(invoicedomain.StatusProcessing), nil)
	}
	s.appendEvent(ctx, inv.ID, invoicedomain.EventPayloadSubmitted, fmt.Sprintf("attempt %d", attempt), inv.Payload)

	res, err := s.gateway.Submit(ctx, inv.CorrelationRef, map[string]any(inv.Payload), cred)
	if err != nil {
		if gateway.IsPermanent(err) {
			s.observeAttempt(metrics.OutcomeFailed)
			if ferr := s.failPermanently(ctx, inv, err.Error()); ferr != nil {
				return ferr
			}
			return err
		}
		if attempt >= s.cfg.Worker.MaxAttempts {
			s.observeAttempt(metrics.OutcomeFailed)
			if ferr := s.failPermanently(ctx, inv, fmt.Sprintf("retries exhausted after %d attempts: %s", attempt, err)); ferr != nil {
				return ferr
			}
			return err
		}
		s.observeAttempt(metrics.OutcomeRetried)
		inv.LastError = err.Error()
		if uerr := s.invoices.Update(ctx, inv); uerr != nil {
			return uerr
		}
		s.appendEvent(ctx, inv.ID, invoicedomain.EventGatewayError, err.Error(), nil)
		return err
	}

	s.observeAttempt(metrics.OutcomeSubmitted)
	now := s.clock.Now()
	inv.AuthorityStatus = res.Status
	inv.AuthorityMessage = res.Message
	inv.LastError = ""
	inv.SubmittedAt = &now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return err
	}
	s.log.Info("emission submitted",
		zap.Int64("invoice_id", int64(inv.ID)),
		zap.String("ref", inv.CorrelationRef),
		zap.String("gateway_status", res.Status))
	return nil
}

func (s *service) failPermanently(ctx context.Context, inv *invoicedomain.Invoice, reason string) error {
	inv.Status = invoicedomain.StatusError
	inv.LastError = reason
	if err := s.invoices.Update(ctx, inv); err != nil {
		return err
	}
	s.appendEvent(ctx, inv.ID, invoicedomain.EventGatewayError, reason, nil)
	s.appendEvent(ctx, inv.ID, invoicedomain.EventStatusChanged, string(invoicedomain.StatusError), nil)
	s.log.Warn("emission failed permanently",
		zap.Int64("invoice_id", int64(inv.ID)),
		zap.String("reason", reason))
	return nil
}

func (s *service) Cancel(ctx context.Context, id snowflake.ID, justification string) (*invoicedomain.Invoice, error) {
	trimmed := strings.TrimSpace(justification)
	if len([]rune(trimmed)) < minJustificationLen {
		return nil, invoicedomain.ErrJustificationTooShort
	}
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != invoicedomain.StatusAuthorized {
		return nil, invoicedomain.ErrNotCancellable
	}

	company, err := s.companies.FindByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, err
	}
	cred, err := gateway.ResolveCredential(s.cfg.Gateway, company)
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, inv.ID, invoicedomain.EventCancelRequested, trimmed, nil)
	res, err := s.gateway.Cancel(ctx, inv.CorrelationRef, trimmed, cred)
	if err != nil {
		s.appendEvent(ctx, inv.ID, invoicedomain.EventGatewayError, err.Error(), nil)
		return nil, err
	}

	inv.CancelJustification = trimmed
	if err := s.ApplyGatewayResult(ctx, inv, res, "cancel"); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) Clone(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	src, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := s.LastPayload(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, invoicedomain.ErrNoPayloadToClone
	}

	now := s.clock.Now()
	srcID := src.ID
	clone := &invoicedomain.Invoice{
		ID:                s.node.Generate(),
		CompanyID:         src.CompanyID,
		OrderID:           src.OrderID,
		OperationNatureID: src.OperationNatureID,
		Series:            src.Series,
		Environment:       s.cfg.Gateway.Environment,
		Status:            invoicedomain.StatusDraft,
		TotalValue:        src.TotalValue,
		Payload:           payload,
		ClonedFromID:      &srcID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	clone.CorrelationRef = fmt.Sprintf("ORDER-%d-%d", src.OrderID, now.UnixMilli())

	if err := s.invoices.Create(ctx, clone); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, clone.ID, invoicedomain.EventCloned, fmt.Sprintf("cloned from %d", srcID), payload)
	s.appendEvent(ctx, srcID, invoicedomain.EventCloned, fmt.Sprintf("cloned to %d", clone.ID), nil)
	return clone, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	return s.invoices.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	return s.invoices.List(ctx, filter)
}

func (s *service) Events(ctx context.Context, id snowflake.ID) ([]invoicedomain.Event, error) {
	return s.events.ListByInvoice(ctx, id)
}

func (s *service) LastPayload(ctx context.Context, id snowflake.ID) (datatypes.JSONMap, error) {
	ev, err := s.events.LastByType(ctx, id, invoicedomain.EventPayloadSubmitted)
	if err != nil {
		return nil, err
	}
	if ev != nil && len(ev.Payload) > 0 {
		return ev.Payload, nil
	}
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return inv.Payload, nil
}

func (s *service) SyncNow(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.FindByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, err
	}
	cred, err := gateway.ResolveCredential(s.cfg.Gateway, company)
	if err != nil {
		return nil, err
	}
	res, err := s.gateway.Query(ctx, inv.CorrelationRef, cred)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyGatewayResult(ctx, inv, res, "sync"); err != nil {
		return nil, err
	}
	return inv, nil
}

// ApplyGatewayResult maps the gateway answer onto the invoice. Repeated
// deliveries of the same answer are no-ops; answers that would move a
// settled invoice backwards are ignored. A pending cancellation is the
// exception: it re-enters PROCESSING so the sweep follows it to the end.
func (s *service) ApplyGatewayResult(ctx context.Context, inv *invoicedomain.Invoice, res *gateway.QueryResult, source string) error {
	next, known := invoicedomain.FromAuthorityStatus(res.Status)
	if !known {
		s.log.Warn("unknown gateway status",
			zap.Int64("invoice_id", int64(inv.ID)),
			zap.String("gateway_status", res.Status),
			zap.String("source", source))
		return nil
	}

	changed := inv.Status != next
	if changed && !inv.Status.CanTransitionOn(next, res.Status) {
		s.log.Warn("ignoring out-of-order gateway status",
			zap.Int64("invoice_id", int64(inv.ID)),
			zap.String("from", string(inv.Status)),
			zap.String("to", string(next)),
			zap.String("source", source))
		return nil
	}

	now := s.clock.Now()
	inv.Status = next
	inv.AuthorityStatus = res.Status
	inv.AuthorityMessage = res.AuthorityMessage
	if res.AccessKey != "" {
		inv.AccessKey = res.AccessKey
	}
	if res.Number > 0 {
		inv.Number = res.Number
	}
	if res.XMLPath != "" {
		inv.XMLURL = s.gateway.ArtifactURL(res.XMLPath)
	}
	if res.PDFPath != "" {
		inv.PDFURL = s.gateway.ArtifactURL(res.PDFPath)
	}
	switch next {
	case invoicedomain.StatusAuthorized:
		if inv.AuthorizedAt == nil {
			inv.AuthorizedAt = &now
		}
	case invoicedomain.StatusCancelled:
		if inv.CancelledAt == nil {
			inv.CancelledAt = &now
		}
	case invoicedomain.StatusRejected, invoicedomain.StatusError:
		inv.LastError = res.AuthorityMessage
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return err
	}
	if changed {
		s.appendEvent(ctx, inv.ID, invoicedomain.EventStatusChanged,
			fmt.Sprintf("%s (%s, via %s)", next, res.Status, source), nil)
		s.log.Info("emission status changed",
			zap.Int64("invoice_id", int64(inv.ID)),
			zap.String("status", string(next)),
			zap.String("source", source))
	}
	return nil
}

func (s *service) Download(ctx context.Context, id snowflake.ID, kind gateway.ArtifactKind) (*gateway.Artifact, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.FindByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, err
	}
	cred, err := gateway.ResolveCredential(s.cfg.Gateway, company)
	if err != nil {
		return nil, err
	}
	return s.gateway.Download(ctx, inv.CorrelationRef, kind, cred)
}

func (s *service) appendEvent(ctx context.Context, invoiceID snowflake.ID, eventType, message string, payload datatypes.JSONMap) {
	if payload == nil {
		payload = datatypes.JSONMap{}
	}
	ev := &invoicedomain.Event{
		InvoiceID: invoiceID,
		Type:      eventType,
		Message:   message,
		Payload:   payload,
		CreatedAt: s.clock.Now(),
	}
	if err := s.events.Append(ctx, ev); err != nil {
		// The timeline is best effort; the invoice row stays the source
		// of truth.
		s.log.Warn("appending invoice event",
			zap.Int64("invoice_id", int64(invoiceID)),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

func (s *service) observeAttempt(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveAttempt(outcome)
	}
}

func payloadMap(doc *document.Document) (datatypes.JSONMap, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	var out datatypes.JSONMap
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return out, nil
}
