package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/fiscal/internal/config"
	"github.com/smallbiznis/fiscal/internal/observability/metrics"
	"go.uber.org/zap"
)

// Base URLs per gateway environment.
var baseURLs = map[string]string{
	config.GatewayEnvHomologation: "https://homologacao.focusnfe.com.br",
	config.GatewayEnvProduction:   "https://api.focusnfe.com.br",
}

// ArtifactKind selects which emission artifact to download.
type ArtifactKind string

const (
	ArtifactXML ArtifactKind = "xml"
	ArtifactPDF ArtifactKind = "pdf"
)

// SubmitResult is the gateway's answer to an emission request.
type SubmitResult struct {
	Ref     string `json:"ref"`
	Status  string `json:"status"`
	Message string `json:"mensagem"`
}

// QueryResult is the gateway's view of one emission.
type QueryResult struct {
	Ref              string `json:"ref"`
	Status           string `json:"status"`
	AuthorityStatus  string `json:"status_sefaz"`
	AuthorityMessage string `json:"mensagem_sefaz"`
	AccessKey        string `json:"chave_nfe"`
	Number           int64  `json:"numero"`
	XMLPath          string `json:"caminho_xml_nota_fiscal"`
	PDFPath          string `json:"caminho_danfe"`
}

// Artifact is a downloaded XML or PDF document.
type Artifact struct {
	ContentType string
	Body        []byte
}

// Client talks to the tax-authority integration API.
type Client interface {
	Submit(ctx context.Context, ref string, doc any, cred Credential) (*SubmitResult, error)
	Query(ctx context.Context, ref string, cred Credential) (*QueryResult, error)
	Cancel(ctx context.Context, ref, justification string, cred Credential) (*QueryResult, error)
	Download(ctx context.Context, ref string, kind ArtifactKind, cred Credential) (*Artifact, error)
	// ArtifactURL resolves a relative artifact path returned by the gateway
	// into an absolute URL. Absolute inputs pass through.
	ArtifactURL(path string) string
}

type httpClient struct {
	cfg     config.GatewayConfig
	http    *http.Client
	log     *zap.Logger
	metrics *metrics.EmissionMetrics
}

// NewClient builds the HTTP gateway client.
func NewClient(cfg config.Config, logger *zap.Logger, em *metrics.EmissionMetrics) Client {
	return &httpClient{
		cfg:     cfg.Gateway,
		http:    &http.Client{Timeout: cfg.Gateway.Timeout},
		log:     logger.Named("gateway"),
		metrics: em,
	}
}

func (c *httpClient) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	if u, ok := baseURLs[c.cfg.Environment]; ok {
		return u
	}
	return baseURLs[config.GatewayEnvHomologation]
}

func (c *httpClient) Submit(ctx context.Context, ref string, doc any, cred Credential) (*SubmitResult, error) {
	var out SubmitResult
	path := "/v2/nfe?ref=" + url.QueryEscape(ref)
	if err := c.do(ctx, http.MethodPost, path, doc, cred, &out, "submit"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Query(ctx context.Context, ref string, cred Credential) (*QueryResult, error) {
	var out QueryResult
	path := "/v2/nfe/" + url.PathEscape(ref)
	if err := c.do(ctx, http.MethodGet, path, nil, cred, &out, "query"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Cancel(ctx context.Context, ref, justification string, cred Credential) (*QueryResult, error) {
	var out QueryResult
	path := "/v2/nfe/" + url.PathEscape(ref)
	body := map[string]string{"justificativa": strings.TrimSpace(justification)}
	if err := c.do(ctx, http.MethodDelete, path, body, cred, &out, "cancel"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Download(ctx context.Context, ref string, kind ArtifactKind, cred Credential) (*Artifact, error) {
	path := fmt.Sprintf("/v2/nfe/%s.%s", url.PathEscape(ref), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(cred.Token, "")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifyTransport(err, "download", path)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, NewTemporaryError(res.StatusCode, fmt.Sprintf("reading download body: %v", err))
	}
	if res.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(res.StatusCode, truncate(string(body), 200))
	}
	return &Artifact{ContentType: res.Header.Get("Content-Type"), Body: body}, nil
}

func (c *httpClient) ArtifactURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return c.baseURL() + trimmed
}

func (c *httpClient) do(ctx context.Context, method, path string, body any, cred Credential, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return NewPermanentError(0, fmt.Sprintf("encoding request body: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, reader)
	if err != nil {
		return NewPermanentError(0, fmt.Sprintf("building request: %v", err))
	}
	req.SetBasicAuth(cred.Token, "")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.observe(operation, "error", elapsed)
		return c.classifyTransport(err, operation, path)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.observe(operation, "error", elapsed)
		return NewTemporaryError(res.StatusCode, fmt.Sprintf("reading response body: %v", err))
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.observe(operation, "error", elapsed)
		message := truncate(string(raw), 200)
		var payload struct {
			Message string `json:"mensagem"`
		}
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil && payload.Message != "" {
			message = payload.Message
		}
		return c.classifyStatus(res.StatusCode, message)
	}

	c.observe(operation, "ok", elapsed)
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return NewTemporaryError(res.StatusCode, fmt.Sprintf("invalid response: %s", truncate(string(raw), 200)))
		}
	}
	return nil
}

// classifyStatus maps HTTP status codes to the retry policy: 422 schema
// rejection and 401/403 authentication are permanent; everything else the
// gateway can answer differently next time.
func (c *httpClient) classifyStatus(status int, message string) error {
	switch status {
	case http.StatusUnprocessableEntity, http.StatusUnauthorized, http.StatusForbidden:
		return NewPermanentError(status, message)
	default:
		return NewTemporaryError(status, message)
	}
}

func (c *httpClient) classifyTransport(err error, operation, path string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewTemporaryError(0, fmt.Sprintf("timeout after %s: %s %s", c.cfg.Timeout, operation, path))
	}
	return NewTemporaryError(0, fmt.Sprintf("network error: %v", err))
}

func (c *httpClient) observe(operation, outcome string, seconds float64) {
	if c.metrics != nil {
		c.metrics.ObserveGateway(operation, outcome, seconds)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
