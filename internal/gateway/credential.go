package gateway

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/fiscal/internal/config"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
)

// Credential authenticates one request against the authority API.
type Credential struct {
	Token string
}

// ResolveCredential picks the token for a company: the company's token for
// the configured environment wins; the global fallback token is second.
// A missing credential is a permanent error, the emission cannot proceed.
func ResolveCredential(cfg config.GatewayConfig, company *partydomain.Company) (Credential, error) {
	if company != nil {
		if token := company.GatewayToken(cfg.Environment); token != "" {
			return Credential{Token: token}, nil
		}
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		return Credential{Token: token}, nil
	}
	cnpj := "(unknown)"
	if company != nil {
		cnpj = company.CNPJ
	}
	return Credential{}, fmt.Errorf("%w: company %s, environment %s", ErrMissingCredential, cnpj, cfg.Environment)
}
