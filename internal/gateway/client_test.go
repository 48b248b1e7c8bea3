package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/fiscal/internal/config"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Config{Gateway: config.GatewayConfig{
		Environment: config.GatewayEnvHomologation,
		BaseURL:     server.URL,
		Timeout:     2 * time.Second,
	}}
	return NewClient(cfg, zap.NewNop(), nil)
}

func TestSubmit_Accepted(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "INV-1", r.URL.Query().Get("ref"))
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "token-123", user)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ref":"INV-1","status":"processando_autorizacao"}`))
	})

	out, err := client.Submit(context.Background(), "INV-1", map[string]string{"natureza_operacao": "Venda"}, Credential{Token: "token-123"})
	require.NoError(t, err)
	assert.Equal(t, "INV-1", out.Ref)
	assert.Equal(t, "processando_autorizacao", out.Status)
}

func TestSubmit_SchemaRejectionIsPermanent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"mensagem":"campo obrigatorio ausente"}`))
	})

	_, err := client.Submit(context.Background(), "INV-1", nil, Credential{Token: "t"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.False(t, IsTemporary(err))
	assert.Contains(t, err.Error(), "campo obrigatorio ausente")
}

func TestSubmit_AuthFailureIsPermanent(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := client.Submit(context.Background(), "INV-1", nil, Credential{Token: "t"})
		require.Error(t, err)
		assert.True(t, IsPermanent(err), "status %d", status)
	}
}

func TestSubmit_RateLimitAndServerErrorAreTemporary(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable} {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := client.Submit(context.Background(), "INV-1", nil, Credential{Token: "t"})
		require.Error(t, err)
		assert.True(t, IsTemporary(err), "status %d", status)
	}
}

func TestSubmit_TimeoutIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	cfg := config.Config{Gateway: config.GatewayConfig{
		BaseURL: server.URL,
		Timeout: 20 * time.Millisecond,
	}}
	client := NewClient(cfg, zap.NewNop(), nil)

	_, err := client.Submit(context.Background(), "INV-1", nil, Credential{Token: "t"})
	require.Error(t, err)
	assert.True(t, IsTemporary(err))
}

func TestQueryAndCancel(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"ref":"INV-2","status":"autorizado","chave_nfe":"35260812345678000195550010000000011000000017","caminho_danfe":"/arquivos/danfe.pdf"}`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"ref":"INV-2","status":"cancelado"}`))
		}
	})

	got, err := client.Query(context.Background(), "INV-2", Credential{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "autorizado", got.Status)
	assert.NotEmpty(t, got.AccessKey)

	cancelled, err := client.Cancel(context.Background(), "INV-2", "pedido duplicado na origem", Credential{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "cancelado", cancelled.Status)
}

func TestArtifactURL(t *testing.T) {
	cfg := config.Config{Gateway: config.GatewayConfig{Environment: config.GatewayEnvHomologation}}
	client := NewClient(cfg, zap.NewNop(), nil)

	assert.Equal(t, "https://homologacao.focusnfe.com.br/arquivos/x.pdf", client.ArtifactURL("arquivos/x.pdf"))
	assert.Equal(t, "https://homologacao.focusnfe.com.br/arquivos/x.pdf", client.ArtifactURL("/arquivos/x.pdf"))
	assert.Equal(t, "https://cdn.example.com/x.pdf", client.ArtifactURL("https://cdn.example.com/x.pdf"))
	assert.Equal(t, "", client.ArtifactURL("  "))
}

func TestResolveCredential_CompanyTokenWins(t *testing.T) {
	cfg := config.GatewayConfig{Environment: config.GatewayEnvProduction, Token: "global"}
	company := &partydomain.Company{CNPJ: "12345678000195", TokenProduction: "prod-token", TokenHomologation: "homolog-token"}

	cred, err := ResolveCredential(cfg, company)
	require.NoError(t, err)
	assert.Equal(t, "prod-token", cred.Token)

	cfg.Environment = config.GatewayEnvHomologation
	cred, err = ResolveCredential(cfg, company)
	require.NoError(t, err)
	assert.Equal(t, "homolog-token", cred.Token)
}

func TestResolveCredential_FallsBackToGlobal(t *testing.T) {
	cfg := config.GatewayConfig{Environment: config.GatewayEnvHomologation, Token: "global"}
	cred, err := ResolveCredential(cfg, &partydomain.Company{})
	require.NoError(t, err)
	assert.Equal(t, "global", cred.Token)
}

func TestResolveCredential_MissingIsError(t *testing.T) {
	_, err := ResolveCredential(config.GatewayConfig{Environment: config.GatewayEnvHomologation}, &partydomain.Company{CNPJ: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
}
