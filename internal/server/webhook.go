package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fiscal/internal/gateway"
	"go.uber.org/zap"
)

// webhookPayload is the gateway's callback body. Field names follow the
// authority API.
type webhookPayload struct {
	Ref              string `json:"ref"`
	Status           string `json:"status"`
	AuthorityStatus  string `json:"status_sefaz"`
	AuthorityMessage string `json:"mensagem_sefaz"`
	AccessKey        string `json:"chave_nfe"`
	Number           int64  `json:"numero"`
	XMLPath          string `json:"caminho_xml_nota_fiscal"`
	PDFPath          string `json:"caminho_danfe"`
}

func (s *Server) gatewayWebhook(c *gin.Context) {
	if secret := s.cfg.Webhook.Secret; secret != "" {
		header := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(header), []byte(secret)) != 1 {
			s.observeWebhook("unauthorized")
			AbortWithError(c, ErrUnauthorized)
			return
		}
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Ref == "" {
		s.observeWebhook("malformed")
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	inv, err := s.invoices.FindByRef(ctx, payload.Ref)
	if err != nil {
		// Unknown refs get a 200 so the gateway stops retrying; the
		// reconciliation sweep covers anything genuinely lost.
		s.observeWebhook("unknown_ref")
		s.log.Warn("webhook for unknown ref", zap.String("ref", payload.Ref))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	res := &gateway.QueryResult{
		Ref:              payload.Ref,
		Status:           payload.Status,
		AuthorityStatus:  payload.AuthorityStatus,
		AuthorityMessage: payload.AuthorityMessage,
		AccessKey:        payload.AccessKey,
		Number:           payload.Number,
		XMLPath:          payload.XMLPath,
		PDFPath:          payload.PDFPath,
	}
	if err := s.emissionSvc.ApplyGatewayResult(ctx, inv, res, "webhook"); err != nil {
		s.observeWebhook("error")
		AbortWithError(c, err)
		return
	}
	s.observeWebhook(payload.Status)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) observeWebhook(status string) {
	if s.emissionMetr != nil {
		s.emissionMetr.ObserveWebhook(status)
	}
}
