package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fiscal/internal/document"
	"github.com/smallbiznis/fiscal/internal/gateway"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/fiscal/internal/invoice/service"
	"github.com/smallbiznis/fiscal/pkg/db/pagination"
)

func parseID(c *gin.Context, name string) (snowflake.ID, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return snowflake.ID(parsed), true
}

func (s *Server) emit(c *gin.Context) {
	var req invoiceservice.EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	inv, err := s.emissionSvc.Emit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, inv)
}

func (s *Server) previewEmission(c *gin.Context) {
	var req invoiceservice.EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	doc, err := s.emissionSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) saveDraft(c *gin.Context) {
	var req invoiceservice.EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	inv, err := s.emissionSvc.SaveDraft(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

type emitPayloadRequest struct {
	invoiceservice.EmitRequest
	Document *document.Document `json:"document"`
}

func (s *Server) emitWithPayload(c *gin.Context) {
	var req emitPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	inv, err := s.emissionSvc.EmitWithDocument(c.Request.Context(), req.EmitRequest, req.Document)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, inv)
}

func (s *Server) emitDraft(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inv, err := s.emissionSvc.EmitDraft(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, inv)
}

func (s *Server) listInvoices(c *gin.Context) {
	filter := invoicedomain.ListFilter{
		Status: invoicedomain.Status(c.Query("status")),
		Limit:  50,
	}
	if raw := c.Query("company_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.CompanyID = snowflake.ID(parsed)
	}
	if raw := c.Query("order_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.OrderID = snowflake.ID(parsed)
	}
	size := filter.Limit
	if raw := c.Query("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 250 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		size = parsed
	}
	if raw := c.Query("page_token"); raw != "" {
		cursor, err := pagination.DecodeCursor(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.AfterID = cursor.ID
	}
	// One extra row tells us whether a further page exists.
	filter.Limit = size + 1

	invoices, err := s.emissionSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	invoices, pageInfo, err := pagination.BuildPage(invoices, size, func(inv invoicedomain.Invoice) pagination.Cursor {
		return pagination.Cursor{ID: inv.ID}
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "page_info": pageInfo})
}

func (s *Server) getInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inv, err := s.emissionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) listInvoiceEvents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	events, err := s.emissionSvc.Events(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) lastPayload(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	payload, err := s.emissionSvc.LastPayload(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) downloadXML(c *gin.Context) {
	s.download(c, gateway.ArtifactXML, "application/xml")
}

func (s *Server) downloadPDF(c *gin.Context) {
	s.download(c, gateway.ArtifactPDF, "application/pdf")
}

func (s *Server) download(c *gin.Context, kind gateway.ArtifactKind, fallbackType string) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	artifact, err := s.emissionSvc.Download(c.Request.Context(), id, kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = fallbackType
	}
	c.Data(http.StatusOK, contentType, artifact.Body)
}

type cancelRequest struct {
	Justification string `json:"justification"`
}

func (s *Server) cancelInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	inv, err := s.emissionSvc.Cancel(c.Request.Context(), id, req.Justification)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) cloneInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	clone, err := s.emissionSvc.Clone(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clone)
}

func (s *Server) syncInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inv, err := s.emissionSvc.SyncNow(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) runSweep(c *gin.Context) {
	if s.sweeper == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	updated, err := s.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
