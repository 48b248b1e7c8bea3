package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
)

func (s *Server) createCompany(c *gin.Context) {
	var company partydomain.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	company.ID = s.genID.Generate()
	if err := s.companies.Create(c.Request.Context(), &company); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (s *Server) listCompanies(c *gin.Context) {
	companies, err := s.companies.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (s *Server) createCounterparty(c *gin.Context) {
	var cp partydomain.Counterparty
	if err := c.ShouldBindJSON(&cp); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	cp.ID = s.genID.Generate()
	if err := s.parties.Create(c.Request.Context(), &cp); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

func (s *Server) getCounterparty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cp, err := s.parties.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (s *Server) createOrder(c *gin.Context) {
	var order orderdomain.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	order.ID = s.genID.Generate()
	for i := range order.Items {
		order.Items[i].ID = s.genID.Generate()
		order.Items[i].OrderID = order.ID
	}
	if err := s.orders.Create(c.Request.Context(), &order); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := s.orders.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) createNature(c *gin.Context) {
	var nature naturedomain.OperationNature
	if err := c.ShouldBindJSON(&nature); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	nature.ID = s.genID.Generate()
	if err := s.natures.Create(c.Request.Context(), &nature); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, nature)
}

func (s *Server) listNatures(c *gin.Context) {
	var companyID snowflake.ID
	if raw := c.Query("company_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		companyID = snowflake.ID(parsed)
	}
	natures, err := s.natures.List(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"natures": natures})
}

func (s *Server) createTaxRule(c *gin.Context) {
	natureID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var rule taxdomain.TaxRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if !taxdomain.ValidKind(rule.Kind) {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	rule.ID = s.genID.Generate()
	rule.OperationNatureID = natureID
	if err := s.taxRules.Create(c.Request.Context(), &rule); err != nil {
		AbortWithError(c, err)
		return
	}
	if s.ruleCache != nil {
		s.ruleCache.InvalidateNature(natureID)
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) listTaxRules(c *gin.Context) {
	natureID, ok := parseID(c, "id")
	if !ok {
		return
	}
	rules, err := s.taxRules.ListByNature(c.Request.Context(), natureID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}
