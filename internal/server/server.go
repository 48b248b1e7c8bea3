// Package server exposes the emission API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/fiscal/internal/cache"
	"github.com/smallbiznis/fiscal/internal/config"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/fiscal/internal/invoice/service"
	"github.com/smallbiznis/fiscal/internal/observability/metrics"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	"github.com/smallbiznis/fiscal/internal/ratelimit"
	"github.com/smallbiznis/fiscal/internal/reconcile"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// Server holds the handler dependencies.
type Server struct {
	engine *gin.Engine
	cfg    config.Config
	genID  *snowflake.Node
	log    *zap.Logger

	emissionSvc  invoiceservice.Service
	invoices     invoicedomain.Repository
	companies    partydomain.CompanyRepository
	parties      partydomain.CounterpartyRepository
	natures      naturedomain.Repository
	orders       orderdomain.Repository
	taxRules     taxdomain.Repository
	ruleCache    cache.RuleResolverCache
	limiter      *ratelimit.Limiter
	sweeper      *reconcile.Sweeper
	emissionMetr *metrics.EmissionMetrics
}

// ServerParams collects the server dependencies.
type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	GenID       *snowflake.Node
	Logger      *zap.Logger
	EmissionSvc invoiceservice.Service
	Invoices    invoicedomain.Repository
	Companies   partydomain.CompanyRepository
	Parties     partydomain.CounterpartyRepository
	Natures     naturedomain.Repository
	Orders      orderdomain.Repository
	TaxRules    taxdomain.Repository
	RuleCache   cache.RuleResolverCache  `optional:"true"`
	Limiter     *ratelimit.Limiter       `optional:"true"`
	Sweeper     *reconcile.Sweeper       `optional:"true"`
	Metrics     *metrics.EmissionMetrics `optional:"true"`
}

// NewServer registers all routes on the shared engine.
func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		genID:        p.GenID,
		log:          p.Logger.Named("server"),
		emissionSvc:  p.EmissionSvc,
		invoices:     p.Invoices,
		companies:    p.Companies,
		parties:      p.Parties,
		natures:      p.Natures,
		orders:       p.Orders,
		taxRules:     p.TaxRules,
		ruleCache:    p.RuleCache,
		limiter:      p.Limiter,
		sweeper:      p.Sweeper,
		emissionMetr: p.Metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	emissions := v1.Group("", RateLimit(s.limiter, s.log))
	emissions.POST("/emissions", s.emit)
	emissions.POST("/emissions/preview", s.previewEmission)
	emissions.POST("/emissions/draft", s.saveDraft)
	emissions.POST("/emissions/payload", s.emitWithPayload)
	emissions.POST("/invoices/:id/emit", s.emitDraft)

	v1.GET("/invoices", s.listInvoices)
	v1.GET("/invoices/:id", s.getInvoice)
	v1.GET("/invoices/:id/events", s.listInvoiceEvents)
	v1.GET("/invoices/:id/payload", s.lastPayload)
	v1.GET("/invoices/:id/xml", s.downloadXML)
	v1.GET("/invoices/:id/pdf", s.downloadPDF)
	v1.POST("/invoices/:id/cancel", s.cancelInvoice)
	v1.POST("/invoices/:id/clone", s.cloneInvoice)
	v1.POST("/invoices/:id/sync", s.syncInvoice)
	v1.POST("/invoices/sync", s.runSweep)

	v1.POST("/webhooks/gateway", s.gatewayWebhook)

	v1.POST("/companies", s.createCompany)
	v1.GET("/companies", s.listCompanies)
	v1.POST("/counterparties", s.createCounterparty)
	v1.GET("/counterparties/:id", s.getCounterparty)
	v1.POST("/orders", s.createOrder)
	v1.GET("/orders/:id", s.getOrder)
	v1.POST("/natures", s.createNature)
	v1.GET("/natures", s.listNatures)
	v1.POST("/natures/:id/rules", s.createTaxRule)
	v1.GET("/natures/:id/rules", s.listTaxRules)
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(logger *zap.Logger) *gin.Engine {
	return NewEngine(logger)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
