// ABOUTME: HTTP API server for campaign operations
// ABOUTME: Gin router with request validation, structured request logs, and a Prometheus endpoint
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/importer"
	"github.com/harperreed/outbound/logger"
	"github.com/harperreed/outbound/metrics"
)

type Server struct {
	engine   *campaign.Engine
	importer *importer.Importer
	metrics  *metrics.Collector
	log      *logger.Logger
	validate *validator.Validate
	version  string
}

// NewServer wires the API. collector may be nil, in which case /metrics is not served.
func NewServer(engine *campaign.Engine, collector *metrics.Collector, log *logger.Logger, version string) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		engine:   engine,
		importer: importer.New(engine, log),
		metrics:  collector,
		log:      log,
		validate: validator.New(),
		version:  version,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleRoot)

	router.GET("/customers", s.handleListCustomers)
	router.POST("/customers", s.handleImportCustomers)

	router.GET("/variablegenerators", s.handleListVariableGenerators)
	router.GET("/variables", s.handleListVariables)
	router.POST("/variables", s.handleImportVariables)

	router.GET("/experimentgenerators", s.handleListExperimentGenerators)
	router.GET("/experiments", s.handleGetExperiments)
	router.POST("/experiments", s.handleSetupExperiments)
	router.GET("/experiments/contacts", s.handleOutboundContacts)

	router.GET("/agenda", s.handleAgenda)
	router.POST("/agenda", s.handleCompleteTask)

	router.GET("/events", s.handleListEvents)
	router.POST("/events", s.handleSubmitEvent)
	router.POST("/emailEvent", s.handleEmailEvent)
	router.POST("/linkedInEvent", s.handleLinkedInEvent)

	router.GET("/statistics", s.handleStatistics)
	router.POST("/replaceNaN", s.handleReplaceNaN)

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return router
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("starting web server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "outbound", "version": s.version})
}
