// Package httpapi exposes the service to the presentation layer as JSON over
// HTTP. Every route except login, health and metrics requires a bearer token.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labqms/internal/auth"
	"labqms/internal/core"
	"labqms/internal/export"
	"labqms/internal/report"
)

// Server holds the handler dependencies.
type Server struct {
	svc       *core.Service
	tokens    *auth.TokenIssuer
	archiver  *export.Archiver
	assistant *report.Client
	metrics   http.Handler
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithArchiver enables the export routes.
func WithArchiver(a *export.Archiver) Option { return func(s *Server) { s.archiver = a } }

// WithAssistant enables the report route.
func WithAssistant(c *report.Client) Option { return func(s *Server) { s.assistant = c } }

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for default years.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Server around svc and tokens.
func New(svc *core.Service, tokens *auth.TokenIssuer, opts ...Option) *Server {
	s := &Server{svc: svc, tokens: tokens, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("http")
	return s
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	r.POST("/api/login", s.login)

	api := r.Group("/api", s.authenticate())
	{
		api.GET("/me", s.me)

		api.GET("/instruments", s.listInstruments)
		api.POST("/instruments", s.createInstrument)
		api.GET("/instruments/:no", s.getInstrument)
		api.PUT("/instruments/:no", s.saveInstrument)
		api.DELETE("/instruments/:no", s.hardDeleteInstrument)
		api.POST("/instruments/:no/archive", s.archiveInstrument)
		api.POST("/instruments/:no/restore", s.restoreInstrument)
		api.POST("/instruments/:no/calibrations", s.addCalibration)
		api.POST("/instruments/:no/maintenance", s.addMaintenance)
		api.POST("/instruments/:no/loans", s.issueLoan)

		api.GET("/loans", s.listLoans)
		api.POST("/loans/:id/return", s.returnLoan)
		api.GET("/loans/:id/slip", s.loanSlip)

		api.GET("/materials", s.listMaterials)
		api.PUT("/materials/:lot", s.saveMaterial)
		api.DELETE("/materials/:lot", s.deleteMaterial)
		api.GET("/material-names", s.materialNames)
		api.GET("/vendors", s.vendors)

		api.GET("/users", s.listUsers)
		api.POST("/users", s.createUser)
		api.PUT("/users/:username", s.saveUser)
		api.DELETE("/users/:username", s.deleteUser)
		api.POST("/users/:username/training", s.addTraining)

		api.GET("/training/overview", s.trainingOverview)
		api.GET("/dashboard", s.dashboard)
		api.GET("/calibration-plan", s.calibrationPlan)
		api.GET("/deletion-logs", s.deletionLogs)
		api.GET("/transitions", s.transitions)

		api.GET("/exports", s.listExports)
		api.GET("/exports/training-plan", s.trainingPlanExport)
		api.GET("/exports/calibration-plan", s.calibrationPlanExport)

		api.POST("/assistant", s.ask)
	}
	return r
}
