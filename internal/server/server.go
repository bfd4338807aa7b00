package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/claimdocs/internal/config"
	"github.com/smallbiznis/claimdocs/internal/document"
	documentdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/observability"
	obsmiddleware "github.com/smallbiznis/claimdocs/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/claimdocs/internal/observability/metrics"
	obstracing "github.com/smallbiznis/claimdocs/internal/observability/tracing"
	"github.com/smallbiznis/claimdocs/internal/project"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	project.Module,
	savedlineitem.Module,
	document.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	documentSvc  documentdomain.Service
	savedItemSvc savedlineitemdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DocumentSvc  documentdomain.Service
	SavedItemSvc savedlineitemdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		documentSvc:  p.DocumentSvc,
		savedItemSvc: p.SavedItemSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.OrgContext())

	// -------- Saved line items --------
	api.GET("/saved-line-items", s.ListSavedLineItems)
	api.POST("/saved-line-items", s.CreateSavedLineItem)

	// -------- Invoices --------
	invoices := api.Group("/invoices", DocumentKind(documentdomain.KindInvoice))
	invoices.POST("/preview", s.PreviewDocument)
	invoices.POST("", s.CreateDocument)
	invoices.GET("/:id", s.GetDocument)

	// -------- Estimates --------
	estimates := api.Group("/estimates", DocumentKind(documentdomain.KindEstimate))
	estimates.POST("/preview", s.PreviewDocument)
	estimates.POST("", s.CreateDocument)
	estimates.GET("/:id", s.GetDocument)
}
