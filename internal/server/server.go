// Package server exposes the HTTP surface: project CRUD, generation
// with live progress streaming, credit reads and model readiness.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/cache"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
	generationdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/logger"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/metrics"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/tracing"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/readiness"
	usagedomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// balanceCacheTTL bounds how stale the credits endpoint may be.
const balanceCacheTTL = 10 * time.Second

type ServerParam struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Credits   creditdomain.Service
	Projects  projectdomain.Service
	Usage     usagedomain.Service
	Generator generationdomain.Service
	Readiness *readiness.Manager
}

type Server struct {
	cfg config.Config
	log *zap.Logger

	creditSvc    creditdomain.Service
	projectSvc   projectdomain.Service
	usageSvc     usagedomain.Service
	generateSvc  generationdomain.Service
	readiness    *readiness.Manager
	balanceCache *cache.TTLCache[string, *creditdomain.Account]
	generateRate *rateLimiter
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg: p.Config,
		log: p.Log.Named("server"),

		creditSvc:    p.Credits,
		projectSvc:   p.Projects,
		usageSvc:     p.Usage,
		generateSvc:  p.Generator,
		readiness:    p.Readiness,
		balanceCache: cache.NewTTLCache[string, *creditdomain.Account](),
		generateRate: newRateLimiter(10, time.Minute),
	}
}

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    log,
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	engine.Use(IdentityMiddleware())
	return engine
}

func RegisterAPIRoutes(engine *gin.Engine, s *Server) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	{
		api.POST("/projects", s.CreateProject)
		api.GET("/projects", s.ListProjects)
		api.GET("/projects/:id", s.GetProject)
		api.POST("/projects/:id/generate", s.GenerateDocuments)

		api.POST("/generate/estimate", s.EstimateGeneration)

		api.GET("/credits", s.GetCredits)
		api.GET("/credits/transactions", s.ListCreditTransactions)
		api.GET("/usage", s.GetUsageTotals)

		api.GET("/models/status", s.ModelStatus)
		api.POST("/models/warmup", s.WarmupModels)
	}
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RegisterAPIRoutes),
	fx.Invoke(RunHTTP),
)
