package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/config"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/knowledge"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/web/handlers"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/web/middleware"
)

type Server struct {
	router  *gin.Engine
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
}

func NewServer(svc handlers.AnswerService, base *knowledge.Base, cfg *config.Config, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	limiter := middleware.NewClientRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger)

	askHandler := handlers.NewAskHandler(svc, logger)
	healthHandler := handlers.NewHealthHandler(base)

	router.POST("/ask", limiter.Middleware(), askHandler.Ask)
	router.GET("/health", healthHandler.Health)

	return &Server{
		router:  router,
		limiter: limiter,
		logger:  logger,
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	s.limiter.Stop()
	return srv.Shutdown(context.Background())
}
