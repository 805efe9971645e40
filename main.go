package main

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"civicreport/api"
	"civicreport/common"
	"civicreport/config"
	"civicreport/handlers"
	"civicreport/metrics"
	"civicreport/middleware"
	"civicreport/service"
	"civicreport/web"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	common.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.Register()

	// Create service
	svc, err := service.NewService(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create service")
	}

	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start service")
	}

	router := setupRouter(svc.GetHandlers(), cfg.MaxBodyBytes, web.Static())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests before closing the pool they use.
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := svc.Stop(); err != nil {
		log.WithError(err).Error("Error stopping service")
	}

	log.Info("Server exited")
}

func setupRouter(h *handlers.Handlers, maxBodyBytes int64, static fs.FS) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	// Streaming endpoints must not be buffered by the compressor
	router.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{api.ListenEndpoint, api.EventsEndpoint, api.MetricsEndpoint})))

	router.Use(middleware.BodyLimitMiddleware(maxBodyBytes))

	apiGroup := router.Group(api.BaseEndpoint)
	{
		apiGroup.GET("", h.APIRoot)
		apiGroup.POST("/reports", h.CreateReport)
		apiGroup.GET("/reports", h.ListReports)
		apiGroup.GET("/reports/kpis", h.GetKPIs)
		apiGroup.GET("/reports/leaderboard", h.GetLeaderboard)
		apiGroup.GET("/reports/map", h.GetMap)

		// Realtime newReport events
		apiGroup.GET("/reports/listen", h.ListenReports)
		apiGroup.GET("/reports/events", h.StreamReports)
	}

	router.GET(api.HealthEndpoint, h.HealthCheck)
	router.GET(api.MetricsEndpoint, gin.WrapH(promhttp.Handler()))

	// Everything else is the browser client
	fileServer := http.FileServer(http.FS(static))
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, api.BaseEndpoint+"/") {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Not found"})
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})

	return router
}
