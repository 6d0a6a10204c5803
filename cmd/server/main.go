package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/api"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/config"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/moysklad"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/repository/postgres"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/service"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Server.Mode)
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	httpClient := httpx.New(httpx.Options{
		Timeout:        cfg.Upstream.RequestTimeout,
		MaxRetries:     cfg.Upstream.MaxRetries,
		RateWaitBudget: cfg.Upstream.RateWaitBudget,
	})

	store := creds.NewStore(cfg.Creds)

	var runs *postgres.RunRepository
	if cfg.RunLog.Enabled {
		db, err := postgres.NewDB(cfg.RunLog)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to run-log database")
		}
		defer db.Close()

		runs = postgres.NewRunRepository(db)
		if err := runs.EnsureSchema(context.Background()); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to prepare run-log schema")
		}
	}

	factory := func(token string) service.MoySkladAPI {
		return moysklad.NewClient(moysklad.Config{
			BaseURL:           cfg.MoySklad.BaseURL,
			Token:             token,
			HTTP:              httpClient,
			ProductPageDelay:  cfg.Upstream.ProductPageDelay,
			DocumentPageDelay: cfg.Upstream.DocumentPageDelay,
			BatchSize:         cfg.Upstream.BatchSize,
			BatchDelay:        cfg.Upstream.BatchDelay,
		})
	}
	reportService := service.NewReportService(factory, runs, cfg.Upstream.ReportDeadline)

	router := api.NewRouter(api.Dependencies{
		Store:         store,
		ReportService: reportService,
		GapService:    service.NewGapService(),
		HTTPClient:    httpClient,
		SmartUp:       cfg.SmartUp,
		UploadDir:     cfg.App.UploadDir,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
