// Package api wires the HTTP surface: routing, CORS, session resolution.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/api/handlers"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/api/middleware"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/config"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/service"
)

type Dependencies struct {
	Store         creds.Store
	ReportService *service.ReportService
	GapService    *service.GapService
	HTTPClient    *httpx.Client
	SmartUp       config.SmartUpConfig
	UploadDir     string
}

func NewRouter(deps Dependencies, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(middleware.Session())

	authHandler := handlers.NewAuthHandler(deps.Store)
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/moysklad", authHandler.SetMoySklad)
		authGroup.GET("/moysklad", authHandler.GetMoySklad)
		authGroup.DELETE("/moysklad", authHandler.DeleteMoySklad)
		authGroup.POST("/smartup", authHandler.SetSmartUp)
		authGroup.GET("/smartup", authHandler.GetSmartUp)
		authGroup.DELETE("/smartup", authHandler.DeleteSmartUp)
	}

	moySkladHandler := handlers.NewMoySkladHandler(deps.Store, deps.ReportService)
	moySkladGroup := apiGroup.Group("/moysklad")
	{
		moySkladGroup.GET("/warehouses", moySkladHandler.GetWarehouses)
		moySkladGroup.POST("/products", moySkladHandler.GetProducts)
		moySkladGroup.POST("/sales", moySkladHandler.GetSales)
		moySkladGroup.POST("/sales-positions", moySkladHandler.GetSalesPositions)
	}

	reportHandler := handlers.NewReportHandler(deps.Store, deps.ReportService)
	reportGroup := apiGroup.Group("/reports")
	{
		reportGroup.POST("/below-cost", reportHandler.BelowCost)
		reportGroup.POST("/low-margin", reportHandler.LowMargin)
		reportGroup.GET("/runs", reportHandler.Runs)
	}

	smartUpHandler := handlers.NewSmartUpHandler(deps.Store, deps.HTTPClient, deps.SmartUp)
	smartUpGroup := apiGroup.Group("/smartup")
	{
		smartUpGroup.GET("/products", smartUpHandler.GetProducts)
		smartUpGroup.GET("/test-connection", smartUpHandler.TestConnection)
	}

	gapHandler := handlers.NewGapHandler(deps.GapService, deps.UploadDir)
	apiGroup.POST("/gap-analysis", gapHandler.Analyze)

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
