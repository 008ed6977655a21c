package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/config"
	"github.com/kendall-kelly/studentbridge-api/controllers"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/middleware"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.NewStructured(cfg.LogLevel, cfg.LogFormat)
	log.Info("Starting StudentBridge API server...", map[string]interface{}{"env": cfg.GoEnv})
	for _, notice := range cfg.Notices {
		log.Info(notice, nil)
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL, log); err != nil {
		log.WithError(err).Error("Failed to connect to database", nil)
		os.Exit(1)
	}
	db := config.GetDB()
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.WithError(err).Error("Failed to migrate database", nil)
		os.Exit(1)
	}
	log.Info("Database migration completed successfully", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := connectBackends(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect backends", nil)
		os.Exit(1)
	}
	defer b.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers, users := buildHandlers(cfg, db, b, log)
	router := setupRouter(cfg, db, middleware.EnsureValidToken(cfg, log), users, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server is running", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Failed to start server", nil)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server forced to shutdown", nil)
	}
	log.Info("Server gracefully stopped", nil)
}

// setupRouter builds the engine: public health and metrics endpoints plus
// the authenticated API under /api/v1
func setupRouter(cfg *config.Config, db *gorm.DB, authenticate gin.HandlerFunc, users middleware.UserLookup, handlers controllers.Handlers) *gin.Engine {
	router := gin.Default()
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus(db))
	}
	controllers.RegisterRoutes(v1, authenticate, users, handlers)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "StudentBridge API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		tables, err := db.Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"tables":  tables,
		})
	}
}
