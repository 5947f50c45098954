package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/makkaan/avenue-api/docs" // Swagger docs
	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/database"
	"github.com/makkaan/avenue-api/internal/handlers"
	"github.com/makkaan/avenue-api/internal/jobs"
	"github.com/makkaan/avenue-api/internal/middleware"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/makkaan/avenue-api/internal/services"
	"github.com/makkaan/avenue-api/internal/storage"
	"github.com/makkaan/avenue-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Avenue 18 API
// @version 1.0
// @description REST API for the Makkaan Avenue 18 client portal and installment ledger

// @contact.name API Support
// @contact.email support@makkaan.com

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Any authenticated user may change their own password;
			// acquisition admins may change anyone's.
			protected.PATCH("/users/:user_id/change_password", h.Auth.ChangePassword)

			// Acquisition-only routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAcquisition())
			{
				// Client contract management
				admin.GET("/clients", h.Client.Index)
				admin.POST("/clients", h.Client.Create)
				admin.GET("/clients/stats", h.Client.Stats)
				admin.GET("/clients/:contract_id", h.Client.Show)
				admin.PUT("/clients/:contract_id", h.Client.Update)
				admin.DELETE("/clients/:contract_id", h.Client.Destroy)
				admin.PATCH("/clients/:contract_id/status", h.Client.UpdateStatus)

				// Ledger views and exports
				admin.GET("/ledger/:contract_id", h.Ledger.Show)
				admin.GET("/ledger/:contract_id/export/pdf", h.Ledger.ExportPDF)
				admin.GET("/ledger/:contract_id/export/xlsx", h.Ledger.ExportXLSX)
				admin.GET("/ledger/:contract_id/export/csv", h.Ledger.ExportCSV)
				admin.GET("/ledger/:contract_id/statement_pdf", h.Ledger.StatementPDF)

				// Row and child payment management
				admin.POST("/ledger/:contract_id/rows", h.Ledger.CreateRow)
				admin.PUT("/ledger/rows/:row_id", h.Ledger.UpdateRow)
				admin.DELETE("/ledger/rows/:row_id", h.Ledger.DeleteRow)
				admin.POST("/ledger/rows/:row_id/proof", h.Ledger.UploadProof)
				admin.GET("/ledger/rows/:row_id/proof", h.Ledger.DownloadProof)
				admin.POST("/ledger/rows/:row_id/children", h.Ledger.CreateChild)
				admin.PUT("/ledger/children/:child_id", h.Ledger.UpdateChild)
				admin.DELETE("/ledger/children/:child_id", h.Ledger.DeleteChild)

				// Audit trail and job status
				admin.GET("/audits", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Client portal (read-only)
			client := protected.Group("/client")
			client.Use(middleware.RequireRole("client"))
			{
				client.GET("/ledger", h.Portal.Ledger)
				client.GET("/ledger/export/pdf", h.Portal.ExportPDF)
				client.GET("/ledger/statement_pdf", h.Portal.StatementPDF)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Lock late payment surcharges every hour; run once at startup so a
	// restarted server does not wait an hour to catch up.
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Locking overdue surcharges...")
		locked, err := svcs.Surcharge.LockOverdue(ctx, time.Now())
		if err != nil {
			return err
		}
		if locked > 0 {
			logger.Info("[Job] Locked surcharges", "rows", locked)
		}
		return nil
	})

	// Close fully settled contracts daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Closing settled contracts...")
		closed, err := svcs.Client.CloseSettled(ctx)
		if err != nil {
			return err
		}
		if closed > 0 {
			logger.Info("[Job] Closed contracts", "count", closed)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
