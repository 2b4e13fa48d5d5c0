package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/officeflow/backend/internal/application/services"
	"github.com/officeflow/backend/internal/bootstrap"
	"github.com/officeflow/backend/internal/infrastructure/database"
	"github.com/officeflow/backend/internal/interfaces/middleware"
	"github.com/officeflow/backend/internal/interfaces/rest"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("📦 Loaded environment from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3002"
	}

	// Initialize database connection
	conn, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := conn.DB()
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(db)
	log.Println("🔧 Service manager initialized")

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Initialize handlers
	workflowHandler := rest.NewWorkflowHandler(svcMgr)
	instanceHandler := rest.NewInstanceHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth()
	requireAdmin := middleware.RequireAdmin()

	// API routes
	api := router.Group("/api")
	{
		workflows := api.Group("/workflows")
		workflows.Use(requireAuth)
		{
			// Instance routes come first so "instances" is never read as a
			// workflow id.
			workflows.POST("/instances/start", instanceHandler.StartInstance)
			workflows.GET("/instances/entity/:entityType/:entityId", instanceHandler.ListEntityInstances)
			workflows.GET("/instances/:id", instanceHandler.GetInstance)
			workflows.POST("/instances/:id/process", instanceHandler.ProcessNode)

			// Definition management (admin only for mutations)
			workflows.GET("", workflowHandler.ListWorkflows)
			workflows.POST("", requireAdmin, workflowHandler.CreateWorkflow)
			workflows.POST("/simulate", requireAdmin, workflowHandler.SimulateWorkflow)
			workflows.GET("/:id", workflowHandler.GetWorkflow)
			workflows.PUT("/:id", requireAdmin, workflowHandler.UpdateWorkflow)
			workflows.DELETE("/:id", requireAdmin, workflowHandler.DeleteWorkflow)
			workflows.POST("/:id/publish", requireAdmin, workflowHandler.PublishWorkflow)
			workflows.POST("/:id/simulate", requireAdmin, workflowHandler.SimulateWorkflowByID)
			workflows.POST("/:id/default", requireAdmin, workflowHandler.SetDefaultWorkflow)
		}
	}

	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 OfficeFlow Workflow Backend Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:         http://localhost:%s", port)
	log.Printf("🗂  Workflow API:   http://localhost:%s/api/workflows", port)
	log.Printf("📈 Metrics:        http://localhost:%s/metrics", port)
	log.Printf("💚 Health check:   http://localhost:%s/health\n", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM with a 5 second drain window
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	if err := conn.Close(); err != nil {
		log.Printf("⚠️ Error closing database: %v", err)
	}

	log.Println("Server exiting")
}
