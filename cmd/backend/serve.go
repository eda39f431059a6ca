package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/artifact"
	"github.com/devadoot/devadoot/cases"
	"github.com/devadoot/devadoot/cmd/backend/handlers"
	"github.com/devadoot/devadoot/database"
	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/marketplace"
	"github.com/devadoot/devadoot/storage"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	// Connect to database
	dbCfg := database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	log.Info(ctx, "database connected", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// Initialize blob storage
	blobStorage, err := storage.New(storage.Config{
		Type:          cfg.Storage.Type,
		BaseDir:       cfg.Storage.BaseDir,
		S3Bucket:      cfg.Storage.S3Bucket,
		S3Region:      cfg.Storage.S3Region,
		PresignExpiry: cfg.Storage.S3PresignExpiry,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	log.Info(ctx, "blob storage initialized", map[string]interface{}{
		"type": cfg.Storage.Type,
	})

	// Initialize stores
	agentStore := agent.NewMySQLStore(db, log)
	marketplaceStore := marketplace.NewMySQLStore(db, log)
	caseStore := cases.NewMySQLStore(db, log)
	artifactStore := artifact.NewMySQLStore(db, log)

	resolver := agent.NewResolver(agentStore, marketplaceStore, log)

	// Setup router
	router := mux.NewRouter()

	// Health check endpoint (public)
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")

	// Protected API routes
	authMiddleware := handlers.NewAuthMiddleware(cfg.API.Token, log)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(authMiddleware.Handler)

	eventHandler := handlers.NewEventHandler(resolver, log)
	apiRouter.HandleFunc("/events/visit", eventHandler.Visit).Methods("POST")

	ruleHandler := handlers.NewRuleHandler(log)
	apiRouter.HandleFunc("/rules/evaluate/ui", ruleHandler.EvaluateUI).Methods("POST")
	apiRouter.HandleFunc("/rules/evaluate/api", ruleHandler.EvaluateAPI).Methods("POST")

	caseHandler := handlers.NewCaseHandler(caseStore, artifactStore, blobStorage, log)
	apiRouter.HandleFunc("/cases", caseHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/cases", caseHandler.List).Methods("GET")
	apiRouter.HandleFunc("/cases/{id}", caseHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/cases/{id}/close", caseHandler.Close).Methods("POST")
	apiRouter.HandleFunc("/cases/{id}/upload", caseHandler.Upload).Methods("POST")

	agentHandler := handlers.NewAgentHandler(agentStore, marketplaceStore, resolver, cfg.API.DevMode, log)
	apiRouter.HandleFunc("/agents/marketplace", agentHandler.ListMarketplace).Methods("GET")
	apiRouter.HandleFunc("/agents/marketplace/seed", agentHandler.SeedMarketplace).Methods("POST")
	apiRouter.HandleFunc("/agents/match", agentHandler.Match).Methods("GET")
	apiRouter.HandleFunc("/agents", agentHandler.List).Methods("GET")
	apiRouter.HandleFunc("/agents", agentHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/agents/{id}", agentHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/agents/{id}", agentHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/agents/{id}", agentHandler.Delete).Methods("DELETE")

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server stopped", nil)
	return nil
}
