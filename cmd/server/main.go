package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"apdvault/internal/config"
	"apdvault/internal/domain/repositories"
	apdRepo "apdvault/internal/domain/repositories/apd"
	"apdvault/internal/handler"
	"apdvault/internal/middleware"
	"apdvault/internal/repository/memory"
	"apdvault/internal/repository/postgres"
	postgresAPD "apdvault/internal/repository/postgres/apd"
	apdSvc "apdvault/internal/service/apd"
	"apdvault/internal/service/versioncontrol"
	"apdvault/internal/template"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// repoSet bundles the persistence ports so the postgres and in-memory
// backends wire identically.
type repoSet struct {
	docs          apdRepo.DocumentRepository
	versions      apdRepo.VersionRepository
	workingCopies apdRepo.WorkingCopyRepository
	changes       apdRepo.FieldChangeRepository
	txManager     repositories.TransactionManager
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Wire the persistence backend. No DATABASE_URL means the in-memory
	// store, which is what the offline/desktop deployment runs on.
	var repos repoSet
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		repos = repoSet{
			docs:          postgresAPD.NewDocumentRepository(repoConfig),
			versions:      postgresAPD.NewVersionRepository(repoConfig),
			workingCopies: postgresAPD.NewWorkingCopyRepository(repoConfig),
			changes:       postgresAPD.NewFieldChangeRepository(repoConfig),
			txManager:     postgres.NewTransactionManager(pool),
		}
	} else {
		logger.Info("running on in-memory store")
		store := memory.NewStore()
		repos = repoSet{
			docs:          store.Documents(),
			versions:      store.Versions(),
			workingCopies: store.WorkingCopies(),
			changes:       store.FieldChanges(),
			txManager:     store.TxManager(),
		}
	}

	// Initialize template registry from the embedded scaffolds
	templateRegistry, err := template.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize template registry: %v", err)
	}
	logger.Info("template registry initialized", "types", templateRegistry.Types())

	// Create services
	engine := versioncontrol.NewService(
		repos.docs,
		repos.versions,
		repos.workingCopies,
		repos.changes,
		repos.txManager,
		versioncontrol.NewPositionalWordDiffer(),
		logger,
	)
	docService := apdSvc.NewDocumentService(repos.docs, engine, templateRegistry, logger)

	// Create handlers
	docHandler := handler.NewDocumentHandler(docService, logger)
	versionHandler := handler.NewVersionHandler(engine, logger)
	templateHandler := handler.NewTemplateHandler(templateRegistry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Working copy routes
	mux.HandleFunc("GET /api/documents/{id}/working-copy", versionHandler.GetWorkingCopy)
	mux.HandleFunc("PATCH /api/documents/{id}/working-copy", docHandler.UpdateSections)
	mux.HandleFunc("GET /api/documents/{id}/working-copy/highlights", versionHandler.GetPendingHighlights)

	// Version control routes
	mux.HandleFunc("POST /api/documents/{id}/versions", versionHandler.Commit)
	mux.HandleFunc("GET /api/documents/{id}/versions", versionHandler.History)
	mux.HandleFunc("GET /api/documents/{id}/compare", versionHandler.Compare)
	mux.HandleFunc("POST /api/documents/{id}/revert", versionHandler.Revert)
	mux.HandleFunc("POST /api/documents/{id}/branch", versionHandler.Branch)
	mux.HandleFunc("GET /api/versions/{id}", versionHandler.GetVersion)

	// Template routes
	mux.HandleFunc("GET /api/templates", templateHandler.ListTemplates)
	mux.HandleFunc("GET /api/templates/{type}", templateHandler.GetTemplate)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.Auth(cfg.AuthSecret)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
