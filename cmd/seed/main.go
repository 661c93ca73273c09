package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"apdvault/internal/config"
	"apdvault/internal/domain/models/apd"
	"apdvault/internal/repository/postgres"
	postgresAPD "apdvault/internal/repository/postgres/apd"
	apdSvc "apdvault/internal/service/apd"
	"apdvault/internal/service/versioncontrol"
	"apdvault/internal/template"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: Cannot run --drop-tables in production environment")
	}

	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required (the in-memory store needs no seeding)")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Preparing database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgresAPD.NewDocumentRepository(repoConfig)
	versionRepo := postgresAPD.NewVersionRepository(repoConfig)
	wcRepo := postgresAPD.NewWorkingCopyRepository(repoConfig)
	changeRepo := postgresAPD.NewFieldChangeRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	templateRegistry, err := template.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize template registry: %v", err)
	}
	engine := versioncontrol.NewService(
		docRepo,
		versionRepo,
		wcRepo,
		changeRepo,
		txManager,
		versioncontrol.NewPositionalWordDiffer(),
		logger,
	)
	docService := apdSvc.NewDocumentService(docRepo, engine, templateRegistry, logger)

	// Seed one scaffolded document per template type, each with an initial
	// edit committed as v1.0 so the UI has history to show.
	log.Println("Seeding sample documents...")
	for _, docType := range templateRegistry.Types() {
		doc, err := docService.CreateDocument(ctx, &apdSvc.CreateDocumentRequest{
			DocumentType: docType,
			Metadata: map[string]string{
				"state":  "Example State",
				"agency": "Department of Health Services",
			},
		})
		if err != nil {
			log.Printf("Failed to create %s document: %v", docType, err)
			continue
		}

		if _, err := docService.UpdateSections(ctx, doc.ID, &apdSvc.UpdateSectionsRequest{
			Sections: seedSections(doc),
		}); err != nil {
			log.Printf("Failed to edit %s document: %v", docType, err)
			continue
		}

		version, err := engine.Commit(ctx, doc.ID, "Initial draft", "seed")
		if err != nil {
			log.Printf("Failed to commit %s document: %v", docType, err)
			continue
		}

		log.Printf("Created %s document %s at %s", docType, doc.ID, version.VersionNumber)
	}

	log.Println("Seeding complete")
}

// seedSections fills in the executive summary so the seeded document has a
// real pending change to commit.
func seedSections(doc *apd.Document) map[string]apd.Section {
	section, ok := doc.Sections["exec-summary"]
	if !ok {
		// Take any section; templates always have at least one.
		for _, s := range doc.Sections {
			section = s
			break
		}
	}
	section = section.Clone()
	section.Content["overview"] = apd.String("This planning document describes the proposed system enhancements and their funding request.")
	return map[string]apd.Section{section.SectionID: section}
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY,
			document_type TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			sections JSONB NOT NULL DEFAULT '{}',
			current_version_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createVersions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Versions + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version_number TEXT NOT NULL,
			commit_message TEXT NOT NULL,
			author TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			sections JSONB NOT NULL DEFAULT '{}',
			changes JSONB NOT NULL DEFAULT '[]',
			parent_version_id UUID
		)
	`
	if _, err := pool.Exec(ctx, createVersions); err != nil {
		return err
	}

	createWorkingCopies := `
		CREATE TABLE IF NOT EXISTS ` + tables.WorkingCopies + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL UNIQUE REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			base_version_id UUID,
			sections JSONB NOT NULL DEFAULT '{}',
			changes JSONB NOT NULL DEFAULT '[]',
			last_modified TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			has_uncommitted_changes BOOLEAN NOT NULL DEFAULT FALSE
		)
	`
	if _, err := pool.Exec(ctx, createWorkingCopies); err != nil {
		return err
	}

	createFieldChanges := `
		CREATE TABLE IF NOT EXISTS ` + tables.FieldChanges + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			field_path TEXT NOT NULL,
			field_label TEXT NOT NULL,
			old_value JSONB,
			new_value JSONB,
			change_type TEXT NOT NULL,
			section_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFieldChanges); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `apd_versions_document ON ` + tables.Versions + `(document_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `apd_field_changes_document ON ` + tables.FieldChanges + `(document_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `apd_documents_updated ON ` + tables.Documents + `(updated_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.FieldChanges,
		tables.WorkingCopies,
		tables.Versions,
		tables.Documents,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}
