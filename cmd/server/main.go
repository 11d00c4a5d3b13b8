package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/researchkit/deep-research-mcp/internal/agents"
	"github.com/researchkit/deep-research-mcp/internal/auth"
	"github.com/researchkit/deep-research-mcp/internal/config"
	"github.com/researchkit/deep-research-mcp/internal/httpapi"
	"github.com/researchkit/deep-research-mcp/internal/mcpserver"
	"github.com/researchkit/deep-research-mcp/internal/middleware"
	"github.com/researchkit/deep-research-mcp/internal/research"
	"github.com/researchkit/deep-research-mcp/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.ProjectEndpoint == "" {
		log.Fatal("PROJECT_ENDPOINT is required")
	}

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	reportStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	progress := store.NewProgressCache(rdb, store.DefaultProgressTTL)

	// ── MinIO ────────────────────────────────────────────────
	artifacts, err := store.NewArtifactStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── API keys ─────────────────────────────────────────────
	keys := auth.NewService(pgStore, rdb)
	if err := keys.Bootstrap(ctx); err != nil {
		log.Fatalf("api key bootstrap: %v", err)
	}

	// ── Research backend ─────────────────────────────────────
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		log.Fatalf("credential: %v", err)
	}
	backend := agents.NewClient(cfg.ProjectEndpoint, cred)

	svc := research.NewService(backend, research.Options{
		ModelDeployment:        cfg.ModelDeployment,
		DeepResearchDeployment: cfg.DeepResearchDeployment,
		BingConnectionName:     cfg.BingResourceName,
		PollInterval:           cfg.PollInterval,
		RunTimeout:             cfg.RunTimeout,
		Reports:                reportStore,
		Artifacts:              artifacts,
	})

	// ── Handlers ─────────────────────────────────────────────
	mcpSrv := mcpserver.New(svc, progress)
	apiHandler := httpapi.NewHandler(reportStore, artifacts, progress)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// MCP endpoint (the transport manages its own sessions)
	r.Handle("/mcp", mcpSrv.Handler())

	// Management API (protected)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(keys))
		r.Get("/reports", apiHandler.List)
		r.Get("/reports/{id}", apiHandler.Get)
		r.Get("/reports/{id}/markdown", apiHandler.DownloadMarkdown)
		r.Delete("/reports/{id}", apiHandler.Delete)
		r.Get("/jobs/{id}", apiHandler.JobStatus)
	})

	// ── Server ───────────────────────────────────────────────
	// Research runs take minutes; keep the write timeout generous.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 60 * time.Minute,
	}

	go func() {
		log.Printf("deep research server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
