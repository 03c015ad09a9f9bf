package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/duskline/narrator/internal/api"
	"github.com/duskline/narrator/internal/book"
	"github.com/duskline/narrator/internal/config"
	"github.com/duskline/narrator/internal/health"
	"github.com/duskline/narrator/internal/identity"
	"github.com/duskline/narrator/internal/job"
	"github.com/duskline/narrator/internal/orchestrator"
	"github.com/duskline/narrator/internal/packaging"
	"github.com/duskline/narrator/internal/provider"
	"github.com/duskline/narrator/internal/storage"
	"github.com/duskline/narrator/pkg/types"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting narrator server v%s", version)
	log.Printf("Configuration loaded from: %s", *configPath)

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer storageAdapter.Close()
	log.Printf("Storage adapter initialized: %s", cfg.Storage.Adapter)

	providerRegistry := provider.NewRegistry()
	if err := providerRegistry.InitializeProviders(cfg.TTS); err != nil {
		log.Fatalf("Failed to initialize TTS provider: %v", err)
	}
	defer providerRegistry.Close()
	log.Printf("TTS providers initialized: %v", providerRegistry.ListTTS())

	jobRegistry := job.NewRegistry()
	bookRegistry := book.NewRegistry()
	packagingService := packaging.NewService(storageAdapter)

	uploadRoot := cfg.Storage.Local.BasePath
	orch := orchestrator.New(cfg.Pipeline, uploadRoot, jobRegistry, bookRegistry, providerRegistry, packagingService, storageAdapter)
	log.Printf("Orchestrator initialized with %d concurrent chapter workers", cfg.Pipeline.MaxConcurrentChapterWorkers)

	// Anonymous admits every request as a non-premium, unowned identity.
	// A deployment with a real identity provider replaces this with one
	// that resolves the Authorization header against its own user store.
	identityProvider := identity.Anonymous

	handler := api.NewHandler(orch, jobRegistry, bookRegistry, identityProvider, uploadRoot)

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", func(ctx context.Context) (health.Status, error) {
		if _, err := storageAdapter.Exists(ctx, ".healthcheck"); err != nil {
			return health.StatusUnhealthy, err
		}
		return health.StatusHealthy, nil
	})
	healthHandler.Register("tts_provider", func(ctx context.Context) (health.Status, error) {
		if len(providerRegistry.ListTTS()) == 0 {
			return health.StatusUnhealthy, fmt.Errorf("no TTS provider registered")
		}
		return health.StatusHealthy, nil
	})

	mux := http.NewServeMux()

	mux.HandleFunc("/health/live", healthHandler.LivenessHandler())
	mux.HandleFunc("/health/ready", healthHandler.ReadinessHandler())
	mux.HandleFunc("/health", healthHandler.HealthHandler())

	mux.HandleFunc("/api/v1/info", infoHandler(version, cfg))
	mux.HandleFunc("/api/v1/convert", handler.ConvertSingle)
	mux.HandleFunc("/api/v1/books", handler.Analyze)
	mux.HandleFunc("/api/v1/books/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/convert-all"):
			handler.ConvertAll(w, r)
		case strings.HasSuffix(path, "/convert") && strings.Contains(path, "/chapters/"):
			handler.ConvertChapter(w, r)
		default:
			handler.GetBook(w, r)
		}
	})
	mux.HandleFunc("/api/v1/jobs/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/stream"):
			handler.StreamProgress(w, r)
		case strings.HasSuffix(path, "/download"):
			handler.DownloadJob(w, r)
		case strings.HasSuffix(path, "/cancel"):
			handler.CancelJob(w, r)
		default:
			handler.GetJob(w, r)
		}
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func infoHandler(version string, cfg *types.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":"%s","storage_adapter":"%s"}`, version, cfg.Storage.Adapter)
	}
}
