package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"autofix-api/internal/client"
	"autofix-api/internal/config"
	"autofix-api/internal/corpus"
	"autofix-api/internal/database"
	"autofix-api/internal/handler"
	"autofix-api/internal/orchestrator"
	"autofix-api/internal/pricing"
	"autofix-api/internal/provider"
	"autofix-api/internal/report"
	"autofix-api/internal/repository"
	"autofix-api/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("starting autofix-api")

	cfg := config.Load()

	table, err := pricing.Load()
	if err != nil {
		slog.Error("invalid baseline pricing table", "error", err)
		os.Exit(1)
	}
	slog.Info("baseline pricing loaded", "version", table.Version, "parts", len(table.Parts))

	slog.Info("connecting to database", "host", cfg.Database.Host, "database", cfg.Database.Name)
	ctx := context.Background()
	db, err := database.Connect(ctx, database.ConnectionConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	reportRepo := repository.NewReportRepository(db)

	renderer, err := report.NewFileRenderer(cfg.ReportsDir, logger)
	if err != nil {
		slog.Error("failed to prepare reports directory", "error", err)
		os.Exit(1)
	}

	docs := corpus.NewStore(renderer.Dir(), table, logger)
	if err := docs.Reindex(); err != nil {
		slog.Warn("initial corpus reindex failed", "error", err)
	}
	docs.StartReindexer(cfg.CorpusReindexInterval)
	defer docs.Stop()

	// Orchestrators
	limiter := provider.NewRateLimiter(float64(cfg.Provider.RequestsPerMinute))
	pc := cfg.Provider

	remote := []provider.Provider{
		provider.NewOllama(pc.OllamaBaseURL, pc.OllamaModel, pc.AttemptTimeout, pc.OllamaProbe, logger),
		provider.NewDeepseek(pc.DeepseekAPIKey, pc.DeepseekModel, pc.AttemptTimeout, pc.DeepseekRetries, limiter, logger),
		provider.NewGemini(pc.GeminiAPIKey, pc.GeminiModel, pc.AttemptTimeout, logger),
		provider.NewOpenAI(pc.OpenAIAPIKey, pc.OpenAIModel, "", pc.AttemptTimeout, pc.TransportRetries, limiter, logger),
		provider.NewHuggingFace(pc.HuggingFaceAPIKey, pc.HuggingFaceModel, pc.AttemptTimeout, logger),
	}

	estimateChain := append(append([]provider.Provider{}, remote...),
		provider.NewLocalHeuristic(table, logger))
	chatChain := append(append([]provider.Provider{}, remote...),
		provider.NewKeywordRetrieval(4, logger))

	estimateOrch, err := orchestrator.New(estimateChain, orchestrator.Options{
		Preferred:      pc.Preferred,
		AttemptTimeout: pc.AttemptTimeout,
		Validate:       service.ValidateCostJSON,
	}, logger)
	if err != nil {
		slog.Error("failed to build estimation chain", "error", err)
		os.Exit(1)
	}

	chatOrch, err := orchestrator.New(chatChain, orchestrator.Options{
		Preferred:      pc.Preferred,
		AttemptTimeout: pc.AttemptTimeout,
	}, logger)
	if err != nil {
		slog.Error("failed to build chat chain", "error", err)
		os.Exit(1)
	}

	// Services
	estimateSvc := service.NewEstimateService(estimateOrch, table, renderer, reportRepo, docs, logger)
	chatSvc := service.NewChatService(chatOrch, docs, logger)

	detector := client.NewDetector(cfg.DetectAPIURL, pc.AttemptTimeout, logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	estimateHandler := handler.NewEstimateHandler(estimateSvc, logger)
	chatHandler := handler.NewChatHandler(chatSvc, logger)
	historyHandler := handler.NewHistoryHandler(reportRepo, logger)
	detectHandler := handler.NewDetectHandler(detector, cfg.UploadsDir, logger)
	uploadHandler, err := handler.NewUploadHandler(cfg.UploadsDir, logger)
	if err != nil {
		slog.Error("failed to prepare uploads directory", "error", err)
		os.Exit(1)
	}

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Routes
	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Post("/estimate", estimateHandler.Estimate)
		r.Post("/chat", chatHandler.Chat)
		r.Post("/upload", uploadHandler.Upload)
		r.Post("/upload/audio", uploadHandler.UploadAudio)
		r.Post("/detect", detectHandler.Detect)
		r.Post("/audio", detectHandler.Audio)

		r.Get("/history", historyHandler.List)
		r.Get("/history/download/{id}", historyHandler.Download)
		r.Get("/history/{id}", historyHandler.Get)
		// legacy alias for clients that build the URL from the id
		r.Get("/history/{id}/download", historyHandler.Download)
		r.Delete("/history/{id}", historyHandler.Delete)
	})

	// Server
	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("server started", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}

	slog.Info("server stopped")
}
