package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
	"github.com/KonstantinBelenko/sexy-parrot/internal/generation"
	"github.com/KonstantinBelenko/sexy-parrot/internal/http/handlers"
	"github.com/KonstantinBelenko/sexy-parrot/internal/http/httpapi"
	"github.com/KonstantinBelenko/sexy-parrot/internal/infra"
	"github.com/KonstantinBelenko/sexy-parrot/internal/jobs"
	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/civitai"
	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/prompt"
	"github.com/KonstantinBelenko/sexy-parrot/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.CivitaiAPIToken == "" {
		logger.Warn().Msg("CIVITAI_API_TOKEN is not set, generation requests will fail")
	}
	if cfg.GroqAPIKey == "" {
		logger.Warn().Msg("GROQ_API_KEY is not set, prompts will be used without enhancement")
	}

	output, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize output store")
	}
	uploads, err := storage.NewFileStore(cfg.UploadsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize uploads store")
	}

	var jobStore jobs.Store
	switch cfg.JobsBackend {
	case "postgres":
		pg, err := jobs.NewPostgresStore(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect job database")
		}
		defer pg.Close()
		jobStore = pg
	default:
		mem, err := jobs.NewMemoryStore(cfg.JobsDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize job store")
		}
		jobStore = mem
	}

	cat := catalog.Default()

	groq := prompt.NewGroqEnhancer(prompt.Options{
		APIKey:  cfg.GroqAPIKey,
		Model:   cfg.GroqModel,
		BaseURL: cfg.GroqBaseURL,
		Catalog: cat,
		Logger:  logger,
	})
	enhancer := prompt.NewCachingService(groq, cfg.EnhancerCacheTTL)
	interpreter := prompt.NewInterpreter(groq)

	civitaiClient := civitai.NewClient(civitai.ClientOptions{
		Token:   cfg.CivitaiAPIToken,
		BaseURL: cfg.CivitaiBaseURL,
		Logger:  logger,
	})

	orchestrator := generation.NewOrchestrator(cat, enhancer, civitaiClient, output, logger)

	app := &handlers.App{
		Logger:       logger,
		Catalog:      cat,
		Orchestrator: orchestrator,
		Enhancer:     enhancer,
		Interpreter:  interpreter,
		Output:       output,
		Uploads:      uploads,
		Jobs:         jobStore,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
