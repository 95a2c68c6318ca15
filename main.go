package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/config"
	"github.com/optiflow-ai/optiflow-engine/pkg/handlers"
	"github.com/optiflow-ai/optiflow-engine/pkg/ingest"
	"github.com/optiflow-ai/optiflow-engine/pkg/llm"
	"github.com/optiflow-ai/optiflow-engine/pkg/middleware"
	"github.com/optiflow-ai/optiflow-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("credential_present", cfg.LLM.IsConfigured()))

	provider, err := llm.NewProvider(cfg.LLM.Provider, &llm.ProviderConfig{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create completion provider", zap.Error(err))
	}

	// The conversation engine talks to the provider through the proxy
	// contract, same as any external client would.
	chatClient, err := llm.NewClient(&llm.Config{
		Endpoint:    cfg.BaseURL + "/api/chat",
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create chat client", zap.Error(err))
	}

	session := services.NewSession(chatClient, logger)
	ingestor := ingest.NewIngestor(ingest.Options{
		MaxSizeBytes:   cfg.Upload.MaxSizeBytes,
		MaxPreviewRows: cfg.Upload.MaxPreviewRows,
	}, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(provider, cfg, logger).RegisterRoutes(mux)
	handlers.NewUploadHandler(ingestor, session, logger).RegisterRoutes(mux)
	handlers.NewConversationHandler(session, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(session.Registry, logger).RegisterRoutes(mux)

	handler := middleware.CORS(cfg.AllowedOrigin)(middleware.RequestLogger(logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting optiflow-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a development logger for local environments and a
// production logger otherwise.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
