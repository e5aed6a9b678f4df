package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/bot"
	"github.com/xaenox/dayflow/internal/email"
	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/server"
	"github.com/xaenox/dayflow/internal/storage"
	"github.com/xaenox/dayflow/internal/workflow"
	"github.com/xaenox/dayflow/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Local development convenience; secrets stay in the environment.
	_ = godotenv.Load()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		pg, err := storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
		if err := pg.Migrate(); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		store = pg
	}
	defer store.Close()

	// Initialize the LLM client; everything degrades to rules without it.
	var llmClient llm.Client
	if cfg.OpenAI.APIKey != "" {
		llmClient = llm.NewOpenAIClient(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			logger,
		)
	} else {
		logger.Warn("OPENAI_API_KEY not set; extractors run on rules only")
	}

	sessions := workflow.NewManager(llmClient, nil, logger)

	// Initialize the email pipeline when Gmail credentials are supplied.
	var pipeline *email.Pipeline
	if cfg.Gmail.CredentialsJSON != "" && cfg.Gmail.TokenJSON != "" {
		source, err := email.NewGmailSource(context.Background(),
			[]byte(cfg.Gmail.CredentialsJSON), []byte(cfg.Gmail.TokenJSON))
		if err != nil {
			logger.Fatal("Failed to initialize gmail source", zap.Error(err))
		}
		pipeline = email.NewPipeline(
			source,
			store,
			email.NewDetector(llmClient, logger),
			email.NewClassifier(store, logger, nil),
			logger,
			nil,
			cfg.Gmail.FetchCount,
		)
	} else {
		logger.Info("Gmail credentials not set; email scanning disabled")
	}

	// Start the Telegram surface when a token is supplied.
	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, store, sessions, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		go func() {
			if err := b.Start(); err != nil {
				logger.Error("Bot error", zap.Error(err))
			}
		}()
	}

	// Serve the REST API
	srv := server.New(store, sessions, pipeline, logger, nil)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := srv.Router().Run(addr); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
