// Package main is the entry point for the agent HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/frameiq/agent-server/internal/agent/graph"
	"github.com/frameiq/agent-server/internal/agent/model"
	"github.com/frameiq/agent-server/internal/agent/repo"
	"github.com/frameiq/agent-server/internal/core"
	"github.com/frameiq/agent-server/internal/memory"
	"github.com/frameiq/agent-server/internal/ratelimit"
	"github.com/frameiq/agent-server/internal/server"
	"github.com/frameiq/agent-server/internal/service"
	"github.com/frameiq/agent-server/internal/similarity"
	"github.com/frameiq/agent-server/internal/tmdb"
	logx "github.com/frameiq/agent-server/pkg/logger"
	pkgredis "github.com/frameiq/agent-server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	HTTP  server.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Supervisor   model.SupervisorModelConfig
	Retriever    model.RetrieverModelConfig
	Chat         model.ChatModelConfig
	Extraction   model.ExtractionModelConfig
	Conversation model.ConversationConfig
	RateLimit    model.RateLimitConfig

	// Metadata lookups
	TMDB tmdb.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})
	logx.Info().Str("environment", env.String()).Msg("Starting agent server")

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Str("ttl", cfg.Conversation.TTL).Err(err).Msg("Invalid SESSION_TTL")
	}

	metadata := tmdb.NewClient(cfg.TMDB)
	index := similarity.NewIndex(similarity.Catalog)

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		Supervisor:       cfg.Supervisor,
		Retriever:        cfg.Retriever,
		Chat:             cfg.Chat,
		Extraction:       cfg.Extraction,
		Conversation:     cfg.Conversation,
		ConversationRepo: repo.NewRedisConversationRepository(rdb, ttl),
		Similarity:       index,
		Metadata:         metadata,
		Posters:          metadata,
		RecentWindow:     metadata.RecentWindow(),
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build turn graph")
	}

	svc := service.NewTurnService(
		runner,
		ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb), cfg.RateLimit),
		memory.NewRedisStore(rdb, ttl),
		repo.NewRedisConversationRepository(rdb, ttl),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      server.NewRouter(cfg.HTTP, svc),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info().Str("port", cfg.HTTP.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Server forced to shutdown")
	}

	logx.Info().Msg("Server stopped")
}
