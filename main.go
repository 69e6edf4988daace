package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/adapter/llm"
	"github.com/lexcouncil/lexcouncil/internal/agents"
	"github.com/lexcouncil/lexcouncil/internal/config"
	"github.com/lexcouncil/lexcouncil/internal/hub"
	"github.com/lexcouncil/lexcouncil/internal/policy"
	"github.com/lexcouncil/lexcouncil/internal/service"
	"github.com/lexcouncil/lexcouncil/internal/store"
	"github.com/lexcouncil/lexcouncil/internal/tools"
	transport "github.com/lexcouncil/lexcouncil/internal/transport/http"
	"github.com/lexcouncil/lexcouncil/internal/validity"
	"github.com/lexcouncil/lexcouncil/internal/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Int("http_port", cfg.HTTPPort).Str("database", cfg.DatabaseURL).Msg("starting lexcouncil")

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize model client
	modelClient, err := llm.NewModelClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model client")
	}

	// Initialize capability registry
	registry := tools.NewRegistry()
	ragflow := tools.NewRagFlowClient(cfg.RagFlowBaseURL, cfg.RagFlowAPIKey, cfg.KnowledgeIDs(), cfg.ToolTimeout)
	registry.MustRegister(ragflow.Spec(), ragflow.Executor())
	searcher := tools.NewValiditySearcher("", cfg.ToolTimeout)
	registry.MustRegister(searcher.Spec(), searcher.Executor())

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	// Initialize workflow
	eventHub := hub.NewHub()
	go eventHub.Run()

	deps := agents.Deps{Client: modelClient, Registry: registry, Policy: policyEngine}
	wf := workflow.New(deps, workflow.Options{
		ResearchMaxMessages:  cfg.ResearchMaxMessages,
		SynthesisMaxMessages: cfg.SynthesisMaxMessages,
		IncludeSearcher:      cfg.EnableWebVerify,
	}, db, eventHub, validity.NewChecker(searcher))

	// Initialize service and HTTP server
	svc := service.New(db, wf)
	server := transport.NewServer(svc, eventHub)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.HTTPPort).Msg("API started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	// Stop active runs before closing the server
	svc.Shutdown(5 * time.Second)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
	}

	log.Info().Msg("stopped")
}
