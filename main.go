package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/deliveryagent/internal/adapter/llm"
	"github.com/xiaot623/gogo/deliveryagent/internal/config"
	"github.com/xiaot623/gogo/deliveryagent/internal/delivery"
	"github.com/xiaot623/gogo/deliveryagent/internal/intent"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/internal/repository"
	"github.com/xiaot623/gogo/deliveryagent/internal/service"
	"github.com/xiaot623/gogo/deliveryagent/internal/tools"
	handler "github.com/xiaot623/gogo/deliveryagent/internal/transport/http"
	"github.com/xiaot623/gogo/deliveryagent/internal/transport/rpc"
	"github.com/xiaot623/gogo/deliveryagent/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.Info().
		Int("http_port", cfg.HTTPPort).
		Int("rpc_port", cfg.RPCPort).
		Str("store", cfg.StoreDriver).
		Str("classifier", cfg.Classifier).
		Str("senpex_api_base", cfg.SenpexAPIBase).
		Bool("credentials", cfg.HasCredentials()).
		Msg("starting delivery agent")
	if !cfg.HasCredentials() {
		logger.Warn().Msg("SENPEX_CLIENT_ID/SENPEX_SECRET_ID not set, delivery tools will report missing credentials")
	}

	metrics := observability.NewMetrics()

	// Initialize store
	db, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize delivery client and tool registry
	client := delivery.NewClient(delivery.Config{
		BaseURL:  cfg.SenpexAPIBase,
		ClientID: cfg.SenpexClientID,
		SecretID: cfg.SenpexSecretID,
		Country:  cfg.SenpexCountry,
		Timeout:  cfg.DeliveryTimeout,
	})
	registry := tools.NewDeliveryRegistry(client, tools.WithLogger(logger), tools.WithMetrics(metrics))

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		logger.Fatal().Err(err).Str("policy_file", cfg.PolicyFile).Msg("failed to initialize policy engine")
	}

	// Initialize service
	svc := service.New(db, registry, newClassifier(cfg, registry, logger), intent.NewExtractor(), service.Options{
		Logger:         logger,
		Metrics:        metrics,
		Policy:         policyEngine,
		SessionIdleTTL: cfg.SessionIdleTTL,
	})

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go svc.RunSessionSweeper(sweepCtx)

	// Start HTTP server
	server := handler.NewServer(svc, metrics, logger)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start http server")
		}
	}()
	logger.Info().Int("port", cfg.HTTPPort).Msg("http api started")

	// Start RPC server
	var rpcServer *rpc.Server
	if cfg.RPCPort > 0 {
		rpcServer, err = rpc.NewServer(svc, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize rpc server")
		}
		go func() {
			addr := fmt.Sprintf(":%d", cfg.RPCPort)
			if err := rpcServer.Start(addr); err != nil {
				logger.Fatal().Err(err).Msg("failed to start rpc server")
			}
		}()
		logger.Info().Int("port", cfg.RPCPort).Msg("rpc api started")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down delivery agent")
	stopSweeper()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown http server gracefully")
	}
	if rpcServer != nil {
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown rpc server gracefully")
		}
	}

	logger.Info().Msg("delivery agent stopped")
}

func openStore(cfg *config.Config) (repository.Store, error) {
	opts := repository.Options{MaxToolLogEntries: cfg.ToolLogMaxEntries}
	if cfg.StoreDriver == config.StoreSQLite {
		return repository.NewSQLiteStore(cfg.DatabaseURL, opts)
	}
	return repository.NewMemoryStore(opts), nil
}

func newClassifier(cfg *config.Config, registry *tools.Registry, logger zerolog.Logger) intent.Classifier {
	rules := intent.NewRuleClassifier()
	if cfg.Classifier != config.ClassifierLLM {
		return rules
	}
	chat := llm.NewLLMClient(cfg.LLMMode, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.DeliveryTimeout, logger)
	return intent.NewLLMClassifier(chat, cfg.OpenAIModel, registry.Names(), rules, logger)
}
