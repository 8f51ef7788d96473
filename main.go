package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/divin3circle/hashrexa/api"
	"github.com/divin3circle/hashrexa/chat"
	"github.com/divin3circle/hashrexa/config"
	"github.com/divin3circle/hashrexa/hedera"
	"github.com/divin3circle/hashrexa/lending"
	"github.com/divin3circle/hashrexa/llm"
	"github.com/divin3circle/hashrexa/policy"
	"github.com/divin3circle/hashrexa/store"
	"github.com/divin3circle/hashrexa/tools"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting assistant",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("backend_url", cfg.BackendBaseURL),
		zap.String("llm_model", cfg.LLMModel))

	// Ledger client
	ledgerClient, err := hedera.NewTestnetClient(cfg.OperatorAccountID, cfg.OperatorPrivateKey)
	if err != nil {
		logger.Fatal("failed to initialize ledger client", zap.Error(err))
	}
	gateway := hedera.NewService(ledgerClient, logger)

	// Audit store
	audit, err := store.NewAuditStore(cfg.AuditDBPath)
	if err != nil {
		logger.Fatal("failed to initialize audit store", zap.Error(err))
	}
	defer audit.Close()

	// Policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	// Lending backend and portfolio aggregator
	backend := lending.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	portfolio := lending.NewPortfolioService(backend, logger)

	// Tool registry
	registry := tools.NewRegistry(policyEngine, audit, logger)
	registry.Register(tools.BlockchainTools(gateway, logger)...)
	registry.Register(tools.LoanTools(portfolio, logger)...)

	// Completion engine
	engine := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Conversational state
	var history chat.HistoryStore
	if cfg.RedisAddr != "" {
		logger.Info("using redis history store", zap.String("addr", cfg.RedisAddr))
		history = chat.NewRedisStore(cfg.RedisAddr, logger)
	} else {
		history = chat.NewMemoryStore()
	}

	assistant := chat.NewLoanAssistant(engine, history, cfg.LLMModel, logger)
	orchestrator := chat.NewOrchestrator(engine, registry, assistant, cfg.LLMModel, logger)

	h := api.NewHandler(orchestrator, assistant, gateway, portfolio, audit, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	h.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	logger.Info("assistant started", zap.Int("port", cfg.HTTPPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
