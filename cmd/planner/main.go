package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/crypto_take_profit/internal/domain"
	"github.com/vitos/crypto_take_profit/internal/infrastructure/logger"
	"github.com/vitos/crypto_take_profit/internal/infrastructure/storage"
	"github.com/vitos/crypto_take_profit/internal/usecase"
	"github.com/vitos/crypto_take_profit/internal/web"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// 1. Load Config (.env may set PLANNER_CONFIG, so it goes first)
	_ = godotenv.Load()
	cfg, err := loadConfig(configPath())
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	formLog := log.Named("form")
	if cfg.Logging.AuditFile != "" {
		audit, err := logger.NewFileLogger(cfg.Logging.AuditFile, "info")
		if err != nil {
			log.Fatal("Failed to open audit log", zap.Error(err), zap.String("path", cfg.Logging.AuditFile))
		}
		defer audit.Sync()
		formLog = zap.New(zapcore.NewTee(log.Core(), audit.Core())).Named("form")
	}

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Form
	pair := domain.Pair{Base: cfg.Market.BaseCurrency, Quote: cfg.Market.QuoteCurrency}
	engine := usecase.NewProfitTargetsEngine(usecase.WithMaxTargets(cfg.TakeProfit.MaxTargets))
	form := usecase.NewOrderForm(pair, engine, store, formLog)

	// 5. Start Web Server
	server := web.NewServer(cfg.Server.Port, form, store, log.Named("web"))
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()
	log.Info("Planner started",
		zap.String("pair", pair.String()),
		zap.Int("port", cfg.Server.Port),
		zap.Int("max_targets", cfg.TakeProfit.MaxTargets))

	// 6. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
