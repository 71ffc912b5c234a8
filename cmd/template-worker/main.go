package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/dago-node-template/internal/config"
	"github.com/aescanero/dago-node-template/internal/eval/cel"
	"github.com/aescanero/dago-node-template/internal/eval/handlebars"
	"github.com/aescanero/dago-node-template/internal/eval/mustache"
	"github.com/aescanero/dago-node-template/internal/renderer"
	"github.com/aescanero/dago-node-template/internal/script"
	"github.com/aescanero/dago-node-template/internal/worker"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting template worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	scripts, evaluator, err := initScripts(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize scripts", zap.Error(err))
	}
	logger.Info("script service initialized",
		zap.Strings("langs", scripts.Langs()),
		zap.Int("stored_scripts", scripts.Catalog().Len()),
	)

	// Initialize state store (Redis JSON implementation)
	var stateStore ports.StateStorage = NewRedisStateStore(redisClient, logger)

	rendererInstance := renderer.NewRenderer(scripts, evaluator, cfg.DefaultLang, logger)

	w := worker.NewWorker(cfg, redisClient, rendererInstance, stateStore, logger)
	if err := w.Start(); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, logger)
	healthServer.AddCheck("scripts", func(context.Context) error {
		_, err := scripts.Run(script.Script{Lang: script.LangMustache, Source: "{{ok}}"}, map[string]interface{}{"ok": true})
		return err
	})
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("template worker running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	if err := w.Stop(); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis connection", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	default:
		logger.Info("worker stopped gracefully")
	}
}

// initScripts builds the script service with every engine the config
// enables. The returned evaluator is nil when CEL is disabled.
func initScripts(cfg *config.Config, logger *zap.Logger) (*script.Service, *cel.Evaluator, error) {
	var catalog *script.Catalog
	if cfg.TemplatesFile != "" {
		var err error
		catalog, err = script.LoadCatalog(cfg.TemplatesFile)
		if err != nil {
			return nil, nil, err
		}
	}

	scripts := script.NewService(cfg.ScriptCacheSize, cfg.DefaultLang, catalog, logger)
	scripts.Register(script.NewMustacheEngine(mustache.NewEngine(logger)))
	scripts.Register(script.NewHandlebarsEngine(handlebars.NewEngine(logger)))

	var evaluator *cel.Evaluator
	if cfg.CELEnabled {
		evaluator = cel.NewEvaluator()
		scripts.Register(script.NewExpressionEngine(evaluator))
	}

	return scripts, evaluator, nil
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
