package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/app"
	"github.com/usherbot/usher/internal/config"
	"github.com/usherbot/usher/internal/domain"
	"github.com/usherbot/usher/internal/router"
	"github.com/usherbot/usher/internal/schema"
	"github.com/usherbot/usher/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Usher starting...",
		zap.String("prefix", cfg.Bot.Prefix),
		zap.String("log_level", cfg.Logging.Level),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}

	registerCommands(container)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := container.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	logger.Info("Bot started, waiting for signals...")

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("Bot error", zap.Error(err))
	}

	logger.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// registerCommands declares the built-in command set. Applications embedding
// the router register their own here instead.
func registerCommands(c *app.Container) {
	r := c.Router

	r.Reply("ping", "Pong!", router.WithDescription("health check"))

	r.Cmd("echo :text", func(ctx context.Context, mc *domain.Context) (any, error) {
		return mc.Params["text"], nil
	}, router.WithDescription("repeat a message"),
		router.WithArgs(schema.Object(schema.F("text", schema.String()))))

	r.Cmd("hi :name", func(ctx context.Context, mc *domain.Context) (any, error) {
		return fmt.Sprintf("Hello %s", mc.Params["name"]), nil
	}, router.WithArgs(schema.Object(
		schema.F("name", schema.Default(schema.String(), "world!")),
	)))
}
