package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shardgate/shardgate/internal/config"
	"github.com/shardgate/shardgate/internal/gateway"
	"github.com/shardgate/shardgate/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/bot.yaml", "path to config file")
	flag.Parse()

	// Optional .env file for ${VAR} substitution in the config
	_ = godotenv.Load()

	bootLog := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		bootLog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting gateway bot",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"shards", cfg.Bot.ShardCount,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	fleet, err := gateway.NewFleet(cfg.Bot.ShardCount, gatewayConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to build fleet", "error", err)
		os.Exit(1)
	}

	if err := fleet.Start(ctx); err != nil {
		logger.Error("failed to start fleet", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	fleet.Stop()
	logger.Info("shutdown complete")
}

// gatewayConfig maps the file-level configuration onto the gateway's
// runtime Config.
func gatewayConfig(cfg *config.BotConfig, logger *slog.Logger) gateway.Config {
	return gateway.Config{
		Token:              cfg.Bot.Token,
		Intents:            cfg.Bot.Intents,
		Presence:           presencePayload(cfg.Presence),
		GatewayURL:         cfg.Gateway.URL,
		HandshakeTimeout:   cfg.Gateway.HandshakeTimeout,
		WriteTimeout:       cfg.Gateway.WriteTimeout,
		ReconnectBaseDelay: cfg.Gateway.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Gateway.ReconnectMaxDelay,
		MaxDialAttempts:    cfg.Gateway.MaxDialAttempts,
		IdentifyInterval:   cfg.Gateway.IdentifyInterval,
		Logger:             logger,

		OnEvent: func(shardID int, event string, data json.RawMessage) {
			logger.Debug("dispatch event",
				"shard_id", shardID,
				"event", event,
				"bytes", len(data),
			)
		},
		OnDisconnect: func(shardID int) {
			logger.Warn("shard disconnected", "shard_id", shardID)
		},
		OnFatal: func(shardID int, err error) {
			logger.Error("shard failed permanently", "shard_id", shardID, "error", err)
		},
	}
}

func presencePayload(p config.PresenceSection) map[string]any {
	presence := map[string]any{
		"status": p.Status,
		"afk":    p.AFK,
		"since":  nil,
		"game":   nil,
	}
	if p.Game != "" {
		presence["game"] = map[string]any{"name": p.Game}
	}
	return presence
}

func newLogger(cfg config.LoggingSection) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
