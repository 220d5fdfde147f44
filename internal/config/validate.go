package config

import (
	"errors"
	"fmt"
	"strings"
)

var validStatuses = map[string]bool{
	"online":    true,
	"idle":      true,
	"dnd":       true,
	"invisible": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *BotConfig) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Bot.Intents < 0 {
		return errors.New("bot.intents must be >= 0")
	}
	if c.Bot.ShardCount < 1 {
		return errors.New("bot.shard_count must be >= 1")
	}

	if !strings.HasPrefix(c.Gateway.URL, "wss://") && !strings.HasPrefix(c.Gateway.URL, "ws://") {
		return fmt.Errorf("gateway.url must be a ws:// or wss:// URL, got %q", c.Gateway.URL)
	}
	if c.Gateway.ReconnectBaseDelay > c.Gateway.ReconnectMaxDelay {
		return errors.New("gateway.reconnect_base_delay must not exceed gateway.reconnect_max_delay")
	}
	if c.Gateway.MaxDialAttempts < 0 {
		return errors.New("gateway.max_dial_attempts must be >= 0")
	}

	if !validStatuses[c.Presence.Status] {
		return fmt.Errorf("presence.status must be one of online, idle, dnd, invisible, got %q", c.Presence.Status)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}
