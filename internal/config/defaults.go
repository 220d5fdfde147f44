package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGatewayURL         = "wss://gateway.discord.gg/?v=10&encoding=json"
	DefaultShardCount         = 1
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultMaxDialAttempts    = 5
	DefaultIdentifyInterval   = 5 * time.Second
	DefaultPresenceStatus     = "online"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *BotConfig) applyDefaults() {
	if c.Bot.ShardCount == 0 {
		c.Bot.ShardCount = DefaultShardCount
	}

	// Gateway defaults
	if c.Gateway.URL == "" {
		c.Gateway.URL = DefaultGatewayURL
	}
	if c.Gateway.HandshakeTimeout == 0 {
		c.Gateway.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if c.Gateway.ReconnectBaseDelay == 0 {
		c.Gateway.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Gateway.ReconnectMaxDelay == 0 {
		c.Gateway.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Gateway.MaxDialAttempts == 0 {
		c.Gateway.MaxDialAttempts = DefaultMaxDialAttempts
	}
	if c.Gateway.IdentifyInterval == 0 {
		c.Gateway.IdentifyInterval = DefaultIdentifyInterval
	}

	// Presence defaults
	if c.Presence.Status == "" {
		c.Presence.Status = DefaultPresenceStatus
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
