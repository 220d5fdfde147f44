package config

import "time"

// BotConfig is the root configuration for a gateway bot process.
type BotConfig struct {
	Bot      BotSection      `yaml:"bot"`
	Gateway  GatewaySection  `yaml:"gateway"`
	Presence PresenceSection `yaml:"presence"`
	Logging  LoggingSection  `yaml:"logging"`
}

// BotSection identifies the bot and how it shards.
type BotSection struct {
	Token      string `yaml:"token"`
	Intents    int    `yaml:"intents"`
	ShardCount int    `yaml:"shard_count"`
}

// GatewaySection holds connection and recovery tuning.
type GatewaySection struct {
	URL                string        `yaml:"url"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	MaxDialAttempts    int           `yaml:"max_dial_attempts"`
	IdentifyInterval   time.Duration `yaml:"identify_interval"`
}

// PresenceSection is the initial presence sent with identify.
type PresenceSection struct {
	Status string `yaml:"status"`
	Game   string `yaml:"game"`
	AFK    bool   `yaml:"afk"`
}

// LoggingSection holds log output settings.
type LoggingSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
