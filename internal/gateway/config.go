package gateway

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shardgate/shardgate/internal/transport"
	wsadapter "github.com/shardgate/shardgate/internal/transport/websocket"
)

// Default tuning. The bucket quotas and the network-loss delay are
// protocol constants, not knobs.
const (
	DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultMaxDialAttempts    = 5
	DefaultIdentifyInterval   = 5 * time.Second

	globalBucketLimit   = 120
	presenceBucketLimit = 5
	bucketWindow        = 60 * time.Second

	networkLossDelay = 10 * time.Second
	largeThreshold   = 250
)

// Dispatch event names the shard itself reacts to.
const (
	eventReady   = "READY"
	eventResumed = "RESUMED"
)

// Config carries everything a shard reads from its owner: credentials,
// capability flags, presence, event callbacks, and tuning. There is no
// global client object; each shard gets an explicit reference at
// construction and treats it as read-only.
type Config struct {
	// Token authenticates the fleet. Required.
	Token string

	// Intents is the capability-flag bitmask sent with identify.
	Intents int

	// Presence, if set, is included in the identify payload and can be
	// pushed later via UpdatePresence.
	Presence map[string]any

	// GatewayURL is the initial connection URL. The server may hand a
	// shard a different URL for resumption.
	GatewayURL string

	HandshakeTimeout   time.Duration
	WriteTimeout       time.Duration
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration

	// MaxDialAttempts bounds consecutive failed dials before the shard
	// gives up and stops. Zero means retry forever.
	MaxDialAttempts int

	// IdentifyInterval spaces identify handshakes across the fleet.
	IdentifyInterval time.Duration

	// OnEvent receives every dispatch event with its decoded name and
	// raw payload. The shard does not interpret event semantics.
	OnEvent func(shardID int, event string, data json.RawMessage)

	// OnDisconnect fires when a shard loses its connection and begins
	// recovery.
	OnDisconnect func(shardID int)

	// OnFatal fires when a shard hits a non-recoverable failure and
	// stops.
	OnFatal func(shardID int, err error)

	// NewAdapter selects the transport backend. Defaults to the
	// gorilla/websocket adapter.
	NewAdapter func(h transport.Handler) transport.Adapter

	Logger *slog.Logger
}

// withDefaults fills unset fields in place.
func (c *Config) withDefaults() {
	if c.GatewayURL == "" {
		c.GatewayURL = DefaultGatewayURL
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.IdentifyInterval == 0 {
		c.IdentifyInterval = DefaultIdentifyInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NewAdapter == nil {
		wcfg := wsadapter.Config{
			HandshakeTimeout: c.HandshakeTimeout,
			WriteTimeout:     c.WriteTimeout,
		}
		logger := c.Logger
		c.NewAdapter = func(h transport.Handler) transport.Adapter {
			return wsadapter.New(wcfg, h, logger)
		}
	}
}

// backoffDelay returns the wait before dial attempt n (1-based),
// doubling from base up to max.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
