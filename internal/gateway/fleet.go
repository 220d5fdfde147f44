package gateway

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shardgate/shardgate/internal/ratelimit"
)

// Fleet runs shardCount shards against one token. Shards are fully
// independent at runtime; the only thing they share is the read-only
// Config and the identify limiter.
type Fleet struct {
	cfg    *Config
	logger *slog.Logger
	shards []*Shard
}

// NewFleet creates shardCount shards sharing cfg.
func NewFleet(shardCount int, cfg Config) (*Fleet, error) {
	if cfg.Token == "" {
		return nil, errors.New("token is required")
	}
	if shardCount < 1 {
		return nil, errors.New("shard count must be >= 1")
	}

	cfg.withDefaults()
	identify := ratelimit.NewIdentifyLimiter(cfg.IdentifyInterval)

	f := &Fleet{
		cfg:    &cfg,
		logger: cfg.Logger,
	}
	for i := 0; i < shardCount; i++ {
		f.shards = append(f.shards, NewShard(i, shardCount, f.cfg, identify))
	}

	return f, nil
}

// Start brings every shard up. Each shard's handshake proceeds in the
// background; identify spacing is enforced by the shared limiter.
func (f *Fleet) Start(ctx context.Context) error {
	f.logger.Info("starting gateway fleet",
		"shards", len(f.shards),
		"url", f.cfg.GatewayURL,
	)

	g, _ := errgroup.WithContext(ctx)
	for _, s := range f.shards {
		g.Go(s.Start)
	}
	return g.Wait()
}

// Stop stops every shard. Idempotent.
func (f *Fleet) Stop() {
	for _, s := range f.shards {
		s.Stop()
	}
	f.logger.Info("gateway fleet stopped")
}

// Shards returns the fleet's shards, indexed by id.
func (f *Fleet) Shards() []*Shard { return f.shards }
