package gateway

import (
	"context"
	"testing"
)

func TestNewFleetValidation(t *testing.T) {
	if _, err := NewFleet(1, Config{}); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewFleet(0, Config{Token: "tok"}); err == nil {
		t.Error("expected error for zero shard count")
	}
}

func TestFleetStartStop(t *testing.T) {
	f := &fakeFactory{}
	cfg := testConfig(f)

	fleet, err := NewFleet(2, cfg)
	if err != nil {
		t.Fatalf("NewFleet failed: %v", err)
	}

	if err := fleet.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForAdapters(t, f, 2)
	for _, s := range fleet.Shards() {
		waitForState(t, s, StateAwaitingHello)
	}

	fleet.Stop()
	for _, s := range fleet.Shards() {
		if got := s.State(); got != StateStopped {
			t.Errorf("shard %d state = %v, want stopped", s.ID(), got)
		}
	}

	// Stop again: no panics, still stopped.
	fleet.Stop()
}

func TestFleetShardIdentity(t *testing.T) {
	f := &fakeFactory{}
	cfg := testConfig(f)

	fleet, err := NewFleet(3, cfg)
	if err != nil {
		t.Fatalf("NewFleet failed: %v", err)
	}
	defer fleet.Stop()

	shards := fleet.Shards()
	if len(shards) != 3 {
		t.Fatalf("shard count = %d, want 3", len(shards))
	}
	for i, s := range shards {
		if s.ID() != i {
			t.Errorf("shards[%d].ID() = %d", i, s.ID())
		}
	}
}
