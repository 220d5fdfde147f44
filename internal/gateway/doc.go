// Package gateway implements the shard connection state machine.
//
// A Shard owns one logical gateway connection: it drives the
// hello/identify handshake, keeps the connection alive with heartbeats,
// classifies disconnects, and reconnects with the right recovery
// strategy. Outbound frames always pass through a rate-limited bucket,
// never straight to the transport.
//
// A Fleet runs several shards against one token, each responsible for
// a partition of the event stream. Shards share nothing mutable except
// the identify limiter.
package gateway
