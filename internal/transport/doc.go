// Package transport defines the duplex-connection contract the shard
// logic is written against.
//
// A backend (see transport/websocket) implements Adapter; the shard
// implements Handler. The adapter holds only a non-owning reference to
// its Handler for event delivery: the shard owns the adapter, never
// the reverse. Backends are interchangeable, and shard code imports
// this package only.
package transport
