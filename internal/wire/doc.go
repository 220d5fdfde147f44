// Package wire implements the gateway message codec.
//
// Every frame exchanged with the gateway is a JSON envelope:
//
//	{"op": <int>, "d": <any>, "s": <int, dispatch only>, "t": <string, dispatch only>}
//
// The codec only frames payloads; it never interprets application-level
// event semantics. Unknown opcodes decode cleanly so newer server
// revisions don't break older clients.
package wire
