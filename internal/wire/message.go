package wire

import (
	"encoding/json"
	"fmt"
)

// Null is the wire representation of an explicit JSON null payload.
// Distinct from a nil D, which omits the field entirely.
var Null = json.RawMessage("null")

// DecodeError reports a frame that is not a well-formed gateway envelope.
type DecodeError struct {
	Reason string
	Err    error // underlying JSON error, if any
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode gateway frame: %s: %v", e.Reason, e.Err)
	}
	return "decode gateway frame: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Message is the gateway wire envelope.
//
// D is kept raw: the codec locates the event name and payload, nothing
// more. S and T are present only on dispatch messages; a nil S or empty
// T means the field was absent on the wire.
type Message struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// Encode produces the minimal wire form of m, omitting absent optional
// fields. An explicit null payload survives as "d":null.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode gateway frame: %w", err)
	}
	return data, nil
}

// Decode parses a raw text frame into a Message.
//
// It fails with a *DecodeError if the frame is not a JSON object or the
// op field is missing or not an integer. Unrecognized opcode values are
// preserved as-is so callers can dispatch them to a default branch.
func Decode(data []byte) (Message, error) {
	var raw struct {
		Op *int64          `json:"op"`
		D  json.RawMessage `json:"d"`
		S  *int64          `json:"s"`
		T  string          `json:"t"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, &DecodeError{Reason: "malformed envelope", Err: err}
	}
	if raw.Op == nil {
		return Message{}, &DecodeError{Reason: "missing op field"}
	}

	return Message{
		Op: Opcode(*raw.Op),
		D:  raw.D,
		S:  raw.S,
		T:  raw.T,
	}, nil
}

// Seq boxes a sequence number for Message.S.
func Seq(n int64) *int64 { return &n }
