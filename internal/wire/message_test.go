package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "dispatch with sequence and event name",
			msg: Message{
				Op: OpDispatch,
				D:  json.RawMessage(`{"session_id":"abc123"}`),
				S:  Seq(42),
				T:  "READY",
			},
		},
		{
			name: "heartbeat with sequence payload",
			msg:  Message{Op: OpHeartbeat, D: json.RawMessage(`251`)},
		},
		{
			name: "heartbeat with explicit null payload",
			msg:  Message{Op: OpHeartbeat, D: Null},
		},
		{
			name: "hello",
			msg:  Message{Op: OpHello, D: json.RawMessage(`{"heartbeat_interval":41250}`)},
		},
		{
			name: "bare ack with no optional fields",
			msg:  Message{Op: OpHeartbeatACK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if got.Op != tt.msg.Op {
				t.Errorf("op = %v, want %v", got.Op, tt.msg.Op)
			}
			if !bytes.Equal(got.D, tt.msg.D) {
				t.Errorf("d = %s, want %s", got.D, tt.msg.D)
			}
			if (got.S == nil) != (tt.msg.S == nil) {
				t.Fatalf("s presence = %v, want %v", got.S != nil, tt.msg.S != nil)
			}
			if got.S != nil && *got.S != *tt.msg.S {
				t.Errorf("s = %d, want %d", *got.S, *tt.msg.S)
			}
			if got.T != tt.msg.T {
				t.Errorf("t = %q, want %q", got.T, tt.msg.T)
			}
		})
	}
}

func TestEncodeOmitsAbsentOptionals(t *testing.T) {
	data, err := Encode(Message{Op: OpHeartbeatACK})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal encoded frame: %v", err)
	}

	for _, key := range []string{"d", "s", "t"} {
		if _, present := fields[key]; present {
			t.Errorf("field %q should be omitted, frame: %s", key, data)
		}
	}
	if _, present := fields["op"]; !present {
		t.Errorf("op field missing, frame: %s", data)
	}
}

func TestDecodeMalformedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{{{`},
		{"missing op", `{"d":{"a":1}}`},
		{"string op", `{"op":"ten"}`},
		{"fractional op", `{"op":1.5}`},
		{"array envelope", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			if err == nil {
				t.Fatal("expected decode error")
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("error type = %T, want *DecodeError", err)
			}
		})
	}
}

func TestDecodePreservesUnknownOpcode(t *testing.T) {
	msg, err := Decode([]byte(`{"op":31,"d":{"guild_ids":[]}}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Op != Opcode(31) {
		t.Errorf("op = %v, want 31", msg.Op)
	}
}

func TestDecodeEventNameOutsideDispatch(t *testing.T) {
	// Not a frame the server should send, but the codec must represent
	// it rather than reject it. The shard only reads T on dispatch.
	msg, err := Decode([]byte(`{"op":11,"t":"READY"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Op != OpHeartbeatACK || msg.T != "READY" {
		t.Errorf("got op=%v t=%q", msg.Op, msg.T)
	}
}

func TestDecodeNullPayload(t *testing.T) {
	msg, err := Decode([]byte(`{"op":1,"d":null}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(msg.D, Null) {
		t.Errorf("d = %q, want explicit null", msg.D)
	}
}

func TestOpcodeString(t *testing.T) {
	if got := OpHello.String(); got != "hello" {
		t.Errorf("OpHello.String() = %q", got)
	}
	if got := Opcode(99).String(); got != "op(99)" {
		t.Errorf("Opcode(99).String() = %q", got)
	}
}
