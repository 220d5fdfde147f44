package wire

import "strconv"

// Opcode is the integer tag identifying a message's protocol role.
type Opcode int

// Gateway opcodes.
const (
	OpDispatch            Opcode = 0  // receive: application event (carries s and t)
	OpHeartbeat           Opcode = 1  // send/receive: liveness probe
	OpIdentify            Opcode = 2  // send: new session handshake
	OpPresenceUpdate      Opcode = 3  // send: presence/status change
	OpVoiceStateUpdate    Opcode = 4  // send: join/leave voice channel
	OpResume              Opcode = 6  // send: resume a prior session
	OpReconnect           Opcode = 7  // receive: server asks us to reconnect
	OpRequestGuildMembers Opcode = 8  // send: request offline member chunks
	OpInvalidSession      Opcode = 9  // receive: session no longer valid
	OpHello               Opcode = 10 // receive: first frame, carries heartbeat interval
	OpHeartbeatACK        Opcode = 11 // receive: heartbeat acknowledgement
)

// String returns a readable name for logging. Unknown opcodes render as
// their raw integer so forward-compatible frames stay identifiable.
func (o Opcode) String() string {
	switch o {
	case OpDispatch:
		return "dispatch"
	case OpHeartbeat:
		return "heartbeat"
	case OpIdentify:
		return "identify"
	case OpPresenceUpdate:
		return "presence_update"
	case OpVoiceStateUpdate:
		return "voice_state_update"
	case OpResume:
		return "resume"
	case OpReconnect:
		return "reconnect"
	case OpRequestGuildMembers:
		return "request_guild_members"
	case OpInvalidSession:
		return "invalid_session"
	case OpHello:
		return "hello"
	case OpHeartbeatACK:
		return "heartbeat_ack"
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}
