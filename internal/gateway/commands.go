package gateway

import (
	"encoding/json"
	"runtime"

	"github.com/google/uuid"

	"github.com/shardgate/shardgate/internal/wire"
)

// Wire payload shapes for the handshake and standard commands. The
// builders below only construct and encode frames; submitting them to a
// bucket is the shard's job.

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type readyData struct {
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identifyData struct {
	Token          string             `json:"token"`
	Intents        int                `json:"intents"`
	Properties     identifyProperties `json:"properties"`
	Compress       bool               `json:"compress"`
	LargeThreshold int                `json:"large_threshold"`
	Shard          [2]int             `json:"shard"`
	Presence       map[string]any     `json:"presence,omitempty"`
}

type resumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       *int64 `json:"seq"`
}

type voiceStateData struct {
	GuildID   string  `json:"guild_id"`
	ChannelID *string `json:"channel_id"`
	SelfMute  bool    `json:"self_mute"`
	SelfDeaf  bool    `json:"self_deaf"`
}

type requestMembersData struct {
	GuildID string `json:"guild_id"`
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Nonce   string `json:"nonce"`
}

func encodeCommand(op wire.Opcode, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return wire.Encode(wire.Message{Op: op, D: raw})
}

// identifyFrame builds the new-session handshake command.
func identifyFrame(cfg *Config, id, shardCount int) ([]byte, error) {
	return encodeCommand(wire.OpIdentify, identifyData{
		Token:   cfg.Token,
		Intents: cfg.Intents,
		Properties: identifyProperties{
			OS:      runtime.GOOS,
			Browser: "shardgate",
			Device:  "shardgate",
		},
		Compress:       false,
		LargeThreshold: largeThreshold,
		Shard:          [2]int{id, shardCount},
		Presence:       cfg.Presence,
	})
}

// resumeFrame builds the session-resumption handshake command.
func resumeFrame(token, sessionID string, seq *int64) ([]byte, error) {
	return encodeCommand(wire.OpResume, resumeData{
		Token:     token,
		SessionID: sessionID,
		Seq:       seq,
	})
}

// heartbeatFrame builds a liveness probe carrying the last observed
// sequence number, or null when none has been seen yet.
func heartbeatFrame(seq *int64) ([]byte, error) {
	d := wire.Null
	if seq != nil {
		raw, err := json.Marshal(*seq)
		if err != nil {
			return nil, err
		}
		d = raw
	}
	return wire.Encode(wire.Message{Op: wire.OpHeartbeat, D: d})
}

// presenceFrame builds a presence/status update command.
func presenceFrame(presence map[string]any) ([]byte, error) {
	return encodeCommand(wire.OpPresenceUpdate, presence)
}

// joinVoiceFrame builds a voice-state update joining a channel.
func joinVoiceFrame(guildID, channelID string) ([]byte, error) {
	return encodeCommand(wire.OpVoiceStateUpdate, voiceStateData{
		GuildID:   guildID,
		ChannelID: &channelID,
	})
}

// leaveVoiceFrame builds a voice-state update with a null channel,
// which disconnects from voice in that guild.
func leaveVoiceFrame(guildID string) ([]byte, error) {
	return encodeCommand(wire.OpVoiceStateUpdate, voiceStateData{
		GuildID: guildID,
	})
}

// requestMembersFrame asks for the full offline member list of a
// guild. The nonce correlates the chunked responses.
func requestMembersFrame(guildID string) ([]byte, error) {
	return encodeCommand(wire.OpRequestGuildMembers, requestMembersData{
		GuildID: guildID,
		Query:   "",
		Limit:   0,
		Nonce:   uuid.NewString(),
	})
}
