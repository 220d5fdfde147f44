package gateway

import (
	"errors"
	"syscall"
)

// Fatal close reasons surfaced to the owner. None of these are retried.
var (
	ErrAuthenticationFailed = errors.New("gateway rejected the token")
	ErrInvalidShard         = errors.New("gateway rejected the shard identity")
	ErrShardingRequired     = errors.New("gateway requires sharding for this token")
)

// Gateway close codes.
const (
	codeUnknownError         = 4000
	codeUnknownOpcode        = 4001
	codeDecodeError          = 4002
	codeNotAuthenticated     = 4003
	codeAuthenticationFailed = 4004
	codeAlreadyAuthenticated = 4005
	codeInvalidSequence      = 4007
	codeRateLimited          = 4008
	codeSessionTimedOut      = 4009
	codeInvalidShard         = 4010
	codeShardingRequired     = 4011

	// codeNetworkDown is synthesized from transport errors that
	// indicate the local network path vanished (ENETDOWN).
	codeNetworkDown = 50

	// codeTransportError is synthesized for transport failures with no
	// close code attached; classified as unrecognized so the shard
	// takes the forward-compatible immediate-reconnect path.
	codeTransportError = -1
)

// closeClass is the recovery strategy for a disconnect. Classification
// is transient: computed per close event, never persisted.
type closeClass int

const (
	closeRecoverable closeClass = iota
	closeConnectivityLoss
	closeUnrecognized
	closeFatalAuth
	closeFatalInvalidShard
	closeFatalSharding
)

func (c closeClass) String() string {
	switch c {
	case closeRecoverable:
		return "recoverable"
	case closeConnectivityLoss:
		return "connectivity_loss"
	case closeUnrecognized:
		return "unrecognized"
	case closeFatalAuth:
		return "fatal_auth"
	case closeFatalInvalidShard:
		return "fatal_invalid_shard"
	case closeFatalSharding:
		return "fatal_sharding_required"
	default:
		return "unknown"
	}
}

// classifyClose maps a transport close code to a recovery strategy.
// Codes the protocol has not taught us about classify as unrecognized,
// which reconnects immediately so newer server revisions cannot strand
// the client.
func classifyClose(code int) closeClass {
	switch code {
	case codeAuthenticationFailed:
		return closeFatalAuth
	case codeInvalidShard:
		return closeFatalInvalidShard
	case codeShardingRequired:
		return closeFatalSharding
	case codeNetworkDown:
		return closeConnectivityLoss
	case codeUnknownError, codeUnknownOpcode, codeDecodeError,
		codeNotAuthenticated, codeAlreadyAuthenticated,
		codeInvalidSequence, codeRateLimited, codeSessionTimedOut:
		return closeRecoverable
	default:
		return closeUnrecognized
	}
}

// errorCloseCode maps a transport error to a synthetic close code for
// classification. Only network-down conditions get a dedicated code.
func errorCloseCode(err error) int {
	if errors.Is(err, syscall.ENETDOWN) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return codeNetworkDown
	}
	return codeTransportError
}
