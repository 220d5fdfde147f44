package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shardgate/shardgate/internal/ratelimit"
	"github.com/shardgate/shardgate/internal/transport"
	"github.com/shardgate/shardgate/internal/wire"
)

// ErrAlreadyStarted is returned by Start on a shard that is already
// connecting or connected.
var ErrAlreadyStarted = fmt.Errorf("shard already started")

// Shard owns one logical gateway connection. All mutable state is
// guarded by mu: transport notifications, heartbeat ticks, and bucket
// drains arrive from independent goroutines with no ordering guarantee
// between them.
//
// The shard exclusively owns its transport adapter and both buckets.
// The adapter holds the shard only as a transport.Handler for event
// delivery.
type Shard struct {
	id         int
	shardCount int
	cfg        *Config
	logger     *slog.Logger

	identify *ratelimit.IdentifyLimiter

	globalBucket   *ratelimit.Bucket
	presenceBucket *ratelimit.Bucket

	mu             sync.Mutex
	state          State
	session        transport.Adapter
	sessionID      string
	resumeURL      string
	lastSeq        *int64
	acksMissed     int
	monitor        *monitor
	resuming       bool
	dialAttempts   int
	reconnectTimer *time.Timer
}

// NewShard creates shard id of shardCount against cfg. The identify
// limiter is shared across the fleet; nil disables identify spacing.
func NewShard(id, shardCount int, cfg *Config, identify *ratelimit.IdentifyLimiter) *Shard {
	cfg.withDefaults()
	logger := cfg.Logger.With("shard_id", id)

	return &Shard{
		id:         id,
		shardCount: shardCount,
		cfg:        cfg,
		logger:     logger,
		identify:   identify,
		globalBucket: ratelimit.NewBucket(
			fmt.Sprintf("shard.%d.global", id),
			globalBucketLimit, bucketWindow, logger,
		),
		presenceBucket: ratelimit.NewBucket(
			fmt.Sprintf("shard.%d.presence", id),
			presenceBucketLimit, bucketWindow, logger,
		),
		state: StateDisconnected,
	}
}

// ID returns the shard's index within the fleet.
func (s *Shard) ID() int { return s.id }

// State returns the current connection state.
func (s *Shard) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the session captured by the last successful
// handshake, or "" before one completes.
func (s *Shard) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// LastSequence returns the last dispatch sequence number observed.
func (s *Shard) LastSequence() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSeq == nil {
		return 0, false
	}
	return *s.lastSeq, true
}

// Start opens the gateway connection. It returns immediately; the dial
// runs in the background and failures feed the reconnect policy.
func (s *Shard) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDisconnected, StateStopped, StateReconnecting:
	default:
		return ErrAlreadyStarted
	}
	return s.startLocked()
}

func (s *Shard) startLocked() error {
	adapter := s.cfg.NewAdapter(s)
	s.session = adapter
	s.state = StateConnecting
	s.acksMissed = 0

	url := s.cfg.GatewayURL
	if s.resuming && s.resumeURL != "" {
		url = s.resumeURL
	}

	go s.dial(adapter, url)
	return nil
}

// Stop tears the connection down: transport closed, heartbeat monitor
// cancelled, counters reset. Idempotent; terminal until Start is called
// again.
func (s *Shard) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}

	s.cancelMonitorLocked()
	s.cancelReconnectLocked()
	s.closeSessionLocked()
	s.state = StateStopped
	s.acksMissed = 0
	s.resuming = false
	s.mu.Unlock()

	s.logger.Info("stopping gateway connection")
}

// UpdatePresence pushes a presence/status change through the presence
// bucket.
func (s *Shard) UpdatePresence(presence map[string]any) error {
	frame, err := presenceFrame(presence)
	if err != nil {
		return err
	}
	s.send(frame, true)
	return nil
}

// JoinVoiceChannel asks the gateway to move this shard's voice state
// into the given channel.
func (s *Shard) JoinVoiceChannel(guildID, channelID string) error {
	frame, err := joinVoiceFrame(guildID, channelID)
	if err != nil {
		return err
	}
	s.send(frame, false)
	return nil
}

// LeaveVoiceChannel clears this shard's voice state in the guild.
func (s *Shard) LeaveVoiceChannel(guildID string) error {
	frame, err := leaveVoiceFrame(guildID)
	if err != nil {
		return err
	}
	s.send(frame, false)
	return nil
}

// RequestOfflineMembers asks for the guild's full member list,
// delivered as chunked dispatch events.
func (s *Shard) RequestOfflineMembers(guildID string) error {
	frame, err := requestMembersFrame(guildID)
	if err != nil {
		return err
	}
	s.send(frame, false)
	return nil
}

// --- transport.Handler ---

// HandleOpen marks the transport open and begins waiting for hello.
func (s *Shard) HandleOpen() {
	s.mu.Lock()
	if s.state == StateConnecting {
		s.state = StateAwaitingHello
	}
	s.dialAttempts = 0
	s.mu.Unlock()

	s.logger.Debug("gateway connection open")
}

// HandleMessage decodes one frame and branches on its opcode. Malformed
// frames are dropped without touching shard state.
func (s *Shard) HandleMessage(data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		s.logger.Warn("dropping malformed gateway frame", "error", err)
		return
	}

	if msg.S != nil {
		seq := *msg.S
		s.mu.Lock()
		s.lastSeq = &seq
		s.mu.Unlock()
	}

	switch msg.Op {
	case wire.OpDispatch:
		s.handleDispatch(msg)
	case wire.OpHello:
		s.handleHello(msg)
	case wire.OpHeartbeat:
		// Server-requested probe: answer immediately.
		s.sendHeartbeat()
	case wire.OpHeartbeatACK:
		s.mu.Lock()
		s.acksMissed = 0
		s.mu.Unlock()
	case wire.OpReconnect:
		s.logger.Info("server requested reconnect")
		s.markResumable()
		s.reconnect()
	case wire.OpInvalidSession:
		s.handleInvalidSession(msg)
	default:
		s.logger.Debug("ignoring gateway frame", "op", msg.Op)
	}
}

// HandleClose routes a peer close through disconnect classification.
func (s *Shard) HandleClose(code int, reason string) {
	s.logger.Debug("gateway connection closed", "code", code, "reason", reason)
	s.handleDisconnect(code)
}

// HandleError routes a transport failure through the same
// classification as a close, with a synthesized code.
func (s *Shard) HandleError(err error) {
	s.logger.Debug("gateway transport error", "error", err)
	s.handleDisconnect(errorCloseCode(err))
}

// --- handshake ---

func (s *Shard) handleHello(msg wire.Message) {
	var hello helloData
	if err := json.Unmarshal(msg.D, &hello); err != nil {
		s.logger.Warn("malformed hello payload", "error", err)
		return
	}
	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond

	s.mu.Lock()
	if s.state == StateStopped || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.cancelMonitorLocked()
	s.monitor = newMonitor(s, interval)
	s.state = StateIdentifying
	resume := s.resuming && s.sessionID != ""
	s.resuming = false
	s.mu.Unlock()

	s.logger.Debug("hello received", "heartbeat_interval", interval)

	if resume {
		s.sendResume()
	} else {
		go s.sendIdentify()
	}
}

// sendIdentify waits for an identify slot, then queues the handshake.
// Runs on its own goroutine because the limiter blocks.
func (s *Shard) sendIdentify() {
	if s.identify != nil {
		if err := s.identify.Wait(context.Background()); err != nil {
			return
		}
	}

	frame, err := identifyFrame(s.cfg, s.id, s.shardCount)
	if err != nil {
		s.logger.Error("building identify payload", "error", err)
		return
	}
	s.send(frame, false)
	s.logger.Debug("identify queued")
}

func (s *Shard) sendResume() {
	s.mu.Lock()
	sessionID := s.sessionID
	seq := s.lastSeq
	s.mu.Unlock()

	frame, err := resumeFrame(s.cfg.Token, sessionID, seq)
	if err != nil {
		s.logger.Error("building resume payload", "error", err)
		return
	}
	s.send(frame, false)
	s.logger.Info("resuming session", "session_id", sessionID)
}

// --- dispatch ---

func (s *Shard) handleDispatch(msg wire.Message) {
	switch msg.T {
	case eventReady:
		var ready readyData
		if err := json.Unmarshal(msg.D, &ready); err != nil {
			s.logger.Warn("malformed ready payload", "error", err)
		} else {
			s.mu.Lock()
			s.sessionID = ready.SessionID
			if ready.ResumeGatewayURL != "" {
				s.resumeURL = ready.ResumeGatewayURL
			}
			s.state = StateReady
			s.mu.Unlock()
			s.logger.Info("shard ready", "session_id", ready.SessionID)
		}
	case eventResumed:
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
		s.logger.Info("session resumed")
	}

	if s.cfg.OnEvent != nil {
		s.cfg.OnEvent(s.id, msg.T, msg.D)
	}
}

func (s *Shard) handleInvalidSession(msg wire.Message) {
	var resumable bool
	if msg.D != nil {
		json.Unmarshal(msg.D, &resumable)
	}

	s.mu.Lock()
	if !resumable {
		s.sessionID = ""
	}
	s.resuming = resumable
	s.mu.Unlock()

	s.logger.Warn("session invalidated", "resumable", resumable)
	s.reconnect()
}

// --- heartbeats ---

// beat handles one monitor tick. Incrementing before checking means the
// counter reads 2 when the previous probe was never acknowledged; at
// that point the connection is zombied and no further probe is sent.
func (s *Shard) beat(m *monitor) {
	s.mu.Lock()
	if s.monitor != m || (s.state != StateReady && s.state != StateIdentifying) {
		s.mu.Unlock()
		m.cancel()
		return
	}

	s.acksMissed++
	if s.acksMissed >= 2 {
		s.logger.Warn("gateway stopped acknowledging heartbeats, forcing reconnect",
			"missed", s.acksMissed,
		)
		s.cancelMonitorLocked()
		if s.sessionID != "" {
			s.resuming = true
		}
		s.mu.Unlock()
		s.reconnect()
		return
	}

	frame, err := heartbeatFrame(s.lastSeq)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("building heartbeat payload", "error", err)
		return
	}
	s.send(frame, false)
}

// sendHeartbeat answers a server-requested probe outside the monitor's
// cadence.
func (s *Shard) sendHeartbeat() {
	s.mu.Lock()
	frame, err := heartbeatFrame(s.lastSeq)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("building heartbeat payload", "error", err)
		return
	}
	s.send(frame, false)
}

// --- disconnect classification & reconnection ---

// handleDisconnect classifies a close code and picks a recovery
// strategy: fatal stop, delayed reconnect, or immediate reconnect.
func (s *Shard) handleDisconnect(code int) {
	s.mu.Lock()
	if s.state == StateStopped || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}

	s.cancelMonitorLocked()
	class := classifyClose(code)

	var fatalErr error
	switch class {
	case closeFatalAuth:
		fatalErr = ErrAuthenticationFailed
	case closeFatalInvalidShard:
		fatalErr = ErrInvalidShard
	case closeFatalSharding:
		fatalErr = ErrShardingRequired
	}

	if fatalErr != nil {
		s.closeSessionLocked()
		s.state = StateStopped
		s.acksMissed = 0
		s.resuming = false
		s.mu.Unlock()

		s.logger.Error("fatal gateway close", "code", code, "error", fatalErr)
		if s.cfg.OnFatal != nil {
			s.cfg.OnFatal(s.id, fatalErr)
		}
		return
	}

	s.state = StateReconnecting
	if s.sessionID != "" {
		s.resuming = true
	}
	s.mu.Unlock()

	if s.cfg.OnDisconnect != nil {
		s.cfg.OnDisconnect(s.id)
	}

	switch class {
	case closeConnectivityLoss:
		s.logger.Warn("network path lost, delaying reconnect",
			"code", code,
			"delay", networkLossDelay,
		)
		s.scheduleReconnect(networkLossDelay)
	case closeUnrecognized:
		s.logger.Warn("connection closed with unrecognized code", "code", code)
		s.reconnect()
	default:
		s.logger.Info("recoverable gateway close, reconnecting", "code", code)
		s.reconnect()
	}
}

// reconnect discards the old transport and opens a fresh one.
func (s *Shard) reconnect() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}

	s.cancelMonitorLocked()
	s.closeSessionLocked()
	s.acksMissed = 0
	s.state = StateReconnecting
	s.startLocked()
	s.mu.Unlock()

	s.logger.Info("reconnecting to gateway")
}

// scheduleReconnect arms a deferred reconnect; a Stop in the meantime
// disarms it.
func (s *Shard) scheduleReconnect(delay time.Duration) {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.cancelReconnectLocked()
	s.reconnectTimer = time.AfterFunc(delay, s.reconnect)
	s.mu.Unlock()
}

// dial opens the adapter. Failures retry with bounded exponential
// backoff; the retry budget surfaces as a fatal error once spent.
func (s *Shard) dial(adapter transport.Adapter, url string) {
	err := adapter.Open(context.Background(), url)
	if err == nil {
		return
	}

	s.mu.Lock()
	if s.state == StateStopped || s.session != adapter {
		s.mu.Unlock()
		return
	}
	s.dialAttempts++
	attempts := s.dialAttempts
	s.state = StateReconnecting
	s.mu.Unlock()

	if s.cfg.MaxDialAttempts > 0 && attempts >= s.cfg.MaxDialAttempts {
		s.logger.Error("giving up on gateway dial",
			"attempts", attempts,
			"error", err,
		)
		s.Stop()
		if s.cfg.OnFatal != nil {
			s.cfg.OnFatal(s.id, fmt.Errorf("gateway unreachable after %d attempts: %w", attempts, err))
		}
		return
	}

	delay := backoffDelay(s.cfg.ReconnectBaseDelay, s.cfg.ReconnectMaxDelay, attempts)
	s.logger.Warn("gateway dial failed, retrying",
		"attempt", attempts,
		"delay", delay,
		"error", err,
	)
	s.scheduleReconnect(delay)
}

// --- outbound path ---

// send queues an encoded frame on the matching bucket. The thunk
// re-checks connection state when the bucket finally admits it, so a
// probe queued just before a reconnect never lands on a dead transport.
// Once admitted, sends are best-effort: a failure surfaces, if at all,
// as a transport close event.
func (s *Shard) send(frame []byte, presence bool) {
	op := func() {
		s.mu.Lock()
		sess := s.session
		live := s.state == StateReady || s.state == StateIdentifying || s.state == StateAwaitingHello
		s.mu.Unlock()

		if sess == nil || !live {
			return
		}
		if err := sess.Send(frame); err != nil {
			s.logger.Debug("queued send failed", "error", err)
		}
	}

	if presence {
		s.presenceBucket.Queue(op)
	} else {
		s.globalBucket.Queue(op)
	}
}

// --- locked helpers ---

func (s *Shard) cancelMonitorLocked() {
	if s.monitor != nil {
		s.monitor.cancel()
		s.monitor = nil
	}
}

func (s *Shard) cancelReconnectLocked() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
}

func (s *Shard) closeSessionLocked() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

func (s *Shard) markResumable() {
	s.mu.Lock()
	if s.sessionID != "" {
		s.resuming = true
	}
	s.mu.Unlock()
}
