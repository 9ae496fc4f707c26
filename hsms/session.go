package hsms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/secs2go/hsmsgem/internal/secserr"
	"github.com/secs2go/hsmsgem/secs2"
	"github.com/sirupsen/logrus"
)

// State is one of the three HSMS connection states of spec §4.5. The
// NotConnected state also covers the pre-TCP "NotConnected" of spec §3's
// Connection state enum; this package does not distinguish a separate
// "Connected-but-not-yet-NotSelected" state because the transition is
// instantaneous (spec: "NotConnected → NotSelected on TCP connect complete").
type State int

const (
	NotConnected State = iota
	NotSelected
	Selected
)

func (s State) String() string {
	switch s {
	case NotConnected:
		return "not-connected"
	case NotSelected:
		return "not-selected"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// Transition is one observable state change, timestamped per spec §4.9's
// "Both state machines expose an observable" (the HSMS session state
// machine is held to the same observability bar as GEM's).
type Transition struct {
	From State
	To   State
	At   time.Time
}

// SessionCallbacks is the Session's upward interface: data messages escape
// to the Handler, control traffic is absorbed entirely inside the Session
// per spec §4.5.
type SessionCallbacks struct {
	OnDataMessage  func(msg *secs2.DataMessage)
	OnTransition   func(Transition)
	OnDisconnected func()
}

// Session implements the HSMS Select/Deselect/Linktest/Separate state
// machine and its T3/T5/T6/T7/T8 timer family, spec §4.5. A Session
// exclusively owns one Connection and one TransactionManager.
type Session struct {
	settings  config.Settings
	conn      Connection
	framer    *Framer
	tm        *TransactionManager // secondary-reply correlation, shared with the Handler
	controlTM *TransactionManager // Select/Deselect/Linktest request/response correlation (T6)
	callbacks SessionCallbacks
	logger    *logrus.Entry
	metrics   *Metrics

	mu               sync.Mutex
	state            State
	enteredStateAt   time.Time
	lastFrameByteAt  time.Time
	lastLinktestSent time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a Session and returns it together with the
// connection-level Callbacks that drive it. Those Callbacks go to the
// constructor of the Connection (Active, Passive, or one child of a
// MultiPassiveListener), which is then bound to the Session with Attach.
func NewSession(settings config.Settings, tm *TransactionManager, callbacks SessionCallbacks) (*Session, Callbacks) {
	s := &Session{
		settings:  settings,
		framer:    NewFramer(settings.MaxMessageSize),
		tm:        tm,
		controlTM: NewTransactionManager(),
		callbacks: callbacks,
		logger:    logx.For("hsms.session").WithField("session_id", settings.SessionID),
		state:     NotConnected,
	}

	conCallbacks := Callbacks{
		OnConnected:     s.handleConnected,
		OnData:          s.handleData,
		OnDisconnecting: s.handleDisconnecting,
		OnDisconnected:  s.handleDisconnected,
	}
	return s, conCallbacks
}

// Attach binds the Connection this Session drives. Kept separate from
// NewSession so callers can construct Connection and Session in either
// order without an import cycle (Connection needs no reference to Session).
func (s *Session) Attach(conn Connection) {
	s.conn = conn
}

// SetMetrics wires a shared Metrics collector into this session. Optional;
// a Session with no Metrics set simply skips instrumentation.
func (s *Session) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Open opens the underlying connection and starts the session's timer task.
// It blocks until the connection is established (or ctx is canceled), the
// same as Connection.Open.
func (s *Session) Open(ctx context.Context) error {
	sessCtx, cancel := context.WithCancel(context.Background())
	s.ctx = sessCtx
	s.cancel = cancel

	if err := s.conn.Open(ctx); err != nil {
		cancel()
		return err
	}

	s.wg.Add(1)
	go s.timerLoop()
	return nil
}

// State returns the current HSMS state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transactions exposes the shared TransactionManager so a Handler can
// register waiters for primaries it sends, per spec §4.6's happens-before
// invariant (register before the frame reaches the wire).
func (s *Session) Transactions() *TransactionManager {
	return s.tm
}

// Settings returns the Settings this Session was constructed with.
func (s *Session) Settings() config.Settings {
	return s.settings
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.enteredStateAt = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetSessionState(s.sessionIDLabel(), next)
	}

	if prev == next {
		return
	}
	s.logger.WithField("from", prev).WithField("to", next).Info("session state transition")
	if s.callbacks.OnTransition != nil {
		s.callbacks.OnTransition(Transition{From: prev, To: next, At: time.Now()})
	}
}

func (s *Session) sessionIDLabel() string {
	return fmt.Sprintf("%d", s.settings.SessionID)
}

func (s *Session) timeInState() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.enteredStateAt)
}

// handleConnected implements "NotConnected → NotSelected on TCP connect
// complete" (spec §4.5).
func (s *Session) handleConnected() {
	s.setState(NotSelected)
}

func (s *Session) handleDisconnecting() {
	// Spec §9 open question (ii): terminal hooks see state already
	// NotConnected, recorded as a design decision in DESIGN.md.
	s.setState(NotConnected)
}

func (s *Session) handleDisconnected() {
	s.tm.DisconnectAll()
	s.controlTM.DisconnectAll()
	if s.cancel != nil {
		s.cancel()
	}
	if s.callbacks.OnDisconnected != nil {
		s.callbacks.OnDisconnected()
	}
}

// handleData feeds raw socket bytes through the Framer and dispatches each
// resulting HSMS message: control traffic is absorbed here, data messages
// escape to the Handler via OnDataMessage. A MalformedFrame or Codec error
// is Transport/Framing-fatal and drops the connection, per spec §7.
func (s *Session) handleData(data []byte) {
	s.mu.Lock()
	s.lastFrameByteAt = time.Now()
	s.mu.Unlock()

	messages, err := s.framer.Feed(data)
	for _, msg := range messages {
		if s.metrics != nil {
			s.metrics.RecordFrameReceived()
		}
		s.dispatch(msg)
	}
	if err != nil {
		s.logger.WithError(err).Warn("framing error, dropping connection")
		s.conn.Close()
	}
}

func (s *Session) dispatch(msg secs2.HSMSMessage) {
	switch m := msg.(type) {
	case *secs2.ControlMessage:
		s.handleControl(m)
	case *secs2.DataMessage:
		s.handleDataMessage(m)
	}
}

func (s *Session) handleDataMessage(msg *secs2.DataMessage) {
	if s.State() != Selected {
		s.logger.Warn("data message received outside Selected state, rejecting")
		s.sendControl(secs2.NewHSMSMessageRejectReq(uint16(msg.SessionID()), 0, 0, msg.SystemBytes(), 4))
		return
	}

	if msg.FunctionCode()%2 == 0 {
		// secondary reply: correlate with the transaction manager.
		if s.tm.Complete(msg.SystemBytesUint32(), msg) {
			return
		}
		s.logger.Warn("secondary reply with no matching transaction, dropping")
		return
	}

	if s.callbacks.OnDataMessage != nil {
		safeCallData(s.logger, s.callbacks.OnDataMessage, msg)
	}
}

func safeCallData(logger *logrus.Entry, fn func(*secs2.DataMessage), msg *secs2.DataMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("OnDataMessage callback panicked, ignoring")
		}
	}()
	fn(msg)
}

func (s *Session) handleControl(msg *secs2.ControlMessage) {
	switch msg.Type() {
	case "select.req":
		status := byte(0)
		if s.State() == Selected {
			status = 1 // already active
		}
		s.sendControl(secs2.NewHSMSMessageSelectRsp(msg, status))
		if status == 0 {
			s.setState(Selected)
		}

	case "select.rsp":
		s.controlTM.Complete(msg.SystemBytesUint32(), msg)

	case "deselect.req":
		s.sendControl(secs2.NewHSMSMessageDeselectRsp(msg, 0))
		s.setState(NotSelected)

	case "deselect.rsp":
		s.controlTM.Complete(msg.SystemBytesUint32(), msg)
		s.setState(NotSelected)

	case "linktest.req":
		s.sendControl(secs2.NewHSMSMessageLinktestRsp(msg))

	case "linktest.rsp":
		s.controlTM.Complete(msg.SystemBytesUint32(), msg)

	case "reject.req":
		s.logger.Warn("received Reject.req, dropping connection")
		s.conn.Close()

	case "separate.req":
		s.logger.Info("received Separate.req, dropping connection")
		s.conn.Close()

	default:
		s.logger.WithField("s_type", msg.Header()[5]).Warn("unknown control message type, ignoring")
	}
}

func (s *Session) sendControl(msg *secs2.ControlMessage) {
	if !s.conn.Send(EncodeFrame(msg)) {
		s.logger.Warn("failed to send control message")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordFrameSent()
	}
}

// SelectAsActive sends Select.req and waits (bounded by T6) for Select.rsp.
// Only meaningful for the connect-mode=Active side, per spec §4.5.
func (s *Session) SelectAsActive(ctx context.Context) error {
	sb := s.tm.NextSystemBytes()
	req := secs2.NewHSMSMessageSelectReq(s.settings.SessionID, systemBytesOf(sb))

	ch := s.controlTM.Register(sb, time.Now().Add(s.settings.T6))
	if !s.conn.Send(EncodeFrame(req)) {
		return secserr.New(secserr.Transport, "SelectAsActive", "send failed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-ch:
		switch result.Outcome {
		case OutcomeTimeout:
			if s.metrics != nil {
				s.metrics.RecordTransactionTimeout()
			}
			s.conn.Close() // T6 fires on outstanding control transaction -> drop, spec §4.5
			return secserr.New(secserr.Timeout, "SelectAsActive", "T6 expired waiting for Select.rsp")
		case OutcomeDisconnected:
			return secserr.New(secserr.Disconnected, "SelectAsActive", "session disconnected")
		}
		if s.metrics != nil {
			s.metrics.RecordTransactionReplied()
		}
		rsp := result.Message.(*secs2.ControlMessage)
		if rsp.Header()[3] != 0 {
			return secserr.New(secserr.Rejected, "SelectAsActive", fmt.Sprintf("select status=%d", rsp.Header()[3]))
		}
		s.setState(Selected)
		return nil
	}
}

// Linktest sends Linktest.req and waits (bounded by T6) for Linktest.rsp.
func (s *Session) Linktest(ctx context.Context) error {
	sb := s.tm.NextSystemBytes()
	req := secs2.NewHSMSMessageLinktestReq(systemBytesOf(sb))

	ch := s.controlTM.Register(sb, time.Now().Add(s.settings.T6))
	if !s.conn.Send(EncodeFrame(req)) {
		return secserr.New(secserr.Transport, "Linktest", "send failed")
	}
	s.mu.Lock()
	s.lastLinktestSent = time.Now()
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-ch:
		if result.Outcome != OutcomeReplied {
			if s.metrics != nil {
				s.metrics.RecordTransactionTimeout()
			}
			s.conn.Close()
			return secserr.New(secserr.Timeout, "Linktest", "T6 expired waiting for Linktest.rsp")
		}
		if s.metrics != nil {
			s.metrics.RecordTransactionReplied()
		}
		return nil
	}
}

// Separate sends Separate.req (no reply expected) and drops the connection.
func (s *Session) Separate() {
	sb := s.tm.NextSystemBytes()
	s.sendControl(secs2.NewHSMSMessageSeparateReq(s.settings.SessionID, systemBytesOf(sb)))
	s.conn.Close()
}

// SendDataMessage writes msg to the wire. Callers that require a reply
// should register with the TransactionManager (via the Handler) before
// calling this, preserving the happens-before invariant of spec §4.6.
func (s *Session) SendDataMessage(msg *secs2.DataMessage) bool {
	ok := s.conn.Send(EncodeFrame(msg))
	if ok && s.metrics != nil {
		s.metrics.RecordFrameSent()
	}
	return ok
}

// Close performs the orderly shutdown of spec §5's Cancellation: stop the
// timer task, send Separate.req if still Selected, then close the
// connection. All pending reply waiters are completed with Disconnected by
// handleDisconnected.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.State() == Selected {
		s.Separate()
	} else {
		s.conn.Close()
	}
	s.wg.Wait()
}

// timerLoop advances T3 (via the shared TransactionManager's sweep), T7 and
// drives proactive Linktest, at a granularity well under 1s as required by
// spec §4.6. T8 is tracked inline in handleData's lastFrameByteAt bookkeeping
// and checked here against any still-buffered partial frame.
func (s *Session) timerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.tm.Sweep(now)
			s.controlTM.Sweep(now)
			s.checkT7(now)
			s.checkT8(now)
			s.maybeSendLinktest(now)
		}
	}
}

func (s *Session) checkT7(now time.Time) {
	if s.State() != NotSelected {
		return
	}
	if s.timeInState() > s.settings.T7 {
		s.logger.Warn("T7 expired waiting for Select, dropping connection")
		s.conn.Close()
	}
}

func (s *Session) checkT8(now time.Time) {
	s.mu.Lock()
	pending := s.framer.Pending() > 0
	last := s.lastFrameByteAt
	s.mu.Unlock()

	if pending && !last.IsZero() && now.Sub(last) > s.settings.T8 {
		s.logger.Warn("T8 expired mid-frame, dropping connection")
		s.conn.Close()
	}
}

func (s *Session) maybeSendLinktest(now time.Time) {
	if s.settings.LinktestInterval <= 0 || s.State() != Selected {
		return
	}
	s.mu.Lock()
	due := now.Sub(s.lastLinktestSent) >= s.settings.LinktestInterval
	s.mu.Unlock()
	if !due {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.settings.T6)
		defer cancel()
		if err := s.Linktest(ctx); err != nil {
			s.logger.WithError(err).Warn("proactive linktest failed")
		}
	}()
}

func systemBytesOf(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
