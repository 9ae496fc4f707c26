// Package handler implements the stream/function dispatch layer of spec
// §4.8: send_and_waitfor_response, send_response, send_stream_function,
// callback registration keyed by (stream, function), and the
// enable/disable/is_communicating lifecycle. It sits directly on top of one
// hsms.Session and one registry.Registry.
package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/hsms"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/secs2go/hsmsgem/internal/secserr"
	"github.com/secs2go/hsmsgem/registry"
	"github.com/secs2go/hsmsgem/secs2"
	"github.com/sirupsen/logrus"
)

// Error-reply function numbers, spec §7/§8: 3 for unknown function, 5 for
// unrecognized data, 7 for illegal data.
const (
	sfUnrecognizedDeviceID = 1
	sfUnknownFunction      = 3
	sfUnrecognizedData     = 5
	sfIllegalData          = 7
)

type callbackKey struct {
	stream   int
	function int
}

// Handler is the Stream/Function dispatch and transaction layer, spec §4.8.
// A Handler is constructed, then Attach-ed to the hsms.Session it drives;
// the Session delivers every primary data message to Handler.Deliver.
type Handler struct {
	settings config.Settings
	registry *registry.Registry
	session  *hsms.Session
	logger   *logrus.Entry

	mu            sync.Mutex
	callbacks     map[callbackKey]func(*secs2.DataMessage)
	enabled       bool
	communicating bool
}

// New creates a Handler over reg. Call Attach once the owning Session
// exists.
func New(settings config.Settings, reg *registry.Registry) *Handler {
	return &Handler{
		settings:  settings,
		registry:  reg,
		logger:    logx.For("handler").WithField("session_id", settings.SessionID),
		callbacks: make(map[callbackKey]func(*secs2.DataMessage)),
	}
}

// Attach binds the Session this Handler sends through and receives from.
func (h *Handler) Attach(session *hsms.Session) {
	h.session = session
}

// Enable marks the handler able to participate in GEM error replies and
// communication (spec §4.9's Disabled <-> Enabled edge is owned by package
// gem; Handler only tracks the bit it needs to decide whether an
// unsolicited/invalid primary is worth an S9Fy reply).
func (h *Handler) Enable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = true
}

// Disable is the inverse of Enable.
func (h *Handler) Disable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = false
}

// SetCommunicating records whether the GEM communication state machine is
// currently in Enabled/Communicating; called by package gem on transition.
func (h *Handler) SetCommunicating(communicating bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.communicating = communicating
}

// IsCommunicating reports the last value SetCommunicating recorded.
func (h *Handler) IsCommunicating() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.communicating
}

func (h *Handler) errorRepliesAllowed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled && h.communicating
}

// RegisterCallback arranges for fn to receive every primary delivered for
// (stream, function) that isn't claimed by a pending
// SendAndWaitForResponse waiter.
func (h *Handler) RegisterCallback(stream, function int, fn func(*secs2.DataMessage)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks[callbackKey{stream, function}] = fn
}

func (h *Handler) callback(stream, function int) (func(*secs2.DataMessage), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn, ok := h.callbacks[callbackKey{stream, function}]
	return fn, ok
}

// Deliver is the Session's upward hook (SessionCallbacks.OnDataMessage):
// every message reaching here already survived transaction-manager
// correlation, i.e. it is a primary with no matching waiter. Deliver
// validates it against the registry, then dispatches to a registered
// callback or, failing that, an S9Fy error reply (spec §4.7, §4.8).
func (h *Handler) Deliver(msg *secs2.DataMessage) {
	entry, known := h.registry.Lookup(msg.StreamCode(), msg.FunctionCode())

	if known {
		if err := entry.Body.Validate(msg.Body()); err != nil {
			h.logger.WithError(err).Warn("primary failed schema validation")
			h.replyError(msg, sfIllegalData)
			return
		}
	} else {
		err := registry.UnknownFunction(msg.StreamCode(), msg.FunctionCode())
		h.logger.WithError(err).Warn("no catalogue entry for received function")
	}

	if fn, ok := h.callback(msg.StreamCode(), msg.FunctionCode()); ok {
		fn(msg)
		return
	}

	if !known {
		h.replyError(msg, sfUnknownFunction)
		return
	}

	if msg.IsReplyRequired() {
		h.replyError(msg, sfUnknownFunction)
	}
}

// replyError sends an SxFy error reply (x=9) carrying the offending
// message's 10-byte header as its Binary body, per SEMI E37. It is a
// best-effort notification: failures to send are logged, not propagated,
// since the caller (Deliver) has no one to return an error to.
func (h *Handler) replyError(msg *secs2.DataMessage, function int) {
	if !h.errorRepliesAllowed() {
		return
	}

	streamByte := msg.StreamCode()
	if msg.IsReplyRequired() {
		streamByte |= 0b1000_0000
	}
	systemBytes := msg.SystemBytes()
	header := []interface{}{
		int(msg.SessionID() >> 8), int(msg.SessionID() & 0xFF),
		streamByte, msg.FunctionCode(), 0, 0,
		int(systemBytes[0]), int(systemBytes[1]), int(systemBytes[2]), int(systemBytes[3]),
	}

	body := secs2.NewBinaryNode(header...)
	sb := h.session.Transactions().NextSystemBytes()
	reply := secs2.NewHSMSDataMessage("", 9, function, 0, "H<->E", body,
		int(h.settings.SessionID), systemBytes4(sb))

	if !h.session.SendDataMessage(reply) {
		h.logger.Warn("failed to send error reply")
	}
}

// SendAndWaitForResponse sends a primary with the wait bit set and blocks
// until its secondary arrives, ctx is canceled, or T3 expires, spec §4.6.
func (h *Handler) SendAndWaitForResponse(ctx context.Context, stream, function int, body secs2.ItemNode) (*secs2.DataMessage, error) {
	if entry, ok := h.registry.Lookup(stream, function); ok {
		if err := entry.Body.Validate(body); err != nil {
			return nil, err
		}
	}

	tm := h.session.Transactions()
	sb := tm.NextSystemBytes()
	primary := secs2.NewHSMSDataMessage("", stream, function, 1, "H<->E", body,
		int(h.settings.SessionID), systemBytes4(sb))

	ch := tm.Register(sb, deadline(h.settings))
	if !h.session.SendDataMessage(primary) {
		return nil, secserr.New(secserr.Transport, "SendAndWaitForResponse", "send failed")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		switch result.Outcome {
		case hsms.OutcomeTimeout:
			return nil, secserr.New(secserr.Timeout, "SendAndWaitForResponse", "T3 expired")
		case hsms.OutcomeDisconnected:
			return nil, secserr.New(secserr.Disconnected, "SendAndWaitForResponse", "session disconnected")
		}
		reply, ok := result.Message.(*secs2.DataMessage)
		if !ok {
			return nil, secserr.New(secserr.Protocol, "SendAndWaitForResponse", "reply was not a data message")
		}
		return reply, nil
	}
}

// SendResponse sends a secondary (even function, no reply expected) tagged
// with toSystemBytes, completing the peer's own
// SendAndWaitForResponse/SelectAsActive-style wait.
func (h *Handler) SendResponse(stream, function int, body secs2.ItemNode, toSystemBytes []byte) error {
	if function%2 != 0 {
		return secserr.New(secserr.Protocol, "SendResponse", "function code for a secondary must be even")
	}
	msg := secs2.NewHSMSDataMessage("", stream, function, 0, "H<->E", body, int(h.settings.SessionID), toSystemBytes)
	if !h.session.SendDataMessage(msg) {
		return secserr.New(secserr.Transport, "SendResponse", "send failed")
	}
	return nil
}

// SendStreamFunction sends a primary with the wait bit clear: a
// fire-and-forget notification with no secondary expected.
func (h *Handler) SendStreamFunction(stream, function int, body secs2.ItemNode) error {
	sb := h.session.Transactions().NextSystemBytes()
	msg := secs2.NewHSMSDataMessage("", stream, function, 0, "H<->E", body, int(h.settings.SessionID), systemBytes4(sb))
	if !h.session.SendDataMessage(msg) {
		return secserr.New(secserr.Transport, "SendStreamFunction", fmt.Sprintf("send failed for S%dF%d", stream, function))
	}
	return nil
}

func deadline(settings config.Settings) time.Time {
	return time.Now().Add(settings.T3)
}

func systemBytes4(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
