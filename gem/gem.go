package gem

import (
	"context"

	"github.com/secs2go/hsmsgem/bus"
	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/handler"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/secs2go/hsmsgem/secs2"
	"github.com/sirupsen/logrus"
)

// Standard ONLACK/OFLACK values, SEMI E30.
const (
	onlineAccepted     = 0
	onlineAlreadyOnline = 2
	offlineAcknowledged = 0
)

// Equipment wires the communication and control state machines to a
// handler.Handler: it registers the equipment-side S1F13/S1F15/S1F17
// callbacks (when settings.Role is config.Equipment) and offers
// RequestOnline/RequestOffline/EstablishCommunications for the host side,
// spec §4.9.
type Equipment struct {
	settings config.Settings
	handler  *handler.Handler
	bus      *bus.Bus
	logger   *logrus.Entry

	// Communication is the Disabled/WaitCRA/WaitDelay/Communicating
	// machine, shared by both roles.
	Communication *CommunicationStateMachine
	// Control is the Offline/Online(Local/Remote) machine; only the
	// equipment role drives it, since the host only ever observes its
	// peer's control state via the ack codes of S1F16/S1F18.
	Control *ControlStateMachine
}

// NewEquipment creates an Equipment over h, registering equipment-side
// callbacks when settings.Role == config.Equipment. Call Enable to start
// participating.
func NewEquipment(settings config.Settings, h *handler.Handler, b *bus.Bus) *Equipment {
	eq := &Equipment{
		settings:      settings,
		handler:       h,
		bus:           b,
		logger:        logx.For("gem").WithField("role", settings.Role),
		Communication: NewCommunicationStateMachine(settings.EstablishCommunicationTimeout, b),
		Control:       NewControlStateMachine(settings.DefaultOfflineSubstate, b),
	}

	if settings.Role == config.Equipment {
		h.RegisterCallback(1, 13, eq.handleEstablishCommunicationsRequest)
		h.RegisterCallback(1, 15, eq.handleRequestOffline)
		h.RegisterCallback(1, 17, eq.handleRequestOnline)
	}

	return eq
}

// Enable turns the Handler on and moves the communication state machine
// from Disabled into WaitCRA, triggering the first establish attempt.
func (eq *Equipment) Enable() {
	eq.handler.Enable()
	eq.Communication.Enable(eq.onEstablishAttempt)
}

// Disable turns the Handler off and returns the communication state
// machine to Disabled; spec §4.9 reachability: only Enable can leave
// Disabled again.
func (eq *Equipment) Disable() {
	eq.handler.SetCommunicating(false)
	eq.handler.Disable()
	eq.Communication.Disable()
}

// onEstablishAttempt is called by CommunicationStateMachine every time it
// (re)enters WaitCRA. The host side proactively sends S1F13; the
// equipment side has nothing to do but wait for one.
func (eq *Equipment) onEstablishAttempt() {
	if eq.settings.Role != config.Host {
		return
	}
	go eq.attemptEstablishCommunications()
}

func (eq *Equipment) attemptEstablishCommunications() {
	ctx, cancel := context.WithTimeout(context.Background(), eq.settings.T3)
	defer cancel()

	reply, err := eq.handler.SendAndWaitForResponse(ctx, 1, 13, secs2.NewEmptyItemNode())
	if err != nil {
		eq.logger.WithError(err).Debug("establish communications attempt did not complete")
		return
	}
	_ = reply
	eq.markEstablished()
}

func (eq *Equipment) markEstablished() {
	eq.Communication.Established()
	eq.handler.SetCommunicating(true)
}

func (eq *Equipment) handleEstablishCommunicationsRequest(msg *secs2.DataMessage) {
	eq.markEstablished()

	body := secs2.NewListNode(
		secs2.NewBinaryNode(0),
		secs2.NewListNode(secs2.NewASCIINode(eq.settings.ModelName), secs2.NewASCIINode(eq.settings.SoftwareRevision)),
	)
	if err := eq.handler.SendResponse(1, 14, body, msg.SystemBytes()); err != nil {
		eq.logger.WithError(err).Warn("failed to send S1F14")
	}
}

func (eq *Equipment) handleRequestOffline(msg *secs2.DataMessage) {
	eq.Control.RequestOfflineReceived()
	ack := secs2.NewBinaryNode(offlineAcknowledged)
	if err := eq.handler.SendResponse(1, 16, ack, msg.SystemBytes()); err != nil {
		eq.logger.WithError(err).Warn("failed to send S1F16")
	}
}

func (eq *Equipment) handleRequestOnline(msg *secs2.DataMessage) {
	ack := onlineAccepted
	if eq.Control.RequestOnlineReceived() {
		eq.Control.AcceptOnline()
	} else {
		ack = onlineAlreadyOnline
	}
	if err := eq.handler.SendResponse(1, 18, secs2.NewBinaryNode(ack), msg.SystemBytes()); err != nil {
		eq.logger.WithError(err).Warn("failed to send S1F18")
	}
}

// RequestOnline is the host-side action of spec §4.9: send S1F17 and
// report whether the peer's ONLACK accepted it.
func (eq *Equipment) RequestOnline(ctx context.Context) (accepted bool, err error) {
	reply, err := eq.handler.SendAndWaitForResponse(ctx, 1, 17, secs2.NewEmptyItemNode())
	if err != nil {
		return false, err
	}
	return ackValue(reply) == onlineAccepted, nil
}

// RequestOffline is the host-side action of spec §4.9: send S1F15 and
// report whether the peer's OFLACK acknowledged it.
func (eq *Equipment) RequestOffline(ctx context.Context) (acknowledged bool, err error) {
	reply, err := eq.handler.SendAndWaitForResponse(ctx, 1, 15, secs2.NewEmptyItemNode())
	if err != nil {
		return false, err
	}
	return ackValue(reply) == offlineAcknowledged, nil
}

func ackValue(msg *secs2.DataMessage) int {
	binNode, ok := msg.Body().(*secs2.BinaryNode)
	if !ok {
		return -1
	}
	values := binNode.Value()
	if len(values) == 0 {
		return -1
	}
	return values[0]
}

// GoRemote is the local operator action moving the equipment's control
// state machine from Local to Online(Remote).
func (eq *Equipment) GoRemote() { eq.Control.GoRemote() }

// GoLocal is the local operator action moving the equipment's control
// state machine from Online(Remote) back to Local.
func (eq *Equipment) GoLocal() { eq.Control.GoLocal() }
