package gem

import (
	"sync"
	"time"

	"github.com/secs2go/hsmsgem/bus"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/sirupsen/logrus"
)

// ControlState is a state of the GEM control state machine, spec §4.9.
type ControlState int

const (
	EquipmentOffline ControlState = iota
	AttemptOnline
	HostOffline
	Local
	Online // Remote, i.e. host may command; named Online to read naturally ("gem.State() == Online")
)

func (s ControlState) String() string {
	switch s {
	case EquipmentOffline:
		return "Offline/EquipmentOffline"
	case AttemptOnline:
		return "Offline/AttemptOnline"
	case HostOffline:
		return "Offline/HostOffline"
	case Local:
		return "Online/Local"
	case Online:
		return "Online/Remote"
	default:
		return "Unknown"
	}
}

// IsOnline reports whether s belongs to the Online branch (Local or
// Remote) of the control state machine.
func (s ControlState) IsOnline() bool {
	return s == Local || s == Online
}

// DefaultOfflineSubstate names, as used in config.Settings, the substate a
// newly enabled control state machine should initialize to.
const (
	DefaultEquipmentOffline = "equipment-offline"
	DefaultHostOffline      = "host-offline"
)

// ControlTransition is one observed state change, published on the bus
// topic T("gem", "control").
type ControlTransition struct {
	From ControlState
	To   ControlState
	At   time.Time
}

// ControlStateMachine owns the Offline(EquipmentOffline/AttemptOnline/
// HostOffline)/Online(Local/Remote) machine, spec §4.9. It starts in the
// configured default offline substate. It does not consult the
// communication state machine: its transitions do not depend on whether
// Communicating has been reached.
type ControlStateMachine struct {
	bus    *bus.Bus
	logger *logrus.Entry

	mu    sync.Mutex
	state ControlState
}

// NewControlStateMachine creates a machine in defaultSubstate
// (DefaultEquipmentOffline or DefaultHostOffline), publishing the initial
// state retained on b under T("gem", "control").
func NewControlStateMachine(defaultSubstate string, b *bus.Bus) *ControlStateMachine {
	initial := EquipmentOffline
	if defaultSubstate == DefaultHostOffline {
		initial = HostOffline
	}
	m := &ControlStateMachine{
		bus:    b,
		logger: logx.For("gem.control"),
		state:  initial,
	}
	m.publish(initial, initial)
	return m
}

// State returns the current state.
func (m *ControlStateMachine) State() ControlState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RequestOnlineReceived is the equipment side's reaction to a host's
// S1F17: move to AttemptOnline pending a local accept/reject decision.
// Returns false (no-op) if already online, matching the ONLACK=2
// "already online" case.
func (m *ControlStateMachine) RequestOnlineReceived() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.IsOnline() {
		return false
	}
	m.transitionLocked(AttemptOnline)
	return true
}

// AcceptOnline completes a pending AttemptOnline into the Local substate
// (an equipment always returns to local operator control first; Remote is
// reached only via GoRemote once the operator or host hands control over).
func (m *ControlStateMachine) AcceptOnline() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AttemptOnline {
		return
	}
	m.transitionLocked(Local)
}

// RejectOnline abandons a pending AttemptOnline, returning to
// EquipmentOffline.
func (m *ControlStateMachine) RejectOnline() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AttemptOnline {
		return
	}
	m.transitionLocked(EquipmentOffline)
}

// RequestOfflineReceived handles a host's S1F15: any Online substate moves
// directly to EquipmentOffline; SEMI E30 makes this acknowledgement
// unconditional (OFLACK is always 0).
func (m *ControlStateMachine) RequestOfflineReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(EquipmentOffline)
}

// GoRemote is the operator/host action that moves Local -> Online(Remote).
func (m *ControlStateMachine) GoRemote() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Local {
		return
	}
	m.transitionLocked(Online)
}

// GoLocal is the operator action that moves Online(Remote) -> Local,
// taking control away from the host without a full offline transition.
func (m *ControlStateMachine) GoLocal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Online {
		return
	}
	m.transitionLocked(Local)
}

func (m *ControlStateMachine) transitionLocked(to ControlState) {
	from := m.state
	m.state = to
	if from != to {
		m.logger.WithField("from", from).WithField("to", to).Info("control state transition")
	}
	m.publish(from, to)
}

func (m *ControlStateMachine) publish(from, to ControlState) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(&bus.Message{
		Topic:    bus.T("gem", "control"),
		Payload:  ControlTransition{From: from, To: to, At: time.Now()},
		Retained: true,
	})
}
