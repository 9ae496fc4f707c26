// Package gem implements the behavioural state machines of spec §4.9: the
// GEM communication state machine (Disabled / Enabled-NotCommunicating /
// Enabled-Communicating) and the GEM control state machine (Offline /
// Online, Local / Remote), driven by the S1F13/F14 and S1F15/F16/S1F17/F18
// exchanges carried over a handler.Handler. Both machines publish their
// transitions on a bus.Bus so application code can observe current state
// and every future change without polling.
package gem

import (
	"sync"
	"time"

	"github.com/secs2go/hsmsgem/bus"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/sirupsen/logrus"
)

// CommunicationState is a state of the GEM communication state machine,
// spec §4.9.
type CommunicationState int

const (
	Disabled CommunicationState = iota
	WaitCRA
	WaitDelay
	Communicating
)

func (s CommunicationState) String() string {
	switch s {
	case Disabled:
		return "Disabled"
	case WaitCRA:
		return "Enabled/NotCommunicating/WaitCRA"
	case WaitDelay:
		return "Enabled/NotCommunicating/WaitDelay"
	case Communicating:
		return "Enabled/Communicating"
	default:
		return "Unknown"
	}
}

// CommunicationTransition is one observed state change, published on the
// bus topic T("gem", "communication").
type CommunicationTransition struct {
	From CommunicationState
	To   CommunicationState
	At   time.Time
}

// CommunicationStateMachine owns the Disabled/WaitCRA/WaitDelay/Communicating
// machine. While enabled it cycles WaitCRA -> WaitDelay -> WaitCRA on its
// own, calling onAttempt every time it (re)enters WaitCRA, per spec §4.9's
// "configurable establish-timeout ... returns to WaitDelay and retries".
// Callers drive it from the edges the standard assigns to message
// exchange: Enable/Disable from the user, Established() on a successful
// S1F13/F14 round trip.
type CommunicationStateMachine struct {
	establishTimeout time.Duration
	bus              *bus.Bus
	logger           *logrus.Entry

	mu        sync.Mutex
	state     CommunicationState
	timer     *time.Timer
	onAttempt func()
}

// NewCommunicationStateMachine creates a machine in Disabled, publishing
// transitions (including the initial Disabled state, retained) on b under
// T("gem", "communication").
func NewCommunicationStateMachine(establishTimeout time.Duration, b *bus.Bus) *CommunicationStateMachine {
	m := &CommunicationStateMachine{
		establishTimeout: establishTimeout,
		bus:              b,
		logger:           logx.For("gem.communication"),
		state:            Disabled,
	}
	m.publish(Disabled, Disabled)
	return m
}

// State returns the current state.
func (m *CommunicationStateMachine) State() CommunicationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Enable moves Disabled -> WaitCRA, immediately invokes onAttempt (the
// caller's chance to send or await S1F13/F14), and arms the establish
// timeout. Calling Enable from a non-Disabled state is a no-op: spec
// §4.9's reachability rule says only enable() can leave Disabled, but
// re-enabling an already-enabled machine must not reset an in-flight
// establish attempt.
func (m *CommunicationStateMachine) Enable(onAttempt func()) {
	m.mu.Lock()
	if m.state != Disabled {
		m.mu.Unlock()
		return
	}
	m.onAttempt = onAttempt
	m.transitionLocked(WaitCRA)
	m.armTimerLocked(m.establishTimedOut)
	m.mu.Unlock()

	if onAttempt != nil {
		onAttempt()
	}
}

// Disable moves any state back to Disabled and disarms the timer.
func (m *CommunicationStateMachine) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
	m.onAttempt = nil
	m.transitionLocked(Disabled)
}

// Established records a successful S1F13/F14 exchange and disarms the
// establish timer.
func (m *CommunicationStateMachine) Established() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Disabled {
		return
	}
	m.stopTimerLocked()
	m.transitionLocked(Communicating)
}

// establishTimedOut fires on the timer goroutine when WaitCRA's deadline
// elapses without Established() being called: move to WaitDelay, then
// after one more establishTimeout hop back to WaitCRA and retry.
func (m *CommunicationStateMachine) establishTimedOut() {
	m.mu.Lock()
	if m.state != WaitCRA {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(WaitDelay)
	m.armTimerLocked(m.retryFromWaitDelay)
	m.mu.Unlock()
}

func (m *CommunicationStateMachine) retryFromWaitDelay() {
	m.mu.Lock()
	if m.state != WaitDelay {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(WaitCRA)
	m.armTimerLocked(m.establishTimedOut)
	attempt := m.onAttempt
	m.mu.Unlock()

	if attempt != nil {
		attempt()
	}
}

func (m *CommunicationStateMachine) armTimerLocked(onTimeout func()) {
	m.stopTimerLocked()
	m.timer = time.AfterFunc(m.establishTimeout, onTimeout)
}

func (m *CommunicationStateMachine) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *CommunicationStateMachine) transitionLocked(to CommunicationState) {
	from := m.state
	m.state = to
	if from != to {
		m.logger.WithField("from", from).WithField("to", to).Info("communication state transition")
	}
	m.publish(from, to)
}

func (m *CommunicationStateMachine) publish(from, to CommunicationState) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(&bus.Message{
		Topic:    bus.T("gem", "communication"),
		Payload:  CommunicationTransition{From: from, To: to, At: time.Now()},
		Retained: true,
	})
}
