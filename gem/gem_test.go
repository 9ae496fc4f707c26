package gem

import (
	"context"
	"testing"
	"time"

	"github.com/secs2go/hsmsgem/bus"
	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/handler"
	"github.com/secs2go/hsmsgem/hsms"
	"github.com/secs2go/hsmsgem/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests CommunicationStateMachine, ControlStateMachine and Equipment.
//
// Testing strategy:
//
// - CommunicationStateMachine: Enable moves Disabled->WaitCRA and invokes
//   onAttempt; Established moves to Communicating and disarms the retry
//   timer; an establish timeout with no Established() call cycles
//   WaitCRA->WaitDelay->WaitCRA, re-invoking onAttempt.
// - ControlStateMachine: RequestOnlineReceived/AcceptOnline reaches Local;
//   GoRemote/GoLocal toggle Local<->Online; RequestOfflineReceived from
//   any Online substate returns to EquipmentOffline.
// - Equipment, wired end to end over a loopback pair of real
//   hsms.Session + handler.Handler instances: a host's S1F13 establishes
//   both sides' communication state machines, and RequestOnline/
//   RequestOffline complete the equipment's control state machine.

// pairConn is a Connection whose Send hands the frame directly to the
// peer's connection-level OnData callback, i.e. an in-process substitute
// for a socket loopback.
type pairConn struct {
	send func(data []byte) bool
}

func (c *pairConn) Open(_ context.Context) error { return nil }
func (c *pairConn) Send(data []byte) bool        { return c.send(data) }
func (c *pairConn) Close()                       {}

func TestCommunicationStateMachine_EnableInvokesOnAttempt(t *testing.T) {
	m := NewCommunicationStateMachine(time.Hour, nil)

	var attempts int
	m.Enable(func() { attempts++ })

	assert.Equal(t, WaitCRA, m.State())
	assert.Equal(t, 1, attempts)
}

func TestCommunicationStateMachine_EstablishedReachesCommunicating(t *testing.T) {
	m := NewCommunicationStateMachine(time.Hour, nil)
	m.Enable(func() {})
	m.Established()

	assert.Equal(t, Communicating, m.State())
}

func TestCommunicationStateMachine_TimeoutCyclesThroughWaitDelay(t *testing.T) {
	m := NewCommunicationStateMachine(20*time.Millisecond, nil)

	attempts := make(chan struct{}, 8)
	m.Enable(func() { attempts <- struct{}{} })

	<-attempts // initial attempt from Enable

	select {
	case <-attempts:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the retry attempt after WaitDelay")
	}
	assert.Equal(t, WaitCRA, m.State())
}

func TestCommunicationStateMachine_DisableStopsRetries(t *testing.T) {
	m := NewCommunicationStateMachine(10*time.Millisecond, nil)
	m.Enable(func() {})
	m.Disable()

	assert.Equal(t, Disabled, m.State())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Disabled, m.State())
}

func TestControlStateMachine_OnlineRequestAcceptedReachesLocal(t *testing.T) {
	m := NewControlStateMachine(DefaultEquipmentOffline, nil)
	require.True(t, m.RequestOnlineReceived())
	m.AcceptOnline()
	assert.Equal(t, Local, m.State())
}

func TestControlStateMachine_GoRemoteAndGoLocal(t *testing.T) {
	m := NewControlStateMachine(DefaultEquipmentOffline, nil)
	m.RequestOnlineReceived()
	m.AcceptOnline()

	m.GoRemote()
	assert.Equal(t, Online, m.State())

	m.GoLocal()
	assert.Equal(t, Local, m.State())
}

func TestControlStateMachine_RequestOfflineReturnsToEquipmentOffline(t *testing.T) {
	m := NewControlStateMachine(DefaultEquipmentOffline, nil)
	m.RequestOnlineReceived()
	m.AcceptOnline()
	m.GoRemote()

	m.RequestOfflineReceived()
	assert.Equal(t, EquipmentOffline, m.State())
}

func TestControlStateMachine_SecondOnlineRequestWhileOnlineIsRejected(t *testing.T) {
	m := NewControlStateMachine(DefaultEquipmentOffline, nil)
	m.RequestOnlineReceived()
	m.AcceptOnline()
	m.GoRemote()

	assert.False(t, m.RequestOnlineReceived())
	assert.Equal(t, Online, m.State())
}

func baseSettings(sessionID uint16, role config.Role) config.Settings {
	s := config.Default()
	s.SessionID = sessionID
	s.Role = role
	s.T3 = 2 * time.Second
	s.T6 = time.Second
	s.EstablishCommunicationTimeout = time.Second
	return s
}

// equipmentPair builds a host Equipment and an equipment-role Equipment
// wired to each other over an in-process loopback, with both HSMS sessions
// already Selected.
func equipmentPair(t *testing.T) (host *Equipment, equip *Equipment) {
	t.Helper()

	hostSettings := baseSettings(1, config.Host)
	equipSettings := baseSettings(1, config.Equipment)
	equipSettings.ModelName = "FAB-1000"
	equipSettings.SoftwareRevision = "1.0.0"

	hostTM := hsms.NewTransactionManager()
	equipTM := hsms.NewTransactionManager()

	reg := registry.New(registry.DefaultCatalogue())
	hostHandler := handler.New(hostSettings, reg)
	equipHandler := handler.New(equipSettings, reg)

	hostSession, hostConnCb := hsms.NewSession(hostSettings, hostTM, hsms.SessionCallbacks{OnDataMessage: hostHandler.Deliver})
	equipSession, equipConnCb := hsms.NewSession(equipSettings, equipTM, hsms.SessionCallbacks{OnDataMessage: equipHandler.Deliver})

	hostConn := &pairConn{}
	equipConn := &pairConn{}
	hostConn.send = func(data []byte) bool { go equipConnCb.OnData(data); return true }
	equipConn.send = func(data []byte) bool { go hostConnCb.OnData(data); return true }

	hostSession.Attach(hostConn)
	equipSession.Attach(equipConn)
	hostConnCb.OnConnected()
	equipConnCb.OnConnected()

	hostHandler.Attach(hostSession)
	equipHandler.Attach(equipSession)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, hostSession.SelectAsActive(ctx))
	require.Equal(t, hsms.Selected, equipSession.State())

	b := bus.NewBus(8)
	host = NewEquipment(hostSettings, hostHandler, b)
	equip = NewEquipment(equipSettings, equipHandler, b)
	return host, equip
}

func TestEquipment_EstablishCommunicationsReachesCommunicatingBothSides(t *testing.T) {
	host, equip := equipmentPair(t)

	equip.Enable()
	host.Enable()

	require.Eventually(t, func() bool {
		return host.Communication.State() == Communicating && equip.Communication.State() == Communicating
	}, time.Second, 5*time.Millisecond)
}

func TestEquipment_RequestOnlineAcceptedMovesEquipmentToLocal(t *testing.T) {
	host, equip := equipmentPair(t)
	equip.Enable()
	host.Enable()
	require.Eventually(t, func() bool { return equip.Communication.State() == Communicating }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	accepted, err := host.RequestOnline(ctx)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, Local, equip.Control.State())
}

func TestEquipment_RequestOfflineReturnsEquipmentToEquipmentOffline(t *testing.T) {
	host, equip := equipmentPair(t)
	equip.Enable()
	host.Enable()
	require.Eventually(t, func() bool { return equip.Communication.State() == Communicating }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := host.RequestOnline(ctx)
	require.NoError(t, err)

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	acknowledged, err := host.RequestOffline(ctx2)
	require.NoError(t, err)
	assert.True(t, acknowledged)
	assert.Equal(t, EquipmentOffline, equip.Control.State())
}
