package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/hsms"
	"github.com/secs2go/hsmsgem/registry"
	"github.com/secs2go/hsmsgem/secs2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests Handler.
//
// Testing strategy:
//
// - Deliver dispatches a known, schema-conforming primary to its registered
//   callback.
// - Deliver replies S9F7 (Illegal Data) for a schema-violating primary,
//   when enabled and communicating.
// - Deliver replies S9F3 (Unknown Function) for an uncatalogued
//   primary with no callback, when enabled and communicating; sends
//   nothing when disabled.
// - SendAndWaitForResponse resolves once the matching secondary completes
//   the shared TransactionManager.
// - SendStreamFunction and SendResponse each write exactly one frame with
//   the expected wait-bit/function parity.

type fakeConn struct {
	mu     sync.Mutex
	frames chan []byte
	closed int
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (f *fakeConn) Open(_ context.Context) error { return nil }

func (f *fakeConn) Send(data []byte) bool {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames <- cp
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func testSettings() config.Settings {
	s := config.Default()
	s.Address = "127.0.0.1"
	s.Port = 5000
	s.SessionID = 1
	s.T3 = 200 * time.Millisecond
	return s
}

func newFixture(t *testing.T) (*Handler, *hsms.Session, *fakeConn) {
	t.Helper()
	settings := testSettings()
	tm := hsms.NewTransactionManager()
	session, _ := hsms.NewSession(settings, tm, hsms.SessionCallbacks{})
	conn := newFakeConn()
	session.Attach(conn)

	reg := registry.New(registry.DefaultCatalogue())
	h := New(settings, reg)
	h.Attach(session)

	return h, session, conn
}

func recvFrame(t *testing.T, conn *fakeConn) secs2.HSMSMessage {
	t.Helper()
	select {
	case frame := <-conn.frames:
		msg, err := hsms.DecodeFrame(frame)
		require.NoError(t, err)
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a sent frame")
		return nil
	}
}

func TestHandler_DeliverDispatchesToCallback(t *testing.T) {
	h, _, _ := newFixture(t)

	var received *secs2.DataMessage
	h.RegisterCallback(1, 1, func(msg *secs2.DataMessage) { received = msg })

	primary := secs2.NewHSMSDataMessage("", 1, 1, 1, "H<->E", secs2.NewEmptyItemNode(), 1, []byte{0, 0, 0, 1})
	h.Deliver(primary)

	require.NotNil(t, received)
	assert.Equal(t, 1, received.StreamCode())
}

func TestHandler_DeliverRepliesIllegalDataOnSchemaViolation(t *testing.T) {
	h, _, conn := newFixture(t)
	h.Enable()
	h.SetCommunicating(true)

	// S1F13 (Establish Communications Request) is catalogued with an empty
	// body schema; sending a non-empty body should be rejected.
	bad := secs2.NewHSMSDataMessage("", 1, 13, 1, "H<->E", secs2.NewASCIINode("unexpected"), 1, []byte{0, 0, 0, 2})
	h.Deliver(bad)

	reply := recvFrame(t, conn).(*secs2.DataMessage)
	assert.Equal(t, 9, reply.StreamCode())
	assert.Equal(t, sfIllegalData, reply.FunctionCode())
}

func TestHandler_DeliverRepliesUnknownFunctionWhenEnabled(t *testing.T) {
	h, _, conn := newFixture(t)
	h.Enable()
	h.SetCommunicating(true)

	unknown := secs2.NewHSMSDataMessage("", 64, 1, 1, "H<->E", secs2.NewEmptyItemNode(), 1, []byte{0, 0, 0, 3})
	h.Deliver(unknown)

	reply := recvFrame(t, conn).(*secs2.DataMessage)
	assert.Equal(t, 9, reply.StreamCode())
	assert.Equal(t, sfUnknownFunction, reply.FunctionCode())
}

func TestHandler_DeliverStaysSilentWhenDisabled(t *testing.T) {
	h, _, conn := newFixture(t)

	unknown := secs2.NewHSMSDataMessage("", 64, 1, 1, "H<->E", secs2.NewEmptyItemNode(), 1, []byte{0, 0, 0, 4})
	h.Deliver(unknown)

	select {
	case <-conn.frames:
		t.Fatal("handler should not reply while disabled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandler_SendAndWaitForResponseResolvesOnMatchingReply(t *testing.T) {
	h, session, conn := newFixture(t)

	resultCh := make(chan *secs2.DataMessage, 1)
	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		reply, err := h.SendAndWaitForResponse(ctx, 1, 13, secs2.NewEmptyItemNode())
		resultCh <- reply
		errCh <- err
	}()

	sent := recvFrame(t, conn).(*secs2.DataMessage)
	assert.Equal(t, 1, sent.StreamCode())
	assert.Equal(t, 13, sent.FunctionCode())

	secondary := secs2.NewHSMSDataMessage("", 1, 14, 0, "H<->E", secs2.NewEmptyItemNode(), 1, sent.SystemBytes())
	require.True(t, session.Transactions().Complete(sent.SystemBytesUint32(), secondary))

	require.NoError(t, <-errCh)
	reply := <-resultCh
	require.NotNil(t, reply)
	assert.Equal(t, 14, reply.FunctionCode())
}

func TestHandler_SendStreamFunctionSendsWaitBitFalse(t *testing.T) {
	h, _, conn := newFixture(t)
	require.NoError(t, h.SendStreamFunction(6, 11, secs2.NewEmptyItemNode()))

	sent := recvFrame(t, conn).(*secs2.DataMessage)
	assert.Equal(t, "false", sent.WaitBit())
}

func TestHandler_SendResponseRejectsOddFunction(t *testing.T) {
	h, _, _ := newFixture(t)
	err := h.SendResponse(1, 13, secs2.NewEmptyItemNode(), []byte{0, 0, 0, 1})
	assert.Error(t, err)
}

func TestHandler_SendResponseSendsTaggedSecondary(t *testing.T) {
	h, _, conn := newFixture(t)
	require.NoError(t, h.SendResponse(1, 14, secs2.NewEmptyItemNode(), []byte{0, 0, 0, 9}))

	sent := recvFrame(t, conn).(*secs2.DataMessage)
	assert.Equal(t, []byte{0, 0, 0, 9}, sent.SystemBytes())
}
