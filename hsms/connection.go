package hsms

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/sirupsen/logrus"
)

func portString(port int) string {
	return strconv.Itoa(port)
}

// Callbacks is the upward callback surface a Connection drives, matching
// spec §4.4: on_data, on_connected, on_disconnecting, on_disconnected.
// A nil field is simply not invoked.
type Callbacks struct {
	OnData          func(data []byte)
	OnConnected     func()
	OnDisconnecting func()
	OnDisconnected  func()
}

// Connection is the uniform capability set of spec §4.4, implemented by
// ActiveConnection, PassiveConnection and the per-peer connections spawned
// by MultiPassiveListener.
type Connection interface {
	// Open establishes (or, for Passive, waits to accept) the underlying
	// socket. It blocks until the connection is up or ctx is canceled.
	Open(ctx context.Context) error
	// Close tears the connection down. disconnect() in spec §5: sets a
	// stop flag, waits for the receive goroutine to drain its current
	// bounded wait, then closes the socket. Safe to call multiple times.
	Close()
	// Send writes data to the peer. It returns false if the connection is
	// unusable; the caller must then treat the session as broken.
	Send(data []byte) bool
}

// baseConnection implements the receive-goroutine / send-guard concurrency
// contract of spec §5 shared by every Connection variant: one receiver
// goroutine performing a bounded-timeout readiness wait, a send guard
// serializing writes, and a busy-wait-free shutdown handshake replacing the
// Python original's `while not self._thread_running: pass` spin (see
// SPEC_FULL.md §11 and DESIGN.md).
type baseConnection struct {
	conn      net.Conn
	settings  config.Settings
	callbacks Callbacks
	logger    *logrus.Entry

	sendMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func newBaseConnection(conn net.Conn, settings config.Settings, callbacks Callbacks, logger *logrus.Entry) *baseConnection {
	return &baseConnection{conn: conn, settings: settings, callbacks: callbacks, logger: logger}
}

// startReceiving launches the single receive goroutine for this connection.
// It must be called at most once per connection lifetime.
func (c *baseConnection) startReceiving() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true
	c.mu.Unlock()

	if c.callbacks.OnConnected != nil {
		c.callbacks.OnConnected()
	}

	go c.receiveLoop(ctx)
}

// receiveLoop performs the bounded-timeout readiness wait of spec §5:
// every SelectTimeout tick it checks ctx, so Close() is always observed
// within that bound instead of spinning on a flag.
func (c *baseConnection) receiveLoop(ctx context.Context) {
	defer close(c.done)

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(c.settings.SelectTimeout))
		n, err := c.conn.Read(buf)
		if n > 0 && c.callbacks.OnData != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			c.callbacks.OnData(data)
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// EOF or hard error: peer closed or socket broken.
			c.logger.WithError(err).Debug("connection read ended")
			c.teardown()
			return
		}
	}
}

// teardown fires on_disconnecting, closes the socket, then fires
// on_disconnected. By the time on_disconnecting runs the receive loop has
// already stopped reading, matching the design decision recorded in
// DESIGN.md for the original's on_disconnecting race (open question ii).
func (c *baseConnection) teardown() {
	if c.callbacks.OnDisconnecting != nil {
		safeCall(c.logger, "on_disconnecting", c.callbacks.OnDisconnecting)
	}
	_ = c.conn.Close()
	if c.callbacks.OnDisconnected != nil {
		safeCall(c.logger, "on_disconnected", c.callbacks.OnDisconnected)
	}
}

func safeCall(logger *logrus.Entry, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("callback", name).WithField("panic", r).Error("callback panicked, ignoring")
		}
	}()
	fn()
}

// Send implements Connection.Send: a single send guard serializes writes
// (spec §5's "frames never interleave on the wire"), and a bounded
// writability wait is retried on timeout, mirroring the original's
// EWOULDBLOCK retry loop.
func (c *baseConnection) Send(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	remaining := data
	for len(remaining) > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.settings.SelectTimeout))
		n, err := c.conn.Write(remaining)
		remaining = remaining[n:]
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			c.logger.WithError(err).Warn("send failed")
			return false
		}
	}
	return true
}

// Close implements Connection.Close.
func (c *baseConnection) Close() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
}

// ActiveConnection dials settings.Address:settings.Port, retrying every T5
// until it connects or the caller cancels Open's context.
type ActiveConnection struct {
	*baseConnection
}

// NewActiveConnection creates an (unopened) active HSMS connection.
func NewActiveConnection(settings config.Settings, callbacks Callbacks) *ActiveConnection {
	logger := logx.For("hsms.active_connection").WithField("peer", address(settings))
	return &ActiveConnection{newBaseConnection(nil, settings, callbacks, logger)}
}

func address(settings config.Settings) string {
	return net.JoinHostPort(settings.Address, portString(settings.Port))
}

func (c *ActiveConnection) Open(ctx context.Context) error {
	for {
		dialer := net.Dialer{Timeout: c.settings.SelectTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", address(c.settings))
		if err == nil {
			c.conn = conn
			c.startReceiving()
			return nil
		}

		c.logger.WithError(err).Debug("active connect failed, retrying after T5")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.settings.T5):
		}
	}
}

// PassiveConnection binds settings.Address:settings.Port once and accepts a
// single peer.
type PassiveConnection struct {
	*baseConnection
	listener net.Listener
}

// NewPassiveConnection creates an (unopened) passive HSMS connection.
func NewPassiveConnection(settings config.Settings, callbacks Callbacks) *PassiveConnection {
	logger := logx.For("hsms.passive_connection").WithField("listen", address(settings))
	return &PassiveConnection{baseConnection: newBaseConnection(nil, settings, callbacks, logger)}
}

func (c *PassiveConnection) Open(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", address(c.settings))
	if err != nil {
		return err
	}
	c.listener = listener

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan acceptResult, 1)
	go func() {
		conn, err := listener.Accept()
		resultCh <- acceptResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		_ = listener.Close()
		return ctx.Err()
	case res := <-resultCh:
		_ = listener.Close()
		if res.err != nil {
			return res.err
		}
		c.conn = res.conn
		c.startReceiving()
		return nil
	}
}

func (c *PassiveConnection) Close() {
	if c.listener != nil {
		_ = c.listener.Close()
	}
	c.baseConnection.Close()
}

// MultiPassiveListener binds once and demultiplexes accepted sockets by
// remote (ip, port) into independent per-peer connections, spec §4.4.
// Each accepted peer is tagged with an xid.ID for log correlation, since two
// peers can share the same remote port across reconnects.
type MultiPassiveListener struct {
	settings config.Settings
	listener net.Listener
	logger   *logrus.Entry
	onPeer   func(peerID xid.ID, peerAddr string, peer Connection)

	mu    sync.Mutex
	peers map[string]*baseConnection
}

// NewMultiPassiveListener creates a listener that invokes onPeer for every
// newly accepted connection, with its own Callbacks wired in by the caller
// via the onPeer hook (typically: construct a Session around the returned
// Connection).
func NewMultiPassiveListener(settings config.Settings, onPeer func(peerID xid.ID, peerAddr string, peer Connection)) *MultiPassiveListener {
	return &MultiPassiveListener{
		settings: settings,
		logger:   logx.For("hsms.multi_passive_listener").WithField("listen", address(settings)),
		onPeer:   onPeer,
		peers:    make(map[string]*baseConnection),
	}
}

// Serve binds the listener and accepts peers until ctx is canceled.
func (l *MultiPassiveListener) Serve(ctx context.Context, callbacksFor func(peerAddr string) Callbacks) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", address(l.settings))
	if err != nil {
		return err
	}
	l.listener = listener

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				l.logger.WithError(err).Warn("accept failed")
				return err
			}
		}

		peerAddr := conn.RemoteAddr().String()
		peerID := xid.New()
		peerLogger := l.logger.WithField("peer_id", peerID.String()).WithField("peer_addr", peerAddr)

		bc := newBaseConnection(conn, l.settings, callbacksFor(peerAddr), peerLogger)
		l.mu.Lock()
		l.peers[peerAddr] = bc
		l.mu.Unlock()

		bc.startReceiving()
		if l.onPeer != nil {
			l.onPeer(peerID, peerAddr, bc)
		}
	}
}

// Close closes the listener and every peer connection it has accepted.
func (l *MultiPassiveListener) Close() {
	if l.listener != nil {
		_ = l.listener.Close()
	}
	l.mu.Lock()
	peers := make([]*baseConnection, 0, len(l.peers))
	for _, p := range l.peers {
		peers = append(peers, p)
	}
	l.mu.Unlock()
	for _, p := range peers {
		p.Close()
	}
}
