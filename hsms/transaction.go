package hsms

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/secs2go/hsmsgem/secs2"
	"github.com/sirupsen/logrus"
)

// Outcome classifies how a pending reply slot was resolved.
type Outcome int

const (
	OutcomeReplied Outcome = iota
	OutcomeTimeout
	OutcomeDisconnected
)

// Result is delivered to the waiter registered for one primary.
type Result struct {
	Message secs2.HSMSMessage
	Outcome Outcome
}

// slot is a transaction-manager entry: spec §3 "Transaction slot".
type slot struct {
	deadline time.Time
	result   chan Result
	done     bool
}

// TransactionManager allocates system bytes and correlates primaries with
// their secondary replies by system bytes, spec §4.6. It is shared by a
// Session (which inserts timeout deadlines and dispatches replies) and a
// Handler (which registers waiters); its lifetime is tied to the Session
// that owns it.
//
// The central concurrency invariant (spec §4.6): Register happens-before
// the send that allocated the system bytes returns control to its caller,
// so a reply that arrives before the sender proceeds still matches.
type TransactionManager struct {
	counter uint32 // monotonically increasing 32-bit system-bytes counter

	mu    sync.Mutex
	slots map[uint32]*slot

	logger *logrus.Entry
}

// NewTransactionManager creates an empty transaction manager.
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{
		slots:  make(map[uint32]*slot),
		logger: logx.For("hsms.transaction_manager"),
	}
}

// NextSystemBytes allocates the next system-bytes value for this session.
// Spec invariant: within one session lifetime no two in-flight primaries
// share system bytes; atomic.AddUint32 guarantees this even if callers
// allocate concurrently.
func (tm *TransactionManager) NextSystemBytes() uint32 {
	return atomic.AddUint32(&tm.counter, 1)
}

// Register creates a pending-reply slot for systemBytes with the given
// deadline, and returns a channel that receives exactly one Result. Callers
// must call Register before writing the primary frame to the wire (the
// happens-before invariant above).
func (tm *TransactionManager) Register(systemBytes uint32, deadline time.Time) <-chan Result {
	ch := make(chan Result, 1)

	tm.mu.Lock()
	tm.slots[systemBytes] = &slot{deadline: deadline, result: ch}
	tm.mu.Unlock()

	return ch
}

// Complete looks up systemBytes and, if a slot is still pending, delivers
// msg to its waiter and removes the slot. It returns false if there was no
// matching (or already-completed) slot, in which case the caller (the
// Session's receive path) should treat the secondary as unsolicited.
func (tm *TransactionManager) Complete(systemBytes uint32, msg secs2.HSMSMessage) bool {
	tm.mu.Lock()
	s, ok := tm.slots[systemBytes]
	if ok {
		delete(tm.slots, systemBytes)
	}
	tm.mu.Unlock()

	if !ok || s.done {
		return false
	}
	s.done = true
	s.result <- Result{Message: msg, Outcome: OutcomeReplied}
	return true
}

// Sweep completes every slot whose deadline has passed with OutcomeTimeout.
// A Session's timer task calls Sweep at a granularity of at most 1 second,
// per spec §4.6.
func (tm *TransactionManager) Sweep(now time.Time) {
	tm.mu.Lock()
	var expired []*slot
	for sb, s := range tm.slots {
		if !s.deadline.After(now) {
			expired = append(expired, s)
			delete(tm.slots, sb)
		}
	}
	tm.mu.Unlock()

	for _, s := range expired {
		s.done = true
		s.result <- Result{Outcome: OutcomeTimeout}
	}
}

// DisconnectAll completes every still-pending slot with OutcomeDisconnected.
// Called once by Session.handleDisconnected so no waiter outlives the session.
func (tm *TransactionManager) DisconnectAll() {
	tm.mu.Lock()
	slots := tm.slots
	tm.slots = make(map[uint32]*slot)
	tm.mu.Unlock()

	for _, s := range slots {
		s.done = true
		s.result <- Result{Outcome: OutcomeDisconnected}
	}
}

// Pending reports the number of in-flight primaries awaiting a reply.
func (tm *TransactionManager) Pending() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.slots)
}
