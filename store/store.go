// Package store is the application-provided collaborator spec §6 calls out
// as the Upward interface for equipment constants and status variables:
// "equipment-constant / status-variable lookup delegated to an
// application-provided store with operations get(id) -> Item, set(id,
// Item) -> Ack, list() -> [(id, name, units, min, max)]". The core stack
// never constructs values of this interface's concrete type itself; S2F29/
// F30 (equipment constant namelist) and similar functions read through it.
package store

import "github.com/secs2go/hsmsgem/secs2"

// Ack is the small acknowledgement code a Store.Set returns, modeled on
// the SECS-II ACK byte family (0 = accepted).
type Ack int

const (
	AckOK           Ack = 0
	AckUnknownID    Ack = 1
	AckOutOfBounds  Ack = 2
	AckInvalidValue Ack = 3
)

// Item is one equipment constant or status variable entry: an id, its
// descriptive name and engineering units, an optional [Min, Max] bound
// (nil when unconstrained), and its current value.
type Item struct {
	ID    int
	Name  string
	Units string
	Min   secs2.ItemNode
	Max   secs2.ItemNode
	Value secs2.ItemNode
}

// Store is the upward interface spec §6 delegates equipment-constant and
// status-variable access to. Implementations must be safe for concurrent
// use: Get/Set are reachable from the receive goroutine's callback
// dispatch.
type Store interface {
	Get(id int) (Item, bool)
	Set(id int, value secs2.ItemNode) Ack
	List() []Item
}
