package store

import (
	"sort"
	"sync"

	"github.com/secs2go/hsmsgem/secs2"
)

// MemoryStore is the in-memory reference Store: a fixed, pre-seeded set of
// equipment constants/status variables guarded by one mutex, mirroring the
// rest of this module's "immutable catalogue, mutable slot" shape
// (registry.Registry vs. hsms.TransactionManager).
type MemoryStore struct {
	mu    sync.RWMutex
	items map[int]Item
}

// NewMemoryStore creates a MemoryStore seeded with seed, keyed by each
// Item's ID. Later Set calls may only update the Value of a seeded
// id; Set on an unseeded id returns AckUnknownID, since ids, names and
// units form a fixed catalogue agreed out of band with the host.
func NewMemoryStore(seed []Item) *MemoryStore {
	items := make(map[int]Item, len(seed))
	for _, item := range seed {
		items[item.ID] = item
	}
	return &MemoryStore{items: items}
}

// Get implements Store.
func (s *MemoryStore) Get(id int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Set implements Store. An item with neither Min nor Max accepts any value.
// An item with a bound accepts only a Uint, Int or Float value (the numeric
// kinds secs2 exposes a Value() accessor for) whose first element lies
// within the bounds; a value of another kind returns AckInvalidValue.
func (s *MemoryStore) Set(id int, value secs2.ItemNode) Ack {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return AckUnknownID
	}

	if ack := checkBounds(item, value); ack != AckOK {
		return ack
	}

	item.Value = value
	s.items[id] = item
	return AckOK
}

// List implements Store, returning items sorted by ID for a stable,
// reproducible S2F30-style namelist reply.
func (s *MemoryStore) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func checkBounds(item Item, value secs2.ItemNode) Ack {
	min, minOK := numericValue(item.Min)
	max, maxOK := numericValue(item.Max)
	if !minOK && !maxOK {
		return AckOK
	}

	v, ok := numericValue(value)
	if !ok {
		return AckInvalidValue
	}
	if minOK && v < min {
		return AckOutOfBounds
	}
	if maxOK && v > max {
		return AckOutOfBounds
	}
	return AckOK
}

func numericValue(item secs2.ItemNode) (float64, bool) {
	switch node := item.(type) {
	case *secs2.UintNode:
		values := node.Value()
		if len(values) == 0 {
			return 0, false
		}
		return float64(values[0]), true
	case *secs2.IntNode:
		values := node.Value()
		if len(values) == 0 {
			return 0, false
		}
		return float64(values[0]), true
	case *secs2.FloatNode:
		values := node.Value()
		if len(values) == 0 {
			return 0, false
		}
		return values[0], true
	default:
		return 0, false
	}
}
