package registry

import (
	"fmt"

	"github.com/secs2go/hsmsgem/internal/secserr"
	"golang.org/x/exp/slices"
)

// FunctionEntry is one catalogued SxxFyy definition, spec §4.7.
type FunctionEntry struct {
	Stream   int
	Function int
	Name     string
	Body     BodySchema

	// ReplyExpected is the w_bit default for primaries sent under this
	// entry; meaningless for secondaries (even Function).
	ReplyExpected bool

	// SecondaryStream/SecondaryFunction name this entry's reply, for a
	// primary; both zero means "no reply defined" (an even-Function entry,
	// or a primary that never replies).
	SecondaryStream   int
	SecondaryFunction int
}

func (e FunctionEntry) key() int {
	return e.Stream<<8 | e.Function
}

// Registry is the immutable, sorted function catalogue. Lookups use
// slices.BinarySearchFunc against entries kept sorted by (stream, function)
// at construction, giving O(log n) lookup without a hand-rolled sort/search.
type Registry struct {
	entries []FunctionEntry
}

// New builds a Registry from entries, which need not be pre-sorted. It
// panics if two entries share the same (stream, function), mirroring the
// checkRep-on-construction style of this stack's other immutable types: a
// colliding catalogue is a programming error caught at startup, not a
// runtime condition callers should need to handle.
func New(entries []FunctionEntry) *Registry {
	sorted := make([]FunctionEntry, len(entries))
	copy(sorted, entries)
	slices.SortFunc(sorted, func(a, b FunctionEntry) bool { return a.key() < b.key() })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].key() == sorted[i-1].key() {
			panic(fmt.Sprintf("registry: duplicate entry for S%dF%d", sorted[i].Stream, sorted[i].Function))
		}
	}

	return &Registry{entries: sorted}
}

// Lookup finds the catalogue entry for (stream, function).
func (r *Registry) Lookup(stream, function int) (FunctionEntry, bool) {
	target := stream<<8 | function
	idx, found := slices.BinarySearchFunc(r.entries, target, func(e FunctionEntry, target int) int {
		return e.key() - target
	})
	if !found {
		return FunctionEntry{}, false
	}
	return r.entries[idx], true
}

// Secondary finds the catalogue entry for primary's declared reply, if any.
func (r *Registry) Secondary(primary FunctionEntry) (FunctionEntry, bool) {
	if primary.SecondaryStream == 0 && primary.SecondaryFunction == 0 {
		return FunctionEntry{}, false
	}
	return r.Lookup(primary.SecondaryStream, primary.SecondaryFunction)
}

// UnknownFunction returns the secserr.UnknownFunction-kind error the Handler
// uses to decide an S9F3 reply is warranted, spec §4.7/§4.8.
func UnknownFunction(stream, function int) error {
	return secserr.New(secserr.UnknownFunction, "Registry.Lookup",
		fmt.Sprintf("no catalogue entry for S%dF%d", stream, function))
}

// Len reports the number of catalogued entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
