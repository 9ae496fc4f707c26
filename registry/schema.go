// Package registry implements the immutable per-(stream,function) function
// catalogue of spec §4.7: for every SxxFyy, an expected body schema, whether
// a reply is expected, and the secondary's (stream, function) for primaries.
// It generalizes the original's per-data-item subclass
// (original_source/secsgem/secs/data_items/ecname.py: a named, typed,
// sized constant) into one uniform DataItemSchema shape, and its per-function
// "expected structure" documentation into BodySchema, a recursive schema in
// the same type algebra as package secs2's Item tree.
package registry

import (
	"fmt"

	"github.com/secs2go/hsmsgem/internal/secserr"
	"github.com/secs2go/hsmsgem/secs2"
)

// ItemKind names a SECS-II primitive or composite kind using the same
// strings secs2's concrete node types answer from their Type() method.
type ItemKind string

const (
	KindList    ItemKind = "list"
	KindASCII   ItemKind = "ascii"
	KindJIS8    ItemKind = "jis8"
	KindBinary  ItemKind = "binary"
	KindBoolean ItemKind = "boolean"
	KindFloat   ItemKind = "float"
	KindInt     ItemKind = "int"
	KindUint    ItemKind = "uint"
	KindEmpty   ItemKind = "empty"
	// KindAny accepts any item kind; used for functions whose body schema
	// is left unconstrained (the S1F2 On Line Data reply, for example).
	KindAny ItemKind = "any"
)

// typed is satisfied by every concrete secs2 node type (though not part of
// the secs2.ItemNode interface itself).
type typed interface {
	Type() string
}

func kindOf(item secs2.ItemNode) ItemKind {
	if t, ok := item.(typed); ok {
		return ItemKind(t.Type())
	}
	return KindEmpty
}

// DataItemSchema names one equipment constant/status variable/data item the
// way original_source's DataItemBase subclasses did: a name, an expected
// kind, and a size bound. Used for named elements inside a BodySchema's
// Elements (e.g. one ECID entry of an EC namelist reply).
type DataItemSchema struct {
	Name   string
	Kind   ItemKind
	MaxLen int // 0 means unbounded
}

// BodySchema is a recursive schema for a message body, in the same type
// algebra as secs2's tagged Item tree (spec §4.1, §4.7). Elements, when
// non-empty, constrains a KindList body position-by-position; a body with
// more elements than len(Elements) leaves the extra positions unconstrained
// (the common "at least this many named fields" case from data-item docs).
type BodySchema struct {
	Name     string
	Kind     ItemKind
	MaxLen   int
	Elements []BodySchema
}

// Any is the unconstrained schema: every item matches it.
var Any = BodySchema{Kind: KindAny}

// Validate reports whether item conforms to s, returning a *secserr.Error of
// Kind Schema on the first violation found.
func (s BodySchema) Validate(item secs2.ItemNode) error {
	return s.validate(item, "$")
}

func (s BodySchema) validate(item secs2.ItemNode, path string) error {
	if s.Kind == KindAny {
		return nil
	}

	got := kindOf(item)
	if got != s.Kind {
		return secserr.New(secserr.Schema, "BodySchema.Validate",
			fmt.Sprintf("%s: expected kind %s, got %s", path, s.Kind, got))
	}

	if s.MaxLen > 0 && item.Size() > s.MaxLen {
		return secserr.New(secserr.Schema, "BodySchema.Validate",
			fmt.Sprintf("%s: size %d exceeds max %d", path, item.Size(), s.MaxLen))
	}

	if s.Kind == KindList && len(s.Elements) > 0 {
		list, ok := item.(*secs2.ListNode)
		if !ok {
			return secserr.New(secserr.Schema, "BodySchema.Validate", path+": expected *secs2.ListNode")
		}
		values := list.Value()
		if len(s.Elements) > len(values) {
			return secserr.New(secserr.Schema, "BodySchema.Validate",
				fmt.Sprintf("%s: expected at least %d elements, got %d", path, len(s.Elements), len(values)))
		}
		for i, elementSchema := range s.Elements {
			if err := elementSchema.validate(values[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}

	return nil
}
