package secs2

import (
	"fmt"
	"strings"
)

// JIS8Node is an immutable data type that represents a JIS-8 (single-byte,
// 8-bit Katakana code page) string item in a SECS-II message.
// Implements ItemNode.
//
// Unlike ASCIINode, JIS8Node does not restrict its bytes to the 7-bit ASCII
// range; the full 8-bit code page is legal.
type JIS8Node struct {
	values []byte

	// Rep invariants
	// - none beyond len(values) fitting the item size limit
}

// NewJIS8Node creates a new JIS8Node from raw code-page bytes.
func NewJIS8Node(values ...byte) ItemNode {
	if getDataByteLength("jis8", len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]byte, len(values))
	copy(nodeValues, values)

	node := &JIS8Node{nodeValues}
	return node
}

// Size implements ItemNode.Size().
func (node *JIS8Node) Size() int {
	return len(node.values)
}

func (node *JIS8Node) Type() string {
	return "jis8"
}

// Value returns the raw code-page bytes of this node.
func (node *JIS8Node) Value() []byte {
	result := make([]byte, len(node.values))
	copy(result, node.values)
	return result
}

// ToBytes implements ItemNode.ToBytes().
func (node *JIS8Node) ToBytes() []byte {
	result, err := getHeaderBytes("jis8", node.Size())
	if err != nil {
		return []byte{}
	}
	return append(result, node.values...)
}

// String returns the string representation of the node.
func (node *JIS8Node) String() string {
	if len(node.values) == 0 {
		return "<J8[0]>"
	}

	var sb strings.Builder
	for i, b := range node.values {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "0x%02X", b)
	}
	return fmt.Sprintf("<J8[%d] %s>", len(node.values), sb.String())
}
