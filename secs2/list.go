package secs2

import (
	"fmt"
	"strings"
)

// ListNode is an immutable data type that represents a list item in a
// SECS-II message. Implements ItemNode.
//
// It contains other item nodes, and the size of ListNode is equal to the
// number of items it contains, counted *non-recursively*.
type ListNode struct {
	values []ItemNode // Array of ItemNodes that this ListNode contains
}

// NewListNode creates a new ListNode that contains multiple data item nodes.
func NewListNode(values ...ItemNode) ItemNode {
	if getDataByteLength("list", len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]ItemNode, len(values))
	copy(nodeValues, values)

	return &ListNode{nodeValues}
}

// Size implements ItemNode.Size().
func (node *ListNode) Size() int {
	return len(node.values)
}

func (node *ListNode) Type() string {
	return "list"
}

func (node *ListNode) Value() []ItemNode {
	return node.values
}

// ToBytes implements ItemNode.ToBytes().
func (node *ListNode) ToBytes() []byte {
	result, err := getHeaderBytes("list", node.Size())
	if err != nil {
		return []byte{}
	}

	for _, item := range node.values {
		// Call ToBytes() of child node recursively
		result = append(result, item.ToBytes()...)
	}

	return result
}

// String returns the string representation of the node.
func (node *ListNode) String() string {
	return node.stringIndented(0)
}

// stringIndented returns the indented string representation of this list node.
// Each indent level adds 2 spaces as prefix to each line.
// The indent level should be non-negative.
func (node *ListNode) stringIndented(level int) string {
	indentStr := strings.Repeat("  ", level)
	if node.Size() == 0 {
		return fmt.Sprintf("%v<L[0]>", indentStr)
	}

	var sb strings.Builder
	for _, val := range node.values {
		if v, ok := val.(*ListNode); ok {
			// Nested ListNode
			fmt.Fprintln(&sb, v.stringIndented(level+1))
		} else {
			fmt.Fprintf(&sb, "%v  %v\n", indentStr, val)
		}
	}

	return fmt.Sprintf("%v<L[%d]\n%v%v>", indentStr, node.Size(), sb.String(), indentStr)
}
