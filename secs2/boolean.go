package secs2

import (
	"fmt"
	"strings"
)

// BooleanNode is an immutable data type that represents a boolean item in a
// SECS-II message. Implements ItemNode.
type BooleanNode struct {
	values []bool // Array of boolean values
}

// NewBooleanNode creates a new BooleanNode from bool values.
func NewBooleanNode(values ...bool) ItemNode {
	if getDataByteLength("binary", len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]bool, len(values))
	copy(nodeValues, values)

	return &BooleanNode{nodeValues}
}

// Size implements ItemNode.Size().
func (node *BooleanNode) Size() int {
	return len(node.values)
}

func (node *BooleanNode) Type() string {
	return "boolean"
}

func (node *BooleanNode) Value() []bool {
	return node.values
}

// ToBytes implements ItemNode.ToBytes().
func (node *BooleanNode) ToBytes() []byte {
	result, err := getHeaderBytes("boolean", node.Size())
	if err != nil {
		return []byte{}
	}

	for _, value := range node.values {
		if value {
			result = append(result, 1)
		} else {
			result = append(result, 0)
		}
	}

	return result
}

// String returns the string representation of the node.
func (node *BooleanNode) String() string {
	if node.Size() == 0 {
		return "<BOOLEAN[0]>"
	}

	values := make([]string, 0, node.Size())
	for _, value := range node.values {
		if value {
			values = append(values, "T")
		} else {
			values = append(values, "F")
		}
	}

	return fmt.Sprintf("<BOOLEAN[%d] %v>", node.Size(), strings.Join(values, " "))
}
