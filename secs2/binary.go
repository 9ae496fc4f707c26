package secs2

import (
	"fmt"
	"strconv"
	"strings"
)

// BinaryNode is an immutable data type that represents a binary item in a
// SECS-II message. Implements ItemNode.
type BinaryNode struct {
	values []int // Array of binary values between [0, 255], represented as integers

	// Rep invariants
	// - Each values[i] should be in range of [0, 255]
}

// NewBinaryNode creates a new BinaryNode.
//
// Each input argument should have one of following two forms.
// 1. An integer between [0, 255].
// 2. A string with binary format such as "0b1001" between [0, 255].
func NewBinaryNode(values ...interface{}) ItemNode {
	if getDataByteLength("binary", len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]int, 0, len(values))
	for _, value := range values {
		if v, ok := value.(int); ok {
			nodeValues = append(nodeValues, v)
		} else if v, ok := value.(string); ok && strings.HasPrefix(v, "0b") {
			vAsInt64, _ := strconv.ParseInt(v, 0, 0)
			nodeValues = append(nodeValues, int(vAsInt64))
		} else {
			panic("input argument contains invalid type for BinaryNode")
		}
	}

	node := &BinaryNode{nodeValues}
	node.checkRep()
	return node
}

// Size implements ItemNode.Size().
func (node *BinaryNode) Size() int {
	return len(node.values)
}

func (node *BinaryNode) Type() string {
	return "binary"
}

func (node *BinaryNode) Value() []int {
	return node.values
}

// ToBytes implements ItemNode.ToBytes().
func (node *BinaryNode) ToBytes() []byte {
	result, err := getHeaderBytes("binary", node.Size())
	if err != nil {
		return []byte{}
	}

	for _, value := range node.values {
		result = append(result, byte(value))
	}

	return result
}

// String returns the string representation of the node.
func (node *BinaryNode) String() string {
	if node.Size() == 0 {
		return "<B[0]>"
	}

	values := make([]string, 0, node.Size())
	for _, value := range node.values {
		values = append(values, "0b"+strconv.FormatInt(int64(value), 2))
	}

	return fmt.Sprintf("<B[%d] %v>", node.Size(), strings.Join(values, " "))
}

func (node *BinaryNode) checkRep() {
	for _, v := range node.values {
		if !(0 <= v && v < 256) {
			panic("value overflow")
		}
	}
}
