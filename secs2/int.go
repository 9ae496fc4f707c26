package secs2

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IntNode is an immutable data type that represents a signed integer item
// in a SECS-II message. Implements ItemNode.
type IntNode struct {
	byteSize int     // Byte size of the integers; should be either 1, 2, 4, or 8
	values   []int64 // Array of integers

	// Rep invariants
	// - Each values[i] should be representable in bytes of byteSize.
}

// NewIntNode creates a new IntNode that contains integer data.
//
// The byteSize should be either 1, 2, 4, or 8. Each value should be a
// numeric type representable within bytes of the byteSize.
func NewIntNode(byteSize int, values ...interface{}) ItemNode {
	if getDataByteLength(fmt.Sprintf("i%d", byteSize), len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]int64, 0, len(values))
	for _, value := range values {
		switch value := value.(type) {
		case int:
			nodeValues = append(nodeValues, int64(value))
		case int8:
			nodeValues = append(nodeValues, int64(value))
		case int16:
			nodeValues = append(nodeValues, int64(value))
		case int32:
			nodeValues = append(nodeValues, int64(value))
		case int64:
			nodeValues = append(nodeValues, value)
		case uint:
			nodeValues = append(nodeValues, int64(value))
		case uint8:
			nodeValues = append(nodeValues, int64(value))
		case uint16:
			nodeValues = append(nodeValues, int64(value))
		case uint32:
			nodeValues = append(nodeValues, int64(value))
		case uint64:
			if value > math.MaxInt64 {
				panic("value overflow")
			}
			nodeValues = append(nodeValues, int64(value))
		default:
			panic("input argument contains invalid type for IntNode")
		}
	}

	node := &IntNode{byteSize, nodeValues}
	node.checkRep()
	return node
}

// Size implements ItemNode.Size().
func (node *IntNode) Size() int {
	return len(node.values)
}

func (node *IntNode) Type() string {
	return "int"
}

func (node *IntNode) Value() []int64 {
	return node.values
}

// ToBytes implements ItemNode.ToBytes().
func (node *IntNode) ToBytes() []byte {
	result, err := getHeaderBytes(fmt.Sprintf("i%d", node.byteSize), node.Size())
	if err != nil {
		return []byte{}
	}

	for _, value := range node.values {
		bits := uint64(value)
		for i := node.byteSize - 1; i >= 0; i-- {
			result = append(result, byte(bits>>(i*8)))
		}
	}

	return result
}

// String returns the string representation of the node.
func (node *IntNode) String() string {
	if node.Size() == 0 {
		return fmt.Sprintf("<I%d[0]>", node.byteSize)
	}

	values := make([]string, 0, node.Size())
	for _, v := range node.values {
		values = append(values, strconv.FormatInt(v, 10))
	}

	return fmt.Sprintf("<I%d[%d] %v>", node.byteSize, node.Size(), strings.Join(values, " "))
}

func (node *IntNode) checkRep() {
	if node.byteSize != 1 && node.byteSize != 2 &&
		node.byteSize != 4 && node.byteSize != 8 {
		panic("invalid byte size")
	}

	var (
		max int64 = 1<<(node.byteSize*8-1) - 1
		min int64 = -1 << (node.byteSize*8 - 1)
	)
	for _, v := range node.values {
		if !(min <= v && v <= max) {
			panic("value overflow")
		}
	}
}
