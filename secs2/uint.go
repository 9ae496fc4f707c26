package secs2

import (
	"fmt"
	"strconv"
	"strings"
)

// UintNode is an immutable data type that represents an unsigned integer
// item in a SECS-II message. Implements ItemNode.
type UintNode struct {
	byteSize int      // Byte size of the unsigned integers; should be either 1, 2, 4, or 8
	values   []uint64 // Array of unsigned integers

	// Rep invariants
	// - Each values[i] should be in range of [0, max], where max = 1<<(byteSize*8)-1
}

// NewUintNode creates a new UintNode that contains unsigned integer data.
//
// The byteSize should be either 1, 2, 4, or 8. Each value should be a
// numeric type representable within bytes of the byteSize.
func NewUintNode(byteSize int, values ...interface{}) ItemNode {
	if getDataByteLength(fmt.Sprintf("u%d", byteSize), len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]uint64, 0, len(values))
	for _, value := range values {
		switch value := value.(type) {
		case int:
			nodeValues = append(nodeValues, uint64(value))
		case int8:
			nodeValues = append(nodeValues, uint64(value))
		case int16:
			nodeValues = append(nodeValues, uint64(value))
		case int32:
			nodeValues = append(nodeValues, uint64(value))
		case int64:
			nodeValues = append(nodeValues, uint64(value))
		case uint:
			nodeValues = append(nodeValues, uint64(value))
		case uint8:
			nodeValues = append(nodeValues, uint64(value))
		case uint16:
			nodeValues = append(nodeValues, uint64(value))
		case uint32:
			nodeValues = append(nodeValues, uint64(value))
		case uint64:
			nodeValues = append(nodeValues, value)
		default:
			panic("input argument contains invalid type for UintNode")
		}
	}

	node := &UintNode{byteSize, nodeValues}
	node.checkRep()
	return node
}

// Size implements ItemNode.Size().
func (node *UintNode) Size() int {
	return len(node.values)
}

func (node *UintNode) Type() string {
	return "uint"
}

func (node *UintNode) Value() []uint64 {
	return node.values
}

// ToBytes implements ItemNode.ToBytes().
func (node *UintNode) ToBytes() []byte {
	result, err := getHeaderBytes(fmt.Sprintf("u%d", node.byteSize), node.Size())
	if err != nil {
		return []byte{}
	}

	for _, value := range node.values {
		for i := node.byteSize - 1; i >= 0; i-- {
			result = append(result, byte(value>>(i*8)))
		}
	}

	return result
}

// String returns the string representation of the node.
func (node *UintNode) String() string {
	if node.Size() == 0 {
		return fmt.Sprintf("<U%d[0]>", node.byteSize)
	}

	values := make([]string, 0, node.Size())
	for _, v := range node.values {
		values = append(values, strconv.FormatUint(v, 10))
	}

	return fmt.Sprintf("<U%d[%d] %v>", node.byteSize, node.Size(), strings.Join(values, " "))
}

func (node *UintNode) checkRep() {
	if node.byteSize != 1 && node.byteSize != 2 &&
		node.byteSize != 4 && node.byteSize != 8 {
		panic("invalid byte size")
	}

	for _, v := range node.values {
		if !(v <= uint64(1<<(node.byteSize*8)-1)) {
			panic("value overflow")
		}
	}
}
