package secs2

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FloatNode is an immutable data type that represents a float item in a
// SECS-II message. Implements ItemNode.
//
// Infinity and NaN are not supported.
//
// String representation of the float values will use the golang's %g formatting.
// Refer to the documentation of the fmt package (https://golang.org/pkg/fmt/).
type FloatNode struct {
	byteSize int       // Byte size of the floats; should be either 4 or 8
	values   []float64 // Array of floats

	// Rep invariants
	// - Each values[i] should be representable in bytes of byteSize
	// - math.IsInf(values[i], 0) == false && math.IsNaN(values[i]) == false
}

// NewFloatNode creates a new FloatNode that contains float data.
//
// The byteSize should be either 4 or 8. Each value should be a numeric
// type representable within bytes of the byteSize.
func NewFloatNode(byteSize int, values ...interface{}) ItemNode {
	if getDataByteLength(fmt.Sprintf("f%d", byteSize), len(values)) > MAX_BYTE_SIZE {
		panic("item node size limit exceeded")
	}

	nodeValues := make([]float64, 0, len(values))
	for _, value := range values {
		switch value := value.(type) {
		case int:
			nodeValues = append(nodeValues, float64(value))
		case int8:
			nodeValues = append(nodeValues, float64(value))
		case int16:
			nodeValues = append(nodeValues, float64(value))
		case int32:
			nodeValues = append(nodeValues, float64(value))
		case int64:
			nodeValues = append(nodeValues, float64(value))
		case uint:
			nodeValues = append(nodeValues, float64(value))
		case uint8:
			nodeValues = append(nodeValues, float64(value))
		case uint16:
			nodeValues = append(nodeValues, float64(value))
		case uint32:
			nodeValues = append(nodeValues, float64(value))
		case uint64:
			nodeValues = append(nodeValues, float64(value))
		case float32:
			nodeValues = append(nodeValues, float64(value))
		case float64:
			nodeValues = append(nodeValues, value)
		default:
			panic("input argument contains invalid type for FloatNode")
		}
	}

	node := &FloatNode{byteSize, nodeValues}
	node.checkRep()
	return node
}

// Size implements ItemNode.Size().
func (node *FloatNode) Size() int {
	return len(node.values)
}

func (node *FloatNode) Type() string {
	return "float"
}

func (node *FloatNode) Value() []float64 {
	return node.values
}

// ToBytes implements ItemNode.ToBytes().
func (node *FloatNode) ToBytes() []byte {
	result, err := getHeaderBytes(fmt.Sprintf("f%d", node.byteSize), node.Size())
	if err != nil {
		return []byte{}
	}

	if node.byteSize == 4 {
		for _, value := range node.values {
			bits := math.Float32bits(float32(value))
			result = append(result, byte(bits>>24))
			result = append(result, byte(bits>>16))
			result = append(result, byte(bits>>8))
			result = append(result, byte(bits))
		}
	} else {
		for _, value := range node.values {
			bits := math.Float64bits(value)
			result = append(result, byte(bits>>56))
			result = append(result, byte(bits>>48))
			result = append(result, byte(bits>>40))
			result = append(result, byte(bits>>32))
			result = append(result, byte(bits>>24))
			result = append(result, byte(bits>>16))
			result = append(result, byte(bits>>8))
			result = append(result, byte(bits))
		}
	}

	return result
}

// String returns the string representation of the node.
//
// The float values will be represented by the golang's %g formatting.
func (node *FloatNode) String() string {
	if node.Size() == 0 {
		return fmt.Sprintf("<F%d[0]>", node.byteSize)
	}

	values := make([]string, 0, node.Size())
	for _, v := range node.values {
		values = append(values, strconv.FormatFloat(v, 'g', -1, node.byteSize*8))
	}

	return fmt.Sprintf("<F%d[%d] %v>", node.byteSize, node.Size(), strings.Join(values, " "))
}

func (node *FloatNode) checkRep() {
	if node.byteSize != 4 && node.byteSize != 8 {
		panic("invalid byte size")
	}

	max := math.MaxFloat64
	if node.byteSize == 4 {
		max = math.MaxFloat32
	}
	for _, v := range node.values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			panic("invalid value")
		}

		if !(-max <= v && v <= max) {
			panic("value overflow")
		}
	}
}
