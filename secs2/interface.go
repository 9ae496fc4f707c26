package secs2

import "fmt"

const MAX_BYTE_SIZE = 1<<24 - 1

// ItemNode is an interface of immutable data types, that represents a data
// item in a SECS-II message. E.g., a boolean node should be able to
// represent a SECS-II data item of <BOOLEAN[3] T F T>.
//
// There is a limit on the number of data values that an ItemNode can
// contain, as specified in the SEMI Standard. The limit is expressed as
// following equation; n * b <= 16,777,215 (3 bytes), where n is the number
// of the data values in a ItemNode, and b is bytes to represent a data
// value which is different for each ItemNode type.
type ItemNode interface {
	// Size returns the array size of the data item.
	Size() int

	// ToBytes returns the byte representation of the data item.
	ToBytes() []byte
}

// emptyItemNode is an immutable data type that represents an empty data
// item node. It will be used mostly on error cases.
type emptyItemNode struct{}

// NewEmptyItemNode creates a new empty data item node.
func NewEmptyItemNode() ItemNode {
	return emptyItemNode{}
}

// Size implements ItemNode.Size().
func (node emptyItemNode) Size() int {
	return 0
}

// ToBytes implements ItemNode.ToBytes()
func (node emptyItemNode) ToBytes() []byte {
	return []byte{}
}

// String returns the string representation of the node.
func (node emptyItemNode) String() string {
	return ""
}

// Helper functions

// getDataByteLength returns the number of bytes to represent a data with
// specified type and size.
//
// The input argument typ should be one of "list", "binary", "boolean", "ascii",
// "jis8", "i8", "i1", "i2", "i4", "f8", "f4", "u8", "u1", "u2", or "u4".
// The input argument size means the number of values in a item node.
func getDataByteLength(typ string, size int) int {
	bytePerValue := map[string]int{
		"list":    1,
		"binary":  1,
		"boolean": 1,
		"ascii":   1,
		"jis8":    1,
		"i8":      8,
		"i1":      1,
		"i2":      2,
		"i4":      4,
		"f8":      8,
		"f4":      4,
		"u8":      8,
		"u1":      1,
		"u2":      2,
		"u4":      4,
	}
	return size * bytePerValue[typ]
}

// getHeaderBytes returns the header bytes, which consist of the format byte
// and the length bytes, of a SECS-II data item.
//
// The input argument typ should be one of "list", "binary", "boolean", "ascii",
// "jis8", "i8", "i1", "i2", "i4", "f8", "f4", "u8", "u1", "u2", or "u4".
// The input argument size means the number of values in a item node.
// An error is returned when the header bytes cannot be created.
func getHeaderBytes(typ string, size int) ([]byte, error) {
	formatCode := map[string]int{
		"list":    0o00,
		"binary":  0o10,
		"boolean": 0o11,
		"ascii":   0o20,
		"jis8":    0o21,
		"i8":      0o30,
		"i1":      0o31,
		"i2":      0o32,
		"i4":      0o34,
		"f8":      0o40,
		"f4":      0o44,
		"u8":      0o50,
		"u1":      0o51,
		"u2":      0o52,
		"u4":      0o54,
	}

	dataByteLength := getDataByteLength(typ, size)
	if dataByteLength > MAX_BYTE_SIZE {
		return []byte{}, fmt.Errorf("size limit exceeded")
	}

	lengthBytes := []byte{
		byte(dataByteLength >> 16),
		byte(dataByteLength >> 8),
		byte(dataByteLength),
	}

	if lengthBytes[0] == 0 {
		if lengthBytes[1] == 0 {
			lengthBytes = lengthBytes[2:]
		} else {
			lengthBytes = lengthBytes[1:]
		}
	}

	result := []byte{}
	result = append(result, byte(formatCode[typ]<<2+len(lengthBytes)))
	result = append(result, lengthBytes...)
	return result, nil
}
