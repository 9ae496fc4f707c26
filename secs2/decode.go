package secs2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/secs2go/hsmsgem/internal/secserr"
)

// format codes, see getHeaderBytes in interface.go for the encoding side.
const (
	formatCodeList    = 0o00
	formatCodeBinary  = 0o10
	formatCodeBoolean = 0o11
	formatCodeASCII   = 0o20
	formatCodeJIS8    = 0o21
	formatCodeI8      = 0o30
	formatCodeI1      = 0o31
	formatCodeI2      = 0o32
	formatCodeI4      = 0o34
	formatCodeF8      = 0o40
	formatCodeF4      = 0o44
	formatCodeU8      = 0o50
	formatCodeU1      = 0o51
	formatCodeU2      = 0o52
	formatCodeU4      = 0o54
)

// DecodeItem decodes one SECS-II item (and, recursively, its children) from
// the front of data, and returns the number of bytes consumed.
//
// DecodeItem returns a *secserr.Error of Kind Codec on any malformed input:
// an unrecognized format code (BadFormatCode), a declared length that runs
// past the end of data (TruncatedItem), or a numeric vector whose byte count
// does not evenly divide its element width (TruncatedItem).
func DecodeItem(data []byte) (item ItemNode, consumed int, err error) {
	if len(data) == 0 {
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "TruncatedItem: empty input")
	}

	formatCode := int(data[0] >> 2)
	lengthByteCount := int(data[0] & 0b11)
	if lengthByteCount == 0 {
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "BadFormatCode: zero length bytes")
	}
	pos := 1

	if pos+lengthByteCount > len(data) {
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "TruncatedItem: length bytes missing")
	}
	length := 0
	for _, b := range data[pos : pos+lengthByteCount] {
		length = length<<8 | int(b)
	}
	pos += lengthByteCount

	switch formatCode {
	case formatCodeList:
		return decodeList(data, pos, length)
	case formatCodeASCII:
		return decodeASCII(data, pos, length)
	case formatCodeJIS8:
		return decodeJIS8(data, pos, length)
	case formatCodeBinary:
		return decodeBinary(data, pos, length)
	case formatCodeBoolean:
		return decodeBoolean(data, pos, length)
	case formatCodeF4:
		return decodeFloat(data, pos, length, 4)
	case formatCodeF8:
		return decodeFloat(data, pos, length, 8)
	case formatCodeI1:
		return decodeInt(data, pos, length, 1)
	case formatCodeI2:
		return decodeInt(data, pos, length, 2)
	case formatCodeI4:
		return decodeInt(data, pos, length, 4)
	case formatCodeI8:
		return decodeInt(data, pos, length, 8)
	case formatCodeU1:
		return decodeUint(data, pos, length, 1)
	case formatCodeU2:
		return decodeUint(data, pos, length, 2)
	case formatCodeU4:
		return decodeUint(data, pos, length, 4)
	case formatCodeU8:
		return decodeUint(data, pos, length, 8)
	default:
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", fmt.Sprintf("BadFormatCode: 0x%02x", formatCode))
	}
}

func needBytes(data []byte, pos, n int) error {
	if pos+n > len(data) {
		return secserr.New(secserr.Codec, "DecodeItem", "TruncatedItem: body exceeds remaining buffer")
	}
	return nil
}

func decodeList(data []byte, pos, count int) (ItemNode, int, error) {
	values := make([]ItemNode, 0, count)
	for i := 0; i < count; i++ {
		child, n, err := DecodeItem(data[pos:])
		if err != nil {
			return nil, 0, err
		}
		values = append(values, child)
		pos += n
	}
	return NewListNode(values...), pos, nil
}

func decodeASCII(data []byte, pos, length int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	for _, b := range data[pos : pos+length] {
		if b > 127 {
			return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "EncodingError: byte outside ASCII code page")
		}
	}
	return NewASCIINode(string(data[pos : pos+length])), pos + length, nil
}

func decodeJIS8(data []byte, pos, length int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	return NewJIS8Node(data[pos : pos+length]...), pos + length, nil
}

func decodeBinary(data []byte, pos, length int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	values := make([]interface{}, length)
	for i, v := range data[pos : pos+length] {
		values[i] = int(v)
	}
	return NewBinaryNode(values...), pos + length, nil
}

func decodeBoolean(data []byte, pos, length int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	values := make([]bool, length)
	for i, v := range data[pos : pos+length] {
		values[i] = v != 0
	}
	return NewBooleanNode(values...), pos + length, nil
}

func decodeFloat(data []byte, pos, length, byteSize int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	if length%byteSize != 0 {
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "TruncatedItem: float body not aligned to element width")
	}
	count := length / byteSize
	values := make([]interface{}, count)
	for i := 0; i < count; i++ {
		start := pos + i*byteSize
		if byteSize == 4 {
			values[i] = math.Float32frombits(binary.BigEndian.Uint32(data[start : start+4]))
		} else {
			values[i] = math.Float64frombits(binary.BigEndian.Uint64(data[start : start+8]))
		}
	}
	return NewFloatNode(byteSize, values...), pos + length, nil
}

func decodeInt(data []byte, pos, length, byteSize int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	if length%byteSize != 0 {
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "TruncatedItem: integer body not aligned to element width")
	}
	count := length / byteSize
	values := make([]interface{}, count)
	for i := 0; i < count; i++ {
		start := pos + i*byteSize
		switch byteSize {
		case 1:
			values[i] = int8(data[start])
		case 2:
			values[i] = int16(binary.BigEndian.Uint16(data[start : start+2]))
		case 4:
			values[i] = int32(binary.BigEndian.Uint32(data[start : start+4]))
		case 8:
			values[i] = int64(binary.BigEndian.Uint64(data[start : start+8]))
		}
	}
	return NewIntNode(byteSize, values...), pos + length, nil
}

func decodeUint(data []byte, pos, length, byteSize int) (ItemNode, int, error) {
	if err := needBytes(data, pos, length); err != nil {
		return nil, 0, err
	}
	if length%byteSize != 0 {
		return nil, 0, secserr.New(secserr.Codec, "DecodeItem", "TruncatedItem: unsigned body not aligned to element width")
	}
	count := length / byteSize
	values := make([]interface{}, count)
	for i := 0; i < count; i++ {
		start := pos + i*byteSize
		switch byteSize {
		case 1:
			values[i] = uint8(data[start])
		case 2:
			values[i] = binary.BigEndian.Uint16(data[start : start+2])
		case 4:
			values[i] = binary.BigEndian.Uint32(data[start : start+4])
		case 8:
			values[i] = binary.BigEndian.Uint64(data[start : start+8])
		}
	}
	return NewUintNode(byteSize, values...), pos + length, nil
}
