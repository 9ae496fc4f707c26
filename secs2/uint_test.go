package secs2

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Testing Strategy:
//
// Refer to interface_test.go

// U1 type

func TestU1Node_ProducedByFactoryMethod(t *testing.T) {
	var tests = []struct {
		description     string        // Test case description
		input           []interface{} // Input to the factory method
		expectedSize    int           // expected result from Size()
		expectedToBytes []byte        // expected result from ToBytes()
		expectedString  string        // expected result from String()
	}{
		{
			description:     "Size: 0",
			input:           []interface{}{},
			expectedSize:    0,
			expectedToBytes: []byte{0xA5, 0},
			expectedString:  "<U1[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0xA5, 1, 0},
			expectedString:  "<U1[1] 0>",
		},
		{
			description:     "Size: 3",
			input:           []interface{}{0, 1, 2},
			expectedSize:    3,
			expectedToBytes: []byte{0xA5, 3, 0, 1, 2},
			expectedString:  "<U1[3] 0 1 2>",
		},
		{
			description:     "Size: 3, range boundaries",
			input:           []interface{}{128, 254, 255},
			expectedSize:    3,
			expectedToBytes: []byte{0xA5, 3, 128, 254, 255},
			expectedString:  "<U1[3] 128 254 255>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewUintNode(1, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

// U2 type

func TestU2Node_ProducedByFactoryMethod(t *testing.T) {
	var tests = []struct {
		description     string        // Test case description
		input           []interface{} // Input to the factory method
		expectedSize    int           // expected result from Size()
		expectedToBytes []byte        // expected result from ToBytes()
		expectedString  string        // expected result from String()
	}{
		{
			description:     "Size: 0",
			input:           []interface{}{},
			expectedSize:    0,
			expectedToBytes: []byte{0xA9, 0},
			expectedString:  "<U2[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0xA9, 2, 0, 0},
			expectedString:  "<U2[1] 0>",
		},
		{
			description:     "Size: 3",
			input:           []interface{}{0, 1, 2},
			expectedSize:    3,
			expectedToBytes: []byte{0xA9, 6, 0, 0, 0, 1, 0, 2},
			expectedString:  "<U2[3] 0 1 2>",
		},
		{
			description:     "Size: 3, range boundaries",
			input:           []interface{}{1024, 65534, 65535},
			expectedSize:    3,
			expectedToBytes: []byte{0xA9, 6, 0x04, 0x00, 0xFF, 0xFE, 0xFF, 0xFF},
			expectedString:  "<U2[3] 1024 65534 65535>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewUintNode(2, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

// U4 type

func TestU4Node_ProducedByFactoryMethod(t *testing.T) {
	var tests = []struct {
		description     string        // Test case description
		input           []interface{} // Input to the factory method
		expectedSize    int           // expected result from Size()
		expectedToBytes []byte        // expected result from ToBytes()
		expectedString  string        // expected result from String()
	}{
		{
			description:     "Size: 0",
			input:           []interface{}{},
			expectedSize:    0,
			expectedToBytes: []byte{0xB1, 0},
			expectedString:  "<U4[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0xB1, 4, 0, 0, 0, 0},
			expectedString:  "<U4[1] 0>",
		},
		{
			description:     "Size: 3",
			input:           []interface{}{0, 1, 2},
			expectedSize:    3,
			expectedToBytes: []byte{0xB1, 12, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 2},
			expectedString:  "<U4[3] 0 1 2>",
		},
		{
			description:  "Size: 3, range boundaries",
			input:        []interface{}{65536, 1<<32 - 2, 1<<32 - 1},
			expectedSize: 3,
			expectedToBytes: []byte{
				0xB1, 12,
				0x00, 0x01, 0x00, 0x00,
				0xFF, 0xFF, 0xFF, 0xFE,
				0xFF, 0xFF, 0xFF, 0xFF,
			},
			expectedString: "<U4[3] 65536 4294967294 4294967295>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewUintNode(4, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

// U8 type

func TestU8Node_ProducedByFactoryMethod(t *testing.T) {
	var tests = []struct {
		description     string        // Test case description
		input           []interface{} // Input to the factory method
		expectedSize    int           // expected result from Size()
		expectedToBytes []byte        // expected result from ToBytes()
		expectedString  string        // expected result from String()
	}{
		{
			description:     "Size: 0",
			input:           []interface{}{},
			expectedSize:    0,
			expectedToBytes: []byte{0xA1, 0},
			expectedString:  "<U8[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0xA1, 8, 0, 0, 0, 0, 0, 0, 0, 0},
			expectedString:  "<U8[1] 0>",
		},
		{
			description:  "Size: 3",
			input:         []interface{}{0, 1, 2},
			expectedSize:  3,
			expectedToBytes: []byte{
				0xA1, 24,
				0, 0, 0, 0, 0, 0, 0, 0,
				0, 0, 0, 0, 0, 0, 0, 1,
				0, 0, 0, 0, 0, 0, 0, 2,
			},
			expectedString: "<U8[3] 0 1 2>",
		},
		{
			description: "Size: 3, range boundaries",
			input:       []interface{}{math.MaxUint32 + 1, uint64(math.MaxUint64 - 1), uint64(math.MaxUint64)},
			expectedSize: 3,
			expectedToBytes: []byte{
				0xA1, 24,
				0, 0, 0, 1, 0, 0, 0, 0,
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE,
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			},
			expectedString: "<U8[3] 4294967296 18446744073709551614 18446744073709551615>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewUintNode(8, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

func TestU8Node_FactoryMethodInputTypes(t *testing.T) {
	node := NewUintNode(
		8,
		int(0), int8(1), int16(2), int32(4), int64(8),
		uint(16), uint8(32), uint16(64), uint32(128), uint64(256),
	)

	assert.Equal(t, 10, node.Size())
	assert.Equal(t, "<U8[10] 0 1 2 4 8 16 32 64 128 256>", fmt.Sprint(node))
}
