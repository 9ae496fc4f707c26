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

// I1 type

func TestI1Node_ProducedByFactoryMethod(t *testing.T) {
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
			expectedToBytes: []byte{0x65, 0},
			expectedString:  "<I1[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0x65, 1, 0},
			expectedString:  "<I1[1] 0>",
		},
		{
			description:     "Size: 3",
			input:           []interface{}{-1, 0, 1},
			expectedSize:    3,
			expectedToBytes: []byte{0x65, 3, 0xFF, 0, 1},
			expectedString:  "<I1[3] -1 0 1>",
		},
		{
			description:     "Size: 4, range boundaries",
			input:           []interface{}{-128, -64, 64, 127},
			expectedSize:    4,
			expectedToBytes: []byte{0x65, 4, 0x80, 0xC0, 0x40, 0x7F},
			expectedString:  "<I1[4] -128 -64 64 127>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewIntNode(1, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

// I2 type

func TestI2Node_ProducedByFactoryMethod(t *testing.T) {
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
			expectedToBytes: []byte{0x69, 0},
			expectedString:  "<I2[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0x69, 2, 0, 0},
			expectedString:  "<I2[1] 0>",
		},
		{
			description:     "Size: 3",
			input:           []interface{}{-1, 0, 1},
			expectedSize:    3,
			expectedToBytes: []byte{0x69, 6, 0xFF, 0xFF, 0, 0, 0, 1},
			expectedString:  "<I2[3] -1 0 1>",
		},
		{
			description:     "Size: 4, range boundaries",
			input:           []interface{}{-32768, -32767, 32766, 32767},
			expectedSize:    4,
			expectedToBytes: []byte{0x69, 8, 0x80, 0x00, 0x80, 0x01, 0x7F, 0xFE, 0x7F, 0xFF},
			expectedString:  "<I2[4] -32768 -32767 32766 32767>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewIntNode(2, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

// I4 type

func TestI4Node_ProducedByFactoryMethod(t *testing.T) {
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
			expectedToBytes: []byte{0x71, 0},
			expectedString:  "<I4[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0x71, 4, 0, 0, 0, 0},
			expectedString:  "<I4[1] 0>",
		},
		{
			description:     "Size: 3",
			input:           []interface{}{-1, 0, 1},
			expectedSize:    3,
			expectedToBytes: []byte{0x71, 12, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0, 0, 0, 0, 1},
			expectedString:  "<I4[3] -1 0 1>",
		},
		{
			description:  "Size: 4, range boundaries",
			input:        []interface{}{-2147483648, -2147483647, 2147483646, 2147483647},
			expectedSize: 4,
			expectedToBytes: []byte{
				0x71, 16,
				0x80, 0x00, 0x00, 0x00,
				0x80, 0x00, 0x00, 0x01,
				0x7F, 0xFF, 0xFF, 0xFE,
				0x7F, 0xFF, 0xFF, 0xFF,
			},
			expectedString: "<I4[4] -2147483648 -2147483647 2147483646 2147483647>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewIntNode(4, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

// I8 type

func TestI8Node_ProducedByFactoryMethod(t *testing.T) {
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
			expectedToBytes: []byte{0x61, 0},
			expectedString:  "<I8[0]>",
		},
		{
			description:     "Size: 1",
			input:           []interface{}{0},
			expectedSize:    1,
			expectedToBytes: []byte{0x61, 8, 0, 0, 0, 0, 0, 0, 0, 0},
			expectedString:  "<I8[1] 0>",
		},
		{
			description:  "Size: 3",
			input:        []interface{}{-1, 0, 1},
			expectedSize: 3,
			expectedToBytes: []byte{
				0x61, 24,
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
				0, 0, 0, 0, 0, 0, 0, 0,
				0, 0, 0, 0, 0, 0, 0, 1,
			},
			expectedString: "<I8[3] -1 0 1>",
		},
		{
			description:  "Size: 4, range boundaries",
			input:        []interface{}{math.MinInt64, math.MinInt64 + 1, math.MaxInt64 - 1, math.MaxInt64},
			expectedSize: 4,
			expectedToBytes: []byte{
				0x61, 32,
				0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
				0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE,
				0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			},
			expectedString: "<I8[4] -9223372036854775808 -9223372036854775807 9223372036854775806 9223372036854775807>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewIntNode(8, test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}

func TestI8Node_FactoryMethodInputTypes(t *testing.T) {
	node := NewIntNode(
		8,
		int(-16), int8(-8), int16(-4), int32(-2), int64(-1),
		uint(0), uint8(1), uint16(2), uint32(4), uint64(8),
	)

	assert.Equal(t, 10, node.Size())
	assert.Equal(t, "<I8[10] -16 -8 -4 -2 -1 0 1 2 4 8>", fmt.Sprint(node))
}
