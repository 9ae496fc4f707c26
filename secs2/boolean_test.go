package secs2

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Testing Strategy:
//
// Refer to interface_test.go

func TestBooleanNode_ProducedByFactoryMethod(t *testing.T) {
	var tests = []struct {
		description     string // Test case description
		input           []bool // Input to the factory method
		expectedSize    int    // expected result from Size()
		expectedToBytes []byte // expected result from ToBytes()
		expectedString  string // expected result from String()
	}{
		{
			description:     "Size: 0",
			input:           []bool{},
			expectedSize:    0,
			expectedToBytes: []byte{37, 0},
			expectedString:  "<BOOLEAN[0]>",
		},
		{
			description:     "Size: 1",
			input:           []bool{false},
			expectedSize:    1,
			expectedToBytes: []byte{37, 1, 0},
			expectedString:  "<BOOLEAN[1] F>",
		},
		{
			description:     "Size: 3",
			input:           []bool{false, true, true},
			expectedSize:    3,
			expectedToBytes: []byte{37, 3, 0, 1, 1},
			expectedString:  "<BOOLEAN[3] F T T>",
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewBooleanNode(test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}
