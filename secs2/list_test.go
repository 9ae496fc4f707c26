package secs2

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Testing Strategy:
//
// Refer to interface.go
// ToBytes(), String() should run recursively.
//
// Partitions:
//
// - Size of ListNode: 0, 1, ...
// - Data value type in ListNode: ordinary ItemNode, nested ListNode
// - The number of nested ListNode: 0, 1, ...

func TestListNode_ProducedByFactoryMethod(t *testing.T) {
	var tests = []struct {
		description     string     // Test case description
		input           []ItemNode // Input to the factory method
		expectedSize    int        // expected result from Size()
		expectedToBytes []byte     // expected result from ToBytes()
		expectedString  string     // expected result from String()
	}{
		{
			description:     "Size: 0",
			input:           []ItemNode{},
			expectedSize:    0,
			expectedToBytes: []byte{0x01, 0},
			expectedString:  `<L[0]>`,
		},
		{
			description:     "Size: 1, Contains ordinary ItemNode",
			input:           []ItemNode{NewASCIINode("text")},
			expectedSize:    1,
			expectedToBytes: []byte{0x01, 1, 0x41, 4, 0x74, 0x65, 0x78, 0x74},
			expectedString: `<L[1]
  <A "text">
>`,
		},
		{
			description:     "Size: 2, Contains ordinary ItemNodes",
			input:           []ItemNode{NewASCIINode("text"), NewIntNode(1, 11, 22)},
			expectedSize:    2,
			expectedToBytes: []byte{0x01, 2, 0x41, 4, 0x74, 0x65, 0x78, 0x74, 0x65, 2, 11, 22},
			expectedString: `<L[2]
  <A "text">
  <I1[2] 11 22>
>`,
		},
		{
			description: "Size: 2, Nested list level: 1",
			input: []ItemNode{
				NewListNode(),
				NewListNode(NewIntNode(1, 33, 55)),
			},
			expectedSize:    2,
			expectedToBytes: []byte{0x01, 2, 0x01, 0, 0x01, 1, 0x65, 2, 33, 55},
			expectedString: `<L[2]
  <L[0]>
  <L[1]
    <I1[2] 33 55>
  >
>`,
		},
		{
			description: "Size: 2, Nested list level: 2",
			input: []ItemNode{
				NewListNode(
					NewIntNode(1, 33, 55),
					NewListNode(NewASCIINode("text")),
				),
				NewIntNode(2, 77, 99),
			},
			expectedSize: 2,
			expectedToBytes: []byte{
				0x01, 2,
				0x01, 2, 0x65, 2, 33, 55, 0x01, 1, 0x41, 4, 0x74, 0x65, 0x78, 0x74,
				0x69, 4, 0, 77, 0, 99,
			},
			expectedString: `<L[2]
  <L[2]
    <I1[2] 33 55>
    <L[1]
      <A "text">
    >
  >
  <I2[2] 77 99>
>`,
		},
	}
	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		node := NewListNode(test.input...)
		assert.Equal(t, test.expectedSize, node.Size())
		assert.Equal(t, test.expectedToBytes, node.ToBytes())
		assert.Equal(t, test.expectedString, fmt.Sprint(node))
	}
}
