// Package hsms implements the HSMS (SEMI E37) transport and session layer:
// the length-prefixed wire envelope, the Select/Deselect/Linktest/Separate
// control-message state machine, connection management (active, passive and
// multi-passive), and the transaction manager that correlates primaries with
// their secondary replies by system bytes.
package hsms

import (
	"encoding/binary"

	"github.com/secs2go/hsmsgem/internal/secserr"
	"github.com/secs2go/hsmsgem/secs2"
)

// DefaultMaxMessageSize is the default upper bound on a single HSMS frame's
// declared length (the value of the length field: header plus body),
// matching spec §6.
const DefaultMaxMessageSize = 1 << 24

const (
	sTypeDataMessage = 0
	sTypeSelectReq   = 1
	sTypeSelectRsp   = 2
	sTypeDeselectReq = 3
	sTypeDeselectRsp = 4
	sTypeLinktestReq = 5
	sTypeLinktestRsp = 6
	sTypeRejectReq   = 7
	sTypeSeparateReq = 9
)

// EncodeFrame returns the full wire representation of msg, which is msg's
// own ToBytes() output: the 4-byte big-endian length prefix followed by the
// 10-byte header and body. The invariant
// length_prefix == 10 + len(body_bytes) holds because DataMessage and
// ControlMessage compute it themselves.
func EncodeFrame(msg secs2.HSMSMessage) []byte {
	return msg.ToBytes()
}

// DecodeFrame decodes one complete HSMS frame (exactly length_prefix+4
// bytes: the 4-byte length field followed by the 10-byte header and body)
// into a DataMessage or ControlMessage.
//
// DecodeFrame returns a *secserr.Error of Kind Framing for any malformed
// envelope (too short, unsupported p_type, unknown s_type) and of Kind
// Codec if the body fails to decode as a SECS-II item.
func DecodeFrame(frame []byte) (secs2.HSMSMessage, error) {
	if len(frame) < 14 {
		return nil, secserr.New(secserr.Framing, "DecodeFrame", "MalformedFrame: shorter than length+header")
	}

	length := int(binary.BigEndian.Uint32(frame[0:4]))
	if length != len(frame)-4 {
		return nil, secserr.New(secserr.Framing, "DecodeFrame", "MalformedFrame: length prefix mismatch")
	}

	header := frame[4:14]
	body := frame[14:]

	pType := header[4]
	sType := header[5]

	if pType != 0 {
		return nil, secserr.New(secserr.Framing, "DecodeFrame", "unsupported p_type")
	}

	switch sType {
	case sTypeDataMessage:
		sessionID := int(binary.BigEndian.Uint16(header[0:2]))
		stream := int(header[2] & 0b0111_1111)
		function := int(header[3])
		waitBit := int(header[2] >> 7)
		systemBytes := header[6:10]

		var item secs2.ItemNode
		if len(body) == 0 {
			item = secs2.NewEmptyItemNode()
		} else {
			decoded, consumed, err := secs2.DecodeItem(body)
			if err != nil {
				return nil, err
			}
			if consumed != len(body) {
				return nil, secserr.New(secserr.Codec, "DecodeFrame", "trailing bytes after top-level item")
			}
			item = decoded
		}

		return secs2.NewHSMSDataMessage("", stream, function, waitBit, "H<->E", item, sessionID, systemBytes), nil

	case sTypeSelectReq, sTypeSelectRsp, sTypeDeselectReq, sTypeDeselectRsp,
		sTypeLinktestReq, sTypeLinktestRsp, sTypeRejectReq, sTypeSeparateReq:
		return secs2.NewHSMSControlMessage(header), nil

	default:
		return nil, secserr.New(secserr.Framing, "DecodeFrame", "unknown s_type")
	}
}

// Framer buffers bytes arriving from a Connection and emits complete HSMS
// frames as they become available. A single Connection's receive goroutine
// owns one Framer; Feed is not safe for concurrent use.
type Framer struct {
	buf            []byte
	maxMessageSize int
}

// NewFramer creates a Framer that refuses frames larger than maxMessageSize
// (the total length_prefix, i.e. 10+len(body)). A value of 0 selects
// DefaultMaxMessageSize.
func NewFramer(maxMessageSize int) *Framer {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Framer{maxMessageSize: maxMessageSize}
}

// Feed appends newly read bytes to the framer's internal buffer and returns
// every complete frame (as HSMSMessage) that can now be extracted, plus any
// unconsumed trailing partial frame stays buffered for the next Feed call.
//
// Feed returns a *secserr.Error of Kind Framing (MalformedFrame) if a
// declared length is < 10 or > maxMessageSize; the caller must drop the
// session on this error, per spec §4.3.
func (f *Framer) Feed(data []byte) ([]secs2.HSMSMessage, error) {
	f.buf = append(f.buf, data...)

	var messages []secs2.HSMSMessage
	for {
		if len(f.buf) < 4 {
			return messages, nil
		}

		length := int(binary.BigEndian.Uint32(f.buf[0:4]))
		if length < 10 || length > f.maxMessageSize {
			return messages, secserr.New(secserr.Framing, "Framer.Feed", "MalformedFrame: length out of bounds")
		}

		if len(f.buf) < 4+length {
			// partial frame; wait for more data
			return messages, nil
		}

		frame := f.buf[:4+length]
		msg, err := DecodeFrame(frame)
		if err != nil {
			return messages, err
		}
		messages = append(messages, msg)

		f.buf = f.buf[4+length:]
	}
}

// Pending returns the number of bytes currently buffered for an incomplete
// frame, useful for T8 (intercharacter timeout) bookkeeping: a receive loop
// resets its T8 deadline whenever Pending grows.
func (f *Framer) Pending() int {
	return len(f.buf)
}
