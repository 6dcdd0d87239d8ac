// Copyright 2023 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package muxer

import "time"

const (
	// ProtocolUnknown is a pseudo protocol ID used to register a catch-all
	// receiver for segments referencing a protocol nothing else registered
	ProtocolUnknown uint16 = 0xabcd

	// segmentResponseFlag is the top bit of the 16-bit protocol field, set
	// when the segment originates from the responder side of a mini-protocol
	segmentResponseFlag uint16 = 0x8000

	// SegmentMaxPayloadLength is the largest payload a single segment can carry
	SegmentMaxPayloadLength = 65535

	// segmentHeaderLength is the fixed 8-byte on-wire header size
	segmentHeaderLength = 8
)

// SegmentHeader is the fixed 8-byte header prefixing every segment payload
type SegmentHeader struct {
	TimestampUs   uint32
	ProtocolId    uint16
	PayloadLength uint16
}

// Segment is the smallest unit the multiplexer transmits: an 8-byte header
// plus up to 65535 bytes of opaque mini-protocol payload
type Segment struct {
	SegmentHeader
	Payload []byte
}

// NewSegment builds a segment for the given protocol ID and payload. The
// direction/role bit is set when isResponse is true. The timestamp is the
// low 32 bits of microseconds since an arbitrary local epoch, per the wire
// format; it is advisory and used only for latency estimation by peers.
func NewSegment(protocolId uint16, payload []byte, isResponse bool) *Segment {
	protoField := protocolId
	if isResponse {
		protoField |= segmentResponseFlag
	}
	return &Segment{
		SegmentHeader: SegmentHeader{
			TimestampUs:   uint32(time.Now().UnixMicro() & 0xffffffff),
			ProtocolId:    protoField,
			PayloadLength: uint16(len(payload)),
		},
		Payload: payload,
	}
}

// IsRequest returns true if the segment originated from the initiator side
func (s *Segment) IsRequest() bool {
	return s.SegmentHeader.ProtocolId&segmentResponseFlag == 0
}

// IsResponse returns true if the segment originated from the responder side
func (s *Segment) IsResponse() bool {
	return s.SegmentHeader.ProtocolId&segmentResponseFlag > 0
}

// GetProtocolId returns the protocol number with the direction bit masked off
func (s *Segment) GetProtocolId() uint16 {
	return s.SegmentHeader.ProtocolId &^ segmentResponseFlag
}
