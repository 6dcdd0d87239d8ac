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

package chainsync

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

const (
	MessageTypeRequestNext       = 0
	MessageTypeAwaitReply        = 1
	MessageTypeRollForward       = 2
	MessageTypeRollBackward      = 3
	MessageTypeFindIntersect     = 4
	MessageTypeIntersectFound    = 5
	MessageTypeIntersectNotFound = 6
	MessageTypeDone              = 7
)

func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeRequestNext:
		ret = &MsgRequestNext{}
	case MessageTypeAwaitReply:
		ret = &MsgAwaitReply{}
	case MessageTypeRollForward:
		ret = &MsgRollForward{}
	case MessageTypeRollBackward:
		ret = &MsgRollBackward{}
	case MessageTypeFindIntersect:
		ret = &MsgFindIntersect{}
	case MessageTypeIntersectFound:
		ret = &MsgIntersectFound{}
	case MessageTypeIntersectNotFound:
		ret = &MsgIntersectNotFound{}
	case MessageTypeDone:
		ret = &MsgDone{}
	default:
		return nil, fmt.Errorf("chainsync: unknown message type %d", msgType)
	}
	n, err := cbor.Decode(data, ret)
	if err != nil {
		return nil, fmt.Errorf("chainsync: decode error: %w", err)
	}
	ret.SetCbor(data[:n])
	return ret, nil
}

type MsgRequestNext struct {
	protocol.MessageBase
}

func NewMsgRequestNext() *MsgRequestNext {
	return &MsgRequestNext{MessageBase: protocol.MessageBase{MessageType: MessageTypeRequestNext}}
}

type MsgAwaitReply struct {
	protocol.MessageBase
}

func NewMsgAwaitReply() *MsgAwaitReply {
	return &MsgAwaitReply{MessageBase: protocol.MessageBase{MessageType: MessageTypeAwaitReply}}
}

// WrappedHeader carries an era-discriminant tag alongside the opaque header
// CBOR, mirroring the wrapper used for block bodies in block-fetch. The
// core never decodes HeaderCbor; era-aware callers do.
type WrappedHeader struct {
	cbor.StructAsArray
	HeaderType uint
	HeaderCbor cbor.RawMessage
}

type MsgRollForward struct {
	protocol.MessageBase
	WrappedHeader WrappedHeader
	Tip           ocommon.Tip
}

func NewMsgRollForward(headerType uint, headerCbor []byte, tip ocommon.Tip) *MsgRollForward {
	return &MsgRollForward{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRollForward},
		WrappedHeader: WrappedHeader{
			HeaderType: headerType,
			HeaderCbor: headerCbor,
		},
		Tip: tip,
	}
}

type MsgRollBackward struct {
	protocol.MessageBase
	Point ocommon.Point
	Tip   ocommon.Tip
}

func NewMsgRollBackward(point ocommon.Point, tip ocommon.Tip) *MsgRollBackward {
	return &MsgRollBackward{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRollBackward},
		Point:       point,
		Tip:         tip,
	}
}

type MsgFindIntersect struct {
	protocol.MessageBase
	Points []ocommon.Point
}

func NewMsgFindIntersect(points []ocommon.Point) *MsgFindIntersect {
	return &MsgFindIntersect{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeFindIntersect},
		Points:      points,
	}
}

// MsgIntersectFound encodes Tip as the two-element [point, block_number]
// array required by the wire format; ocommon.Tip already marshals that way
// via its cbor.StructAsArray embedding, so no special-casing is needed here.
type MsgIntersectFound struct {
	protocol.MessageBase
	Point ocommon.Point
	Tip   ocommon.Tip
}

func NewMsgIntersectFound(point ocommon.Point, tip ocommon.Tip) *MsgIntersectFound {
	return &MsgIntersectFound{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeIntersectFound},
		Point:       point,
		Tip:         tip,
	}
}

type MsgIntersectNotFound struct {
	protocol.MessageBase
	Tip ocommon.Tip
}

func NewMsgIntersectNotFound(tip ocommon.Tip) *MsgIntersectNotFound {
	return &MsgIntersectNotFound{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeIntersectNotFound},
		Tip:         tip,
	}
}

type MsgDone struct {
	protocol.MessageBase
}

func NewMsgDone() *MsgDone {
	return &MsgDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeDone}}
}
