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

package localstatequery

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

const (
	MessageTypeAcquire            = 0
	MessageTypeAcquired           = 1
	MessageTypeFailure            = 2
	MessageTypeQuery              = 3
	MessageTypeResult             = 4
	MessageTypeRelease            = 5
	MessageTypeReAcquire          = 6
	MessageTypeDone               = 7
	MessageTypeAcquireNoPoint     = 8
	MessageTypeReAcquireNoPoint   = 9
)

func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeAcquire:
		ret = &MsgAcquire{}
	case MessageTypeAcquireNoPoint:
		ret = &MsgAcquireNoPoint{}
	case MessageTypeAcquired:
		ret = &MsgAcquired{}
	case MessageTypeFailure:
		ret = &MsgFailure{}
	case MessageTypeQuery:
		ret = &MsgQuery{}
	case MessageTypeResult:
		ret = &MsgResult{}
	case MessageTypeRelease:
		ret = &MsgRelease{}
	case MessageTypeReAcquire:
		ret = &MsgReAcquire{}
	case MessageTypeReAcquireNoPoint:
		ret = &MsgReAcquireNoPoint{}
	case MessageTypeDone:
		ret = &MsgDone{}
	default:
		return nil, fmt.Errorf("localstatequery: unknown message type %d", msgType)
	}
	n, err := cbor.Decode(data, ret)
	if err != nil {
		return nil, fmt.Errorf("localstatequery: decode error: %w", err)
	}
	ret.SetCbor(data[:n])
	return ret, nil
}

type MsgAcquire struct {
	protocol.MessageBase
	Point ocommon.Point
}

func NewMsgAcquire(point ocommon.Point) *MsgAcquire {
	return &MsgAcquire{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeAcquire},
		Point:       point,
	}
}

type MsgAcquireNoPoint struct {
	protocol.MessageBase
}

func NewMsgAcquireNoPoint() *MsgAcquireNoPoint {
	return &MsgAcquireNoPoint{MessageBase: protocol.MessageBase{MessageType: MessageTypeAcquireNoPoint}}
}

type MsgAcquired struct {
	protocol.MessageBase
}

func NewMsgAcquired() *MsgAcquired {
	return &MsgAcquired{MessageBase: protocol.MessageBase{MessageType: MessageTypeAcquired}}
}

type MsgFailure struct {
	protocol.MessageBase
	Failure uint8
}

func NewMsgFailure(failure uint8) *MsgFailure {
	return &MsgFailure{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeFailure},
		Failure:     failure,
	}
}

type MsgQuery struct {
	protocol.MessageBase
	Query cbor.RawMessage
}

func NewMsgQuery(query []byte) *MsgQuery {
	return &MsgQuery{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeQuery},
		Query:       query,
	}
}

type MsgResult struct {
	protocol.MessageBase
	Result cbor.RawMessage
}

func NewMsgResult(result []byte) *MsgResult {
	return &MsgResult{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeResult},
		Result:      result,
	}
}

type MsgRelease struct {
	protocol.MessageBase
}

func NewMsgRelease() *MsgRelease {
	return &MsgRelease{MessageBase: protocol.MessageBase{MessageType: MessageTypeRelease}}
}

type MsgReAcquire struct {
	protocol.MessageBase
	Point ocommon.Point
}

func NewMsgReAcquire(point ocommon.Point) *MsgReAcquire {
	return &MsgReAcquire{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeReAcquire},
		Point:       point,
	}
}

type MsgReAcquireNoPoint struct {
	protocol.MessageBase
}

func NewMsgReAcquireNoPoint() *MsgReAcquireNoPoint {
	return &MsgReAcquireNoPoint{MessageBase: protocol.MessageBase{MessageType: MessageTypeReAcquireNoPoint}}
}

type MsgDone struct {
	protocol.MessageBase
}

func NewMsgDone() *MsgDone {
	return &MsgDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeDone}}
}
