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

package blockfetch

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

const (
	MessageTypeRequestRange = 0
	MessageTypeClientDone   = 1
	MessageTypeStartBatch   = 2
	MessageTypeNoBlocks     = 3
	MessageTypeBlock        = 4
	MessageTypeBatchDone    = 5
)

func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeRequestRange:
		ret = &MsgRequestRange{}
	case MessageTypeClientDone:
		ret = &MsgClientDone{}
	case MessageTypeStartBatch:
		ret = &MsgStartBatch{}
	case MessageTypeNoBlocks:
		ret = &MsgNoBlocks{}
	case MessageTypeBlock:
		ret = &MsgBlock{}
	case MessageTypeBatchDone:
		ret = &MsgBatchDone{}
	default:
		return nil, fmt.Errorf("blockfetch: unknown message type %d", msgType)
	}
	n, err := cbor.Decode(data, ret)
	if err != nil {
		return nil, fmt.Errorf("blockfetch: decode error: %w", err)
	}
	ret.SetCbor(data[:n])
	return ret, nil
}

type MsgRequestRange struct {
	protocol.MessageBase
	Start ocommon.Point
	End   ocommon.Point
}

func NewMsgRequestRange(start ocommon.Point, end ocommon.Point) *MsgRequestRange {
	return &MsgRequestRange{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRequestRange},
		Start:       start,
		End:         end,
	}
}

type MsgClientDone struct {
	protocol.MessageBase
}

func NewMsgClientDone() *MsgClientDone {
	return &MsgClientDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeClientDone}}
}

type MsgStartBatch struct {
	protocol.MessageBase
}

func NewMsgStartBatch() *MsgStartBatch {
	return &MsgStartBatch{MessageBase: protocol.MessageBase{MessageType: MessageTypeStartBatch}}
}

type MsgNoBlocks struct {
	protocol.MessageBase
}

func NewMsgNoBlocks() *MsgNoBlocks {
	return &MsgNoBlocks{MessageBase: protocol.MessageBase{MessageType: MessageTypeNoBlocks}}
}

// WrappedBlock carries an era-discriminant tag alongside the opaque block
// body CBOR. The core never decodes RawBlock; era-aware callers do.
type WrappedBlock struct {
	cbor.StructAsArray
	Type     uint
	RawBlock cbor.RawMessage
}

type MsgBlock struct {
	protocol.MessageBase
	WrappedBlock WrappedBlock
}

func NewMsgBlock(blockType uint, blockCbor []byte) *MsgBlock {
	return &MsgBlock{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeBlock},
		WrappedBlock: WrappedBlock{
			Type:     blockType,
			RawBlock: blockCbor,
		},
	}
}

type MsgBatchDone struct {
	protocol.MessageBase
}

func NewMsgBatchDone() *MsgBatchDone {
	return &MsgBatchDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeBatchDone}}
}
