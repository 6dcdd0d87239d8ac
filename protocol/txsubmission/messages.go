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

package txsubmission

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

const (
	MessageTypeRequestTxIds = 0
	MessageTypeReplyTxIds   = 1
	MessageTypeRequestTxs   = 2
	MessageTypeReplyTxs     = 3
	MessageTypeDone         = 4
	MessageTypeInit         = 6
)

func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeRequestTxIds:
		ret = &MsgRequestTxIds{}
	case MessageTypeReplyTxIds:
		ret = &MsgReplyTxIds{}
	case MessageTypeRequestTxs:
		ret = &MsgRequestTxs{}
	case MessageTypeReplyTxs:
		ret = &MsgReplyTxs{}
	case MessageTypeDone:
		ret = &MsgDone{}
	case MessageTypeInit:
		ret = &MsgInit{}
	default:
		return nil, fmt.Errorf("txsubmission: unknown message type %d", msgType)
	}
	n, err := cbor.Decode(data, ret)
	if err != nil {
		return nil, fmt.Errorf("txsubmission: decode error: %w", err)
	}
	ret.SetCbor(data[:n])
	return ret, nil
}

type MsgInit struct {
	protocol.MessageBase
}

func NewMsgInit() *MsgInit {
	return &MsgInit{MessageBase: protocol.MessageBase{MessageType: MessageTypeInit}}
}

type MsgRequestTxIds struct {
	protocol.MessageBase
	Blocking bool
	Ack      uint16
	Req      uint16
}

func NewMsgRequestTxIds(blocking bool, ack uint16, req uint16) *MsgRequestTxIds {
	return &MsgRequestTxIds{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRequestTxIds},
		Blocking:    blocking,
		Ack:         ack,
		Req:         req,
	}
}

// TxIdAndSize pairs an identifier with the announced byte size of its body,
// which lets the downloader budget its next RequestTxs without fetching
// bodies it can't use.
type TxIdAndSize struct {
	cbor.StructAsArray
	Id   txid.TxId
	Size uint32
}

type MsgReplyTxIds struct {
	protocol.MessageBase
	TxIds []TxIdAndSize
}

func NewMsgReplyTxIds(txIds []TxIdAndSize) *MsgReplyTxIds {
	return &MsgReplyTxIds{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeReplyTxIds},
		TxIds:       txIds,
	}
}

type MsgRequestTxs struct {
	protocol.MessageBase
	TxIds []txid.TxId
}

func NewMsgRequestTxs(txIds []txid.TxId) *MsgRequestTxs {
	return &MsgRequestTxs{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRequestTxs},
		TxIds:       txIds,
	}
}

// TxBody is an opaque, era-tagged transaction body. The core never decodes
// or hashes Body; the identifiers announced for it come from the caller.
type TxBody struct {
	cbor.StructAsArray
	EraTag uint16
	Body   []byte
}

type MsgReplyTxs struct {
	protocol.MessageBase
	Txs []TxBody
}

func NewMsgReplyTxs(txs []TxBody) *MsgReplyTxs {
	return &MsgReplyTxs{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeReplyTxs},
		Txs:         txs,
	}
}

type MsgDone struct {
	protocol.MessageBase
}

func NewMsgDone() *MsgDone {
	return &MsgDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeDone}}
}
