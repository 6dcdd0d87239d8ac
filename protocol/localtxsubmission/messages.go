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

package localtxsubmission

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

const (
	MessageTypeSubmitTx = 0
	MessageTypeAcceptTx = 1
	MessageTypeRejectTx = 2
	MessageTypeDone     = 3
)

func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeSubmitTx:
		ret = &MsgSubmitTx{}
	case MessageTypeAcceptTx:
		ret = &MsgAcceptTx{}
	case MessageTypeRejectTx:
		ret = &MsgRejectTx{}
	case MessageTypeDone:
		ret = &MsgDone{}
	default:
		return nil, fmt.Errorf("%s: unknown message type %d", ProtocolName, msgType)
	}
	n, err := cbor.Decode(data, ret)
	if err != nil {
		return nil, fmt.Errorf("%s: decode error: %w", ProtocolName, err)
	}
	ret.SetCbor(data[:n])
	return ret, nil
}

// wrappedTx carries a transaction body wrapped in a CBOR tag 24 byte
// string, following the era-tagged submission envelope used on the wire.
type wrappedTx struct {
	cbor.StructAsArray
	EraTag uint16
	Body   cbor.Tag
}

type MsgSubmitTx struct {
	protocol.MessageBase
	Transaction wrappedTx
}

func NewMsgSubmitTx(eraTag uint16, txBody []byte) *MsgSubmitTx {
	return &MsgSubmitTx{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeSubmitTx},
		Transaction: wrappedTx{
			EraTag: eraTag,
			Body: cbor.Tag{
				Number:  24,
				Content: txBody,
			},
		},
	}
}

func (m *MsgSubmitTx) EraTag() uint16 {
	return m.Transaction.EraTag
}

func (m *MsgSubmitTx) Body() []byte {
	if b, ok := m.Transaction.Body.Content.([]byte); ok {
		return b
	}
	return nil
}

type MsgAcceptTx struct {
	protocol.MessageBase
}

func NewMsgAcceptTx() *MsgAcceptTx {
	return &MsgAcceptTx{MessageBase: protocol.MessageBase{MessageType: MessageTypeAcceptTx}}
}

// MsgRejectTx carries the era-tagged rejection reason as opaque CBOR; the
// core does not decode it and leaves the bytes available to the caller.
type MsgRejectTx struct {
	protocol.MessageBase
	Reason cbor.RawMessage
}

func NewMsgRejectTx(reasonCbor []byte) *MsgRejectTx {
	return &MsgRejectTx{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRejectTx},
		Reason:      reasonCbor,
	}
}

type MsgDone struct {
	protocol.MessageBase
}

func NewMsgDone() *MsgDone {
	return &MsgDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeDone}}
}
