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

package localtxmonitor

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

const (
	MessageTypeDone          = 0
	MessageTypeAcquire       = 1
	MessageTypeAcquired      = 2
	MessageTypeRelease       = 3
	MessageTypeAwaitAcquire  = 4
	MessageTypeNextTx        = 5
	MessageTypeReplyNextTx   = 6
	MessageTypeHasTx         = 7
	MessageTypeReplyHasTx    = 8
	MessageTypeGetSizes      = 9
	MessageTypeReplyGetSizes = 10
)

func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeDone:
		ret = &MsgDone{}
	case MessageTypeAcquire:
		ret = &MsgAcquire{}
	case MessageTypeAcquired:
		ret = &MsgAcquired{}
	case MessageTypeRelease:
		ret = &MsgRelease{}
	case MessageTypeAwaitAcquire:
		ret = &MsgAwaitAcquire{}
	case MessageTypeNextTx:
		ret = &MsgNextTx{}
	case MessageTypeReplyNextTx:
		ret = &MsgReplyNextTx{}
	case MessageTypeHasTx:
		ret = &MsgHasTx{}
	case MessageTypeReplyHasTx:
		ret = &MsgReplyHasTx{}
	case MessageTypeGetSizes:
		ret = &MsgGetSizes{}
	case MessageTypeReplyGetSizes:
		ret = &MsgReplyGetSizes{}
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

type MsgDone struct {
	protocol.MessageBase
}

func NewMsgDone() *MsgDone {
	return &MsgDone{MessageBase: protocol.MessageBase{MessageType: MessageTypeDone}}
}

type MsgAcquire struct {
	protocol.MessageBase
}

func NewMsgAcquire() *MsgAcquire {
	return &MsgAcquire{MessageBase: protocol.MessageBase{MessageType: MessageTypeAcquire}}
}

// MsgAwaitAcquire behaves like Acquire but the server withholds its
// Acquired reply until the mempool has changed since the caller's last
// snapshot, letting a monitor block for new arrivals instead of polling.
type MsgAwaitAcquire struct {
	protocol.MessageBase
}

func NewMsgAwaitAcquire() *MsgAwaitAcquire {
	return &MsgAwaitAcquire{MessageBase: protocol.MessageBase{MessageType: MessageTypeAwaitAcquire}}
}

type MsgAcquired struct {
	protocol.MessageBase
	SlotNo uint64
}

func NewMsgAcquired(slotNo uint64) *MsgAcquired {
	return &MsgAcquired{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeAcquired},
		SlotNo:      slotNo,
	}
}

type MsgRelease struct {
	protocol.MessageBase
}

func NewMsgRelease() *MsgRelease {
	return &MsgRelease{MessageBase: protocol.MessageBase{MessageType: MessageTypeRelease}}
}

type MsgNextTx struct {
	protocol.MessageBase
}

func NewMsgNextTx() *MsgNextTx {
	return &MsgNextTx{MessageBase: protocol.MessageBase{MessageType: MessageTypeNextTx}}
}

// wrappedTxAndEraId is the on-the-wire array form of TxAndEraId, wrapping
// the body in a CBOR tag-24 byte string.
type wrappedTxAndEraId struct {
	cbor.StructAsArray
	EraTag uint16
	Body   cbor.Tag
}

// MsgReplyNextTx carries the next mempool entry, or none when the
// snapshot has been exhausted (Tx == nil).
type MsgReplyNextTx struct {
	protocol.MessageBase
	Tx *TxAndEraId
}

func NewMsgReplyNextTx(eraTag uint16, txBody []byte) *MsgReplyNextTx {
	m := &MsgReplyNextTx{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeReplyNextTx},
	}
	if txBody != nil {
		m.Tx = &TxAndEraId{EraTag: eraTag, Body: txBody}
	}
	return m
}

func (m *MsgReplyNextTx) MarshalCBOR() ([]byte, error) {
	fields := []any{m.MessageType}
	if m.Tx != nil {
		fields = append(fields, wrappedTxAndEraId{
			EraTag: m.Tx.EraTag,
			Body:   cbor.Tag{Number: 24, Content: m.Tx.Body},
		})
	}
	return cbor.Encode(fields)
}

func (m *MsgReplyNextTx) UnmarshalCBOR(data []byte) error {
	var raw []cbor.RawMessage
	if _, err := cbor.Decode(data, &raw); err != nil {
		return err
	}
	if len(raw) < 1 {
		return fmt.Errorf("%s: malformed ReplyNextTx", ProtocolName)
	}
	var msgType uint
	if _, err := cbor.Decode(raw[0], &msgType); err != nil {
		return err
	}
	m.MessageType = msgType
	if len(raw) > 1 {
		var wrapped wrappedTxAndEraId
		if _, err := cbor.Decode(raw[1], &wrapped); err != nil {
			return err
		}
		body, _ := wrapped.Body.Content.([]byte)
		m.Tx = &TxAndEraId{EraTag: wrapped.EraTag, Body: body}
	}
	return nil
}

type MsgHasTx struct {
	protocol.MessageBase
	TxId []byte
}

func NewMsgHasTx(id []byte) *MsgHasTx {
	return &MsgHasTx{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeHasTx},
		TxId:        id,
	}
}

type MsgReplyHasTx struct {
	protocol.MessageBase
	Result bool
}

func NewMsgReplyHasTx(result bool) *MsgReplyHasTx {
	return &MsgReplyHasTx{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeReplyHasTx},
		Result:      result,
	}
}

type MsgGetSizes struct {
	protocol.MessageBase
}

func NewMsgGetSizes() *MsgGetSizes {
	return &MsgGetSizes{MessageBase: protocol.MessageBase{MessageType: MessageTypeGetSizes}}
}

type sizesResult struct {
	cbor.StructAsArray
	Capacity    uint32
	Size        uint32
	NumberOfTxs uint32
}

type MsgReplyGetSizes struct {
	protocol.MessageBase
	Result sizesResult
}

func NewMsgReplyGetSizes(capacity, size, numberOfTxs uint32) *MsgReplyGetSizes {
	return &MsgReplyGetSizes{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeReplyGetSizes},
		Result: sizesResult{
			Capacity:    capacity,
			Size:        size,
			NumberOfTxs: numberOfTxs,
		},
	}
}
