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

package protocol

// Message is the common interface implemented by every mini-protocol
// message. Each message's outermost CBOR structure is a definite-length
// array whose first element is the message type tag.
type Message interface {
	SetCbor([]byte)
	Cbor() []byte
	Type() uint
}

// MessageBase is embedded by every concrete message type. It stores the raw
// CBOR the message was decoded from (if any) so a re-encode is never needed
// on the receive path, and carries the message type tag.
type MessageBase struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_           struct{} `cbor:",toarray"`
	rawCbor     []byte
	MessageType uint
}

func (m *MessageBase) SetCbor(data []byte) {
	m.rawCbor = make([]byte, len(data))
	copy(m.rawCbor, data)
}

func (m *MessageBase) Cbor() []byte {
	return m.rawCbor
}

func (m *MessageBase) Type() uint {
	return m.MessageType
}

// MessageFromCborFunc decodes a message of the given type tag from raw CBOR.
// It returns an error for a type tag the mini-protocol doesn't recognize.
type MessageFromCborFunc func(msgType uint, data []byte) (Message, error)

// MessageHandlerFunc is invoked by the protocol runtime for every inbound
// message that passes agency and state-map validation.
type MessageHandlerFunc func(msg Message) error
