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

package handshake

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

const (
	MessageTypeProposeVersions = 0
	MessageTypeAcceptVersion   = 1
	MessageTypeRefuse          = 2

	RefuseReasonVersionMismatch = 0
	RefuseReasonDecodeError     = 1
	RefuseReasonRefused         = 2
)

// NewMsgFromCbor decodes a handshake message by its leading type tag.
func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeProposeVersions:
		ret = &MsgProposeVersions{}
	case MessageTypeAcceptVersion:
		ret = &MsgAcceptVersion{}
	case MessageTypeRefuse:
		ret = &MsgRefuse{}
	default:
		return nil, fmt.Errorf("handshake: unknown message type %d", msgType)
	}
	n, err := cbor.Decode(data, ret)
	if err != nil {
		return nil, fmt.Errorf("handshake: decode error: %w", err)
	}
	ret.SetCbor(data[:n])
	return ret, nil
}

// MsgProposeVersions carries the wire version numbers this end supports,
// each mapped to its raw CBOR-encoded parameter blob.
type MsgProposeVersions struct {
	protocol.MessageBase
	VersionMap map[uint16]cbor.RawMessage
}

func NewMsgProposeVersions(versionMap map[uint16]cbor.RawMessage) *MsgProposeVersions {
	return &MsgProposeVersions{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeProposeVersions},
		VersionMap:  versionMap,
	}
}

// MsgAcceptVersion carries the single version the server chose and its
// parameter blob, echoed back so the client knows what was agreed.
type MsgAcceptVersion struct {
	protocol.MessageBase
	Version     uint16
	VersionData cbor.RawMessage
}

func NewMsgAcceptVersion(version uint16, versionData cbor.RawMessage) *MsgAcceptVersion {
	return &MsgAcceptVersion{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeAcceptVersion},
		Version:     version,
		VersionData: versionData,
	}
}

// MsgRefuse carries a reason tuple: [RefuseReasonVersionMismatch, [versions]]
// or [RefuseReasonDecodeError, version, text] or [RefuseReasonRefused, version, text].
type MsgRefuse struct {
	protocol.MessageBase
	Reason []any
}

func NewMsgRefuse(reason []any) *MsgRefuse {
	return &MsgRefuse{
		MessageBase: protocol.MessageBase{MessageType: MessageTypeRefuse},
		Reason:      reason,
	}
}
