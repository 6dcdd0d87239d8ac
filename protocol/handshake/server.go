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

// Server is the await-propose-then-accept side of the handshake. Every
// bearer's accepting end runs a Server.
type Server struct {
	*protocol.Protocol
	config Config
}

func NewServer(protoOptions protocol.ProtocolConfig, cfg Config) *Server {
	s := &Server{config: cfg}
	protoOptions.Name = ProtocolName
	protoOptions.ProtocolId = ProtocolId
	protoOptions.Role = protocol.RoleServer
	protoOptions.MessageHandlerFunc = s.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = StateMap
	protoOptions.InitialState = statePropose
	s.Protocol = protocol.New(protoOptions)
	return s
}

func (s *Server) messageHandler(msg protocol.Message) error {
	m, ok := msg.(*MsgProposeVersions)
	if !ok {
		return fmt.Errorf("handshake: unexpected message type %T", msg)
	}
	return s.handleProposeVersions(m)
}

func (s *Server) handleProposeVersions(msg *MsgProposeVersions) error {
	var chosen uint16
	found := false
	for _, version := range s.config.ProtocolVersionMap.SupportedVersions() {
		if _, ok := msg.VersionMap[version]; ok {
			chosen = version
			found = true
		}
	}
	if !found {
		return s.SendMessage(NewMsgRefuse([]any{
			uint64(RefuseReasonVersionMismatch),
			toUint64Slice(s.config.ProtocolVersionMap.SupportedVersions()),
		}))
	}
	protoVersion := s.config.ProtocolVersionMap[chosen]
	proposedData, err := protoVersion.NewVersionDataFromCborFunc(msg.VersionMap[chosen])
	if err != nil {
		return s.SendMessage(NewMsgRefuse([]any{
			uint64(RefuseReasonDecodeError),
			uint64(chosen),
			err.Error(),
		}))
	}
	if proposedData.NetworkMagic() != s.config.NetworkMagic {
		return s.SendMessage(NewMsgRefuse([]any{
			uint64(RefuseReasonRefused),
			uint64(chosen),
			"network magic mismatch",
		}))
	}
	ownData, err := buildVersionData(chosen, s.config.NetworkMagic, s.config.ClientFullDuplex)
	if err != nil {
		return err
	}
	encoded, err := cbor.Encode(ownData)
	if err != nil {
		return err
	}
	if err := s.SendMessage(NewMsgAcceptVersion(chosen, encoded)); err != nil {
		return err
	}
	if s.config.FinishedFunc != nil {
		return s.config.FinishedFunc(chosen, proposedData, true)
	}
	return nil
}

func toUint64Slice(versions []uint16) []uint64 {
	ret := make([]uint64, len(versions))
	for i, v := range versions {
		ret[i] = uint64(v)
	}
	return ret
}
