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

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

// Server is the answering side of chain-sync: it serves RequestNext and
// FindIntersect against whatever chain state the caller's callbacks expose.
type Server struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext
}

func NewServer(protoOptions protocol.ProtocolConfig, cfg Config) *Server {
	s := &Server{config: cfg}
	s.callbackContext = CallbackContext{Server: s}
	protoOptions.Role = protocol.RoleServer
	protoOptions.MessageHandlerFunc = s.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = StateMap
	protoOptions.InitialState = stateIdle
	s.Protocol = protocol.New(protoOptions)
	return s
}

func (s *Server) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgRequestNext:
		return s.handleRequestNext()
	case *MsgFindIntersect:
		return s.handleFindIntersect(m)
	case *MsgDone:
		return s.Protocol.Stop()
	default:
		return fmt.Errorf("chainsync: unexpected message type %T", msg)
	}
}

func (s *Server) handleRequestNext() error {
	if s.config.RequestNextFunc != nil {
		return s.config.RequestNextFunc(s.callbackContext)
	}
	return nil
}

func (s *Server) handleFindIntersect(msg *MsgFindIntersect) error {
	if s.config.FindIntersectFunc == nil {
		return s.SendMessage(NewMsgIntersectNotFound(ocommon.Tip{}))
	}
	point, tip, err := s.config.FindIntersectFunc(s.callbackContext, msg.Points)
	if err != nil {
		return s.SendMessage(NewMsgIntersectNotFound(tip))
	}
	return s.SendMessage(NewMsgIntersectFound(point, tip))
}

// SendRollForward is called by the caller's RequestNextFunc callback once
// it has decided what to serve.
func (s *Server) SendRollForward(headerType uint, headerCbor []byte, tip ocommon.Tip) error {
	return s.SendMessage(NewMsgRollForward(headerType, headerCbor, tip))
}

func (s *Server) SendRollBackward(point ocommon.Point, tip ocommon.Tip) error {
	return s.SendMessage(NewMsgRollBackward(point, tip))
}

func (s *Server) SendAwaitReply() error {
	return s.SendMessage(NewMsgAwaitReply())
}
