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

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

// Server answers Acquire/Query requests against whatever ledger snapshot
// mechanism the caller's callbacks expose.
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
	case *MsgAcquire:
		point := m.Point
		return s.handleAcquire(&point)
	case *MsgAcquireNoPoint:
		return s.handleAcquire(nil)
	case *MsgReAcquire:
		point := m.Point
		return s.handleAcquire(&point)
	case *MsgReAcquireNoPoint:
		return s.handleAcquire(nil)
	case *MsgQuery:
		return s.handleQuery(m)
	case *MsgRelease:
		return nil
	case *MsgDone:
		if s.config.DoneFunc != nil {
			if err := s.config.DoneFunc(s.callbackContext); err != nil {
				return err
			}
		}
		return s.Protocol.Stop()
	default:
		return fmt.Errorf("localstatequery: unexpected message type %T", msg)
	}
}

func (s *Server) handleAcquire(point *ocommon.Point) error {
	if s.config.AcquireFunc == nil {
		return s.SendMessage(NewMsgAcquired())
	}
	if err := s.config.AcquireFunc(s.callbackContext, point); err != nil {
		reason := AcquireFailurePointNotOnChain
		if err == ErrPointTooOld {
			reason = AcquireFailurePointTooOld
		}
		return s.SendMessage(NewMsgFailure(reason))
	}
	return s.SendMessage(NewMsgAcquired())
}

func (s *Server) handleQuery(msg *MsgQuery) error {
	if s.config.QueryFunc == nil {
		return s.SendMessage(NewMsgResult(nil))
	}
	if err := s.config.QueryFunc(s.callbackContext, msg.Query); err != nil {
		return err
	}
	return nil
}

// SendResult is called by the caller's QueryFunc callback once it has
// computed the answer.
func (s *Server) SendResult(result []byte) error {
	return s.SendMessage(NewMsgResult(result))
}
