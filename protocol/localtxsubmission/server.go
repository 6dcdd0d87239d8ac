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

	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Server answers SubmitTx requests, accepting or rejecting each
// transaction against whatever mempool the caller's callback consults.
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
	case *MsgSubmitTx:
		return s.handleSubmitTx(m)
	case *MsgDone:
		if s.config.DoneFunc != nil {
			if err := s.config.DoneFunc(s.callbackContext); err != nil {
				return err
			}
		}
		return s.Protocol.Stop()
	default:
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
}

func (s *Server) handleSubmitTx(m *MsgSubmitTx) error {
	if s.config.SubmitTxFunc == nil {
		return s.SendMessage(NewMsgAcceptTx())
	}
	if err := s.config.SubmitTxFunc(s.callbackContext, m.EraTag(), m.Body()); err != nil {
		if rejected, ok := err.(*TxRejectedError); ok {
			return s.SendMessage(NewMsgRejectTx(rejected.ReasonCbor))
		}
		return s.SendMessage(NewMsgRejectTx(nil))
	}
	return s.SendMessage(NewMsgAcceptTx())
}
