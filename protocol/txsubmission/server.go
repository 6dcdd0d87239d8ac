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

	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Server is the downloader side: it drives the exchange by requesting
// identifiers and then bodies, and hands whatever it collects to the
// caller's callbacks.
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
	protoOptions.InitialState = stateInit
	s.Protocol = protocol.New(protoOptions)
	return s
}

func (s *Server) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgInit:
		if s.config.InitFunc != nil {
			return s.config.InitFunc(s.callbackContext)
		}
		return nil
	case *MsgReplyTxIds:
		if s.config.ReplyTxIdsFunc != nil {
			return s.config.ReplyTxIdsFunc(s.callbackContext, m.TxIds)
		}
		return nil
	case *MsgReplyTxs:
		if s.config.ReplyTxsFunc != nil {
			return s.config.ReplyTxsFunc(s.callbackContext, m.Txs)
		}
		return nil
	case *MsgDone:
		if s.config.DoneFunc != nil {
			if err := s.config.DoneFunc(s.callbackContext); err != nil {
				return err
			}
		}
		return s.Protocol.Stop()
	default:
		return fmt.Errorf("txsubmission: unexpected message type %T", msg)
	}
}

// RequestTxIds asks the holder to announce up to req new identifiers,
// acknowledging that the first ack entries of its previously announced
// window have been consumed. In blocking and non-blocking mode alike the
// call returns once the request is sent, without waiting for the reply; the
// caller observes the outcome (ReplyTxIds, or Done in blocking mode) via its
// ReplyTxIdsFunc/DoneFunc callbacks.
func (s *Server) RequestTxIds(blocking bool, ack uint16, req uint16) error {
	return s.SendMessage(NewMsgRequestTxIds(blocking, ack, req))
}

// RequestTxs asks the holder for the bodies of the given identifiers.
func (s *Server) RequestTxs(ids []txid.TxId) error {
	return s.SendMessage(NewMsgRequestTxs(ids))
}
