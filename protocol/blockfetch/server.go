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

package blockfetch

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Server is the answering side of block-fetch: it streams whatever block
// range the caller's RequestRangeFunc callback decides to serve.
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
	case *MsgRequestRange:
		return s.handleRequestRange(m)
	case *MsgClientDone:
		return s.Protocol.Stop()
	default:
		return fmt.Errorf("blockfetch: unexpected message type %T", msg)
	}
}

func (s *Server) handleRequestRange(msg *MsgRequestRange) error {
	if s.config.RequestRangeFunc == nil {
		return s.SendMessage(NewMsgNoBlocks())
	}
	return s.config.RequestRangeFunc(s.callbackContext, msg.Start, msg.End)
}

// StartBatch begins streaming blocks in response to a pending RequestRange.
func (s *Server) StartBatch() error {
	return s.SendMessage(NewMsgStartBatch())
}

// NoBlocks refuses a pending RequestRange, e.g. because the range isn't
// available locally.
func (s *Server) NoBlocks() error {
	return s.SendMessage(NewMsgNoBlocks())
}

// SendBlock streams a single block body as part of an in-progress batch.
func (s *Server) SendBlock(blockType uint, blockCbor []byte) error {
	return s.SendMessage(NewMsgBlock(blockType, blockCbor))
}

// BatchDone ends the current streaming batch.
func (s *Server) BatchDone() error {
	return s.SendMessage(NewMsgBatchDone())
}
