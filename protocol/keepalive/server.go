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

package keepalive

import (
	"fmt"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Server answers KeepAlive pings by echoing the cookie back.
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
	protoOptions.InitialState = stateClient
	s.Protocol = protocol.New(protoOptions)
	return s
}

func (s *Server) messageHandler(msg protocol.Message) error {
	m, ok := msg.(*MsgKeepAlive)
	if !ok {
		return fmt.Errorf("keepalive: unexpected message type %T", msg)
	}
	if s.config.KeepAliveFunc != nil {
		if err := s.config.KeepAliveFunc(s.callbackContext, m.Cookie); err != nil {
			return err
		}
	}
	return s.SendMessage(NewMsgKeepAliveResponse(m.Cookie))
}
