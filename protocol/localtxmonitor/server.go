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
	"bytes"
	"fmt"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Server answers Acquire/AwaitAcquire/HasTx/NextTx/GetSizes against
// whatever mempool the caller's callbacks expose.
type Server struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext

	mempoolCapacity  uint32
	mempoolTxs       []TxAndEraId
	mempoolNextTxIdx int
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
		return s.handleAcquire(s.config.GetMempoolFunc)
	case *MsgAwaitAcquire:
		return s.handleAcquire(s.config.AwaitMempoolFunc)
	case *MsgRelease:
		s.mempoolCapacity = 0
		s.mempoolTxs = nil
		s.mempoolNextTxIdx = 0
		return nil
	case *MsgHasTx:
		return s.handleHasTx(m)
	case *MsgNextTx:
		return s.handleNextTx()
	case *MsgGetSizes:
		return s.handleGetSizes()
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

func (s *Server) handleAcquire(fetch GetMempoolFunc) error {
	if fetch == nil {
		return s.SendMessage(NewMsgAcquired(0))
	}
	slotNo, capacity, txs, err := fetch(s.callbackContext)
	if err != nil {
		return err
	}
	s.mempoolCapacity = capacity
	s.mempoolTxs = txs
	s.mempoolNextTxIdx = 0
	return s.SendMessage(NewMsgAcquired(slotNo))
}

func (s *Server) handleHasTx(m *MsgHasTx) error {
	found := false
	for _, tx := range s.mempoolTxs {
		id := tx.Id()
		if bytes.Equal(id[:], m.TxId) {
			found = true
			break
		}
	}
	return s.SendMessage(NewMsgReplyHasTx(found))
}

func (s *Server) handleNextTx() error {
	if s.mempoolNextTxIdx >= len(s.mempoolTxs) {
		return s.SendMessage(NewMsgReplyNextTx(0, nil))
	}
	tx := s.mempoolTxs[s.mempoolNextTxIdx]
	s.mempoolNextTxIdx++
	return s.SendMessage(NewMsgReplyNextTx(tx.EraTag, tx.Body))
}

func (s *Server) handleGetSizes() error {
	var totalSize uint32
	for _, tx := range s.mempoolTxs {
		totalSize += uint32(len(tx.Body))
	}
	return s.SendMessage(NewMsgReplyGetSizes(s.mempoolCapacity, totalSize, uint32(len(s.mempoolTxs))))
}
