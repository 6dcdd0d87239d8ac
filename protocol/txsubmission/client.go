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
	"errors"
	"fmt"
	"sync"

	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Client is the tx-holder side: it answers RequestTxIds/RequestTxs against
// its own mempool and tracks which identifiers it has announced but the
// peer has not yet acknowledged.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext
	onceInit        sync.Once

	windowMutex sync.Mutex
	window      []txid.TxId
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{config: cfg}
	c.callbackContext = CallbackContext{Client: c}
	stateMap := StateMap.Copy()
	if entry, ok := stateMap[stateIdle]; ok {
		entry.Timeout = cfg.IdleTimeout
		stateMap[stateIdle] = entry
	}
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = stateMap
	protoOptions.InitialState = stateInit
	c.Protocol = protocol.New(protoOptions)
	return c
}

// Init tells the downloader to begin asking us for transactions.
func (c *Client) Init() {
	c.onceInit.Do(func() {
		_ = c.SendMessage(NewMsgInit())
	})
}

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgRequestTxIds:
		return c.handleRequestTxIds(m)
	case *MsgRequestTxs:
		return c.handleRequestTxs(m)
	default:
		return fmt.Errorf("txsubmission: unexpected message type %T", msg)
	}
}

func (c *Client) handleRequestTxIds(m *MsgRequestTxIds) error {
	c.windowMutex.Lock()
	if int(m.Ack) > len(c.window) {
		c.windowMutex.Unlock()
		return &protocol.ProtocolViolationError{
			ProtocolName: ProtocolName,
			Message:      "acknowledged more identifiers than were outstanding",
		}
	}
	c.window = c.window[m.Ack:]
	outstanding := len(c.window)
	c.windowMutex.Unlock()

	room := 0
	if uint16(outstanding) < c.config.MaxUnacknowledgedTxIds {
		room = int(c.config.MaxUnacknowledgedTxIds) - outstanding
	}
	req := int(m.Req)
	if req > room {
		req = room
	}

	if c.config.RequestTxIdsFunc == nil {
		return c.SendMessage(NewMsgReplyTxIds(nil))
	}
	ids, err := c.config.RequestTxIdsFunc(c.callbackContext, m.Blocking, m.Ack, uint16(req))
	if err != nil {
		if m.Blocking && errors.Is(err, ErrDone) {
			return c.SendMessage(NewMsgDone())
		}
		return err
	}
	if len(ids) > req {
		return ErrWindowExceeded
	}
	c.windowMutex.Lock()
	for _, ts := range ids {
		c.window = append(c.window, ts.Id)
	}
	c.windowMutex.Unlock()
	return c.SendMessage(NewMsgReplyTxIds(ids))
}

func (c *Client) handleRequestTxs(m *MsgRequestTxs) error {
	if c.config.RequestTxsFunc == nil {
		return c.SendMessage(NewMsgReplyTxs(nil))
	}
	// A transaction requested here may since have been evicted from the
	// mempool; the caller returns fewer bodies than ids requested and that
	// is not a protocol error.
	txs, err := c.config.RequestTxsFunc(c.callbackContext, m.TxIds)
	if err != nil {
		return err
	}
	return c.SendMessage(NewMsgReplyTxs(txs))
}
