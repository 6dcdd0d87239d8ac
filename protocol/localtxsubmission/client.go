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
	"sync"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Client submits transactions one at a time and waits for the node to
// accept or reject each before submitting the next.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext

	resultMutex sync.Mutex
	resultChan  chan error
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{config: cfg}
	c.callbackContext = CallbackContext{Client: c}
	stateMap := StateMap.Copy()
	if entry, ok := stateMap[stateBusy]; ok {
		entry.Timeout = cfg.BusyTimeout
		stateMap[stateBusy] = entry
	}
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = stateMap
	protoOptions.InitialState = stateIdle
	c.Protocol = protocol.New(protoOptions)
	return c
}

// SubmitTx submits a single era-tagged transaction body and blocks until
// the node accepts or rejects it. A rejection is returned as a
// *TxRejectedError, which is recoverable at the caller's discretion.
func (c *Client) SubmitTx(eraTag uint16, txBody []byte) error {
	ch := c.armResult()
	if err := c.SendMessage(NewMsgSubmitTx(eraTag, txBody)); err != nil {
		return err
	}
	return <-ch
}

func (c *Client) Stop() error {
	_ = c.SendMessage(NewMsgDone())
	return c.Protocol.Stop()
}

func (c *Client) armResult() chan error {
	c.resultMutex.Lock()
	defer c.resultMutex.Unlock()
	c.resultChan = make(chan error, 1)
	return c.resultChan
}

func (c *Client) deliverResult(err error) {
	c.resultMutex.Lock()
	ch := c.resultChan
	c.resultMutex.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgAcceptTx:
		c.deliverResult(nil)
		return nil
	case *MsgRejectTx:
		c.deliverResult(&TxRejectedError{
			ReasonCbor: m.Reason,
			Reason:     decodeRejection(m.Reason),
		})
		return nil
	default:
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
}
