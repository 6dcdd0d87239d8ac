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
	"sync"

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

// Client drives the query side: acquire a ledger snapshot at a point (or
// the current tip), issue opaque queries against it, and release it.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext

	acquireMutex sync.Mutex
	acquireChan  chan error

	resultMutex sync.Mutex
	resultChan  chan []byte
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{config: cfg}
	c.callbackContext = CallbackContext{Client: c}
	stateMap := StateMap.Copy()
	if entry, ok := stateMap[stateAcquiring]; ok {
		entry.Timeout = cfg.AcquireTimeout
		stateMap[stateAcquiring] = entry
	}
	if entry, ok := stateMap[stateQuerying]; ok {
		entry.Timeout = cfg.QueryTimeout
		stateMap[stateQuerying] = entry
	}
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = stateMap
	protoOptions.InitialState = stateIdle
	c.Protocol = protocol.New(protoOptions)
	return c
}

// Acquire pins a ledger snapshot at point, or at the current tip if point
// is nil.
func (c *Client) Acquire(point *ocommon.Point) error {
	ch := c.armAcquire()
	var msg protocol.Message
	if point != nil {
		msg = NewMsgAcquire(*point)
	} else {
		msg = NewMsgAcquireNoPoint()
	}
	if err := c.SendMessage(msg); err != nil {
		return err
	}
	return <-ch
}

// ReAcquire releases the current snapshot and pins a new one, without
// returning to Idle in between.
func (c *Client) ReAcquire(point *ocommon.Point) error {
	ch := c.armAcquire()
	var msg protocol.Message
	if point != nil {
		msg = NewMsgReAcquire(*point)
	} else {
		msg = NewMsgReAcquireNoPoint()
	}
	if err := c.SendMessage(msg); err != nil {
		return err
	}
	return <-ch
}

// Query runs an opaque, caller-encoded query against the acquired snapshot
// and returns the opaque, caller-decoded result bytes.
func (c *Client) Query(query []byte) ([]byte, error) {
	ch := c.armResult()
	if err := c.SendMessage(NewMsgQuery(query)); err != nil {
		return nil, err
	}
	return <-ch, nil
}

// Release gives up the acquired snapshot and returns to Idle.
func (c *Client) Release() error {
	return c.SendMessage(NewMsgRelease())
}

func (c *Client) Stop() error {
	_ = c.SendMessage(NewMsgDone())
	return c.Protocol.Stop()
}

func (c *Client) armAcquire() chan error {
	c.acquireMutex.Lock()
	defer c.acquireMutex.Unlock()
	c.acquireChan = make(chan error, 1)
	return c.acquireChan
}

func (c *Client) deliverAcquire(err error) {
	c.acquireMutex.Lock()
	ch := c.acquireChan
	c.acquireMutex.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

func (c *Client) armResult() chan []byte {
	c.resultMutex.Lock()
	defer c.resultMutex.Unlock()
	c.resultChan = make(chan []byte, 1)
	return c.resultChan
}

func (c *Client) deliverResult(data []byte) {
	c.resultMutex.Lock()
	ch := c.resultChan
	c.resultMutex.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- data:
	default:
	}
}

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgAcquired:
		c.deliverAcquire(nil)
		return nil
	case *MsgFailure:
		c.deliverAcquire(failureToError(m.Failure))
		return nil
	case *MsgResult:
		c.deliverResult(m.Result)
		return nil
	default:
		return fmt.Errorf("localstatequery: unexpected message type %T", msg)
	}
}
