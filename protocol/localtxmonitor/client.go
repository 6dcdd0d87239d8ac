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
	"fmt"
	"sync"

	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Client acquires a mempool snapshot and inspects it without submitting
// anything.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext

	busyMutex    sync.Mutex
	acquired     bool
	acquiredSlot uint64

	acquireChan  chan error
	hasTxChan    chan bool
	nextTxChan   chan *TxAndEraId
	getSizesChan chan sizesResult
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{
		config:       cfg,
		acquireChan:  make(chan error, 1),
		hasTxChan:    make(chan bool, 1),
		nextTxChan:   make(chan *TxAndEraId, 1),
		getSizesChan: make(chan sizesResult, 1),
	}
	c.callbackContext = CallbackContext{Client: c}
	stateMap := StateMap.Copy()
	if entry, ok := stateMap[stateAcquiring]; ok {
		entry.Timeout = cfg.AcquireTimeout
		stateMap[stateAcquiring] = entry
	}
	if entry, ok := stateMap[stateBusy]; ok {
		entry.Timeout = cfg.QueryTimeout
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

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgAcquired:
		c.acquired = true
		c.acquiredSlot = m.SlotNo
		select {
		case c.acquireChan <- nil:
		default:
		}
		return nil
	case *MsgReplyHasTx:
		select {
		case c.hasTxChan <- m.Result:
		default:
		}
		return nil
	case *MsgReplyNextTx:
		select {
		case c.nextTxChan <- m.Tx:
		default:
		}
		return nil
	case *MsgReplyGetSizes:
		select {
		case c.getSizesChan <- m.Result:
		default:
		}
		return nil
	default:
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
}

func (c *Client) acquireLocked(msg protocol.Message) error {
	if err := c.SendMessage(msg); err != nil {
		return err
	}
	return <-c.acquireChan
}

// Acquire pins the current mempool snapshot.
func (c *Client) Acquire() error {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	return c.acquireLocked(NewMsgAcquire())
}

// AwaitAcquire blocks until the mempool has changed since the last
// acquired snapshot, then pins the new one.
func (c *Client) AwaitAcquire() error {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	return c.acquireLocked(NewMsgAwaitAcquire())
}

// Release gives up the acquired snapshot.
func (c *Client) Release() error {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if err := c.SendMessage(NewMsgRelease()); err != nil {
		return err
	}
	c.acquired = false
	return nil
}

func (c *Client) Stop() error {
	_ = c.SendMessage(NewMsgDone())
	return c.Protocol.Stop()
}

// HasTx reports whether id is present in the acquired snapshot, acquiring
// one first if necessary.
func (c *Client) HasTx(id txid.TxId) (bool, error) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if !c.acquired {
		if err := c.acquireLocked(NewMsgAcquire()); err != nil {
			return false, err
		}
	}
	if err := c.SendMessage(NewMsgHasTx(id[:])); err != nil {
		return false, err
	}
	return <-c.hasTxChan, nil
}

// NextTx returns the next entry in the acquired snapshot, or nil once
// exhausted.
func (c *Client) NextTx() (*TxAndEraId, error) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if !c.acquired {
		if err := c.acquireLocked(NewMsgAcquire()); err != nil {
			return nil, err
		}
	}
	if err := c.SendMessage(NewMsgNextTx()); err != nil {
		return nil, err
	}
	return <-c.nextTxChan, nil
}

// GetSizes returns the mempool's capacity and current occupancy in bytes,
// plus the transaction count.
func (c *Client) GetSizes() (capacity, size, count uint32, err error) {
	c.busyMutex.Lock()
	defer c.busyMutex.Unlock()
	if !c.acquired {
		if err := c.acquireLocked(NewMsgAcquire()); err != nil {
			return 0, 0, 0, err
		}
	}
	if err := c.SendMessage(NewMsgGetSizes()); err != nil {
		return 0, 0, 0, err
	}
	result := <-c.getSizesChan
	return result.Capacity, result.Size, result.NumberOfTxs, nil
}
