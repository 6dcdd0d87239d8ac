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
	"sync"

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

type rangeResult struct {
	blocks []wrappedBlockResult
	err    error
}

type wrappedBlockResult struct {
	blockType uint
	blockCbor []byte
}

// Client is the requesting side of block-fetch: it asks for explicit block
// ranges and streams back the resulting bodies.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext

	queueMutex sync.Mutex
	queue      []chan rangeResult

	collectMutex sync.Mutex
	collecting   []wrappedBlockResult
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{config: cfg}
	c.callbackContext = CallbackContext{Client: c}
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = StateMap
	protoOptions.InitialState = stateIdle
	c.Protocol = protocol.New(protoOptions)
	return c
}

// RequestRange asks the peer to stream every block between start and end
// inclusive. It blocks until the batch (or a NoBlocks refusal) completes.
// Concurrent calls from multiple goroutines each send their request at once,
// whatever Config.Pipelined says; replies are matched to requests in FIFO
// order.
func (c *Client) RequestRange(start ocommon.Point, end ocommon.Point) ([][]byte, error) {
	ch := make(chan rangeResult, 1)
	c.queueMutex.Lock()
	c.queue = append(c.queue, ch)
	c.queueMutex.Unlock()
	if err := c.SendMessage(NewMsgRequestRange(start, end)); err != nil {
		return nil, err
	}
	res := <-ch
	if res.err != nil {
		return nil, res.err
	}
	blocks := make([][]byte, len(res.blocks))
	for i, b := range res.blocks {
		blocks[i] = b.blockCbor
	}
	return blocks, nil
}

// GetBlock is a convenience wrapper for fetching a single block by point.
func (c *Client) GetBlock(point ocommon.Point) ([]byte, error) {
	blocks, err := c.RequestRange(point, point)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, ErrBlockNotFound
	}
	return blocks[0], nil
}

func (c *Client) Stop() error {
	_ = c.SendMessage(NewMsgClientDone())
	return c.Protocol.Stop()
}

func (c *Client) popPending() chan rangeResult {
	c.queueMutex.Lock()
	defer c.queueMutex.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	ch := c.queue[0]
	c.queue = c.queue[1:]
	return ch
}

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgStartBatch:
		c.collectMutex.Lock()
		c.collecting = nil
		c.collectMutex.Unlock()
		if c.config.StartBatchFunc != nil {
			return c.config.StartBatchFunc(c.callbackContext)
		}
		return nil
	case *MsgNoBlocks:
		if ch := c.popPending(); ch != nil {
			ch <- rangeResult{err: ErrBlockNotFound}
		}
		if c.config.NoBlocksFunc != nil {
			return c.config.NoBlocksFunc(c.callbackContext)
		}
		return nil
	case *MsgBlock:
		c.collectMutex.Lock()
		c.collecting = append(c.collecting, wrappedBlockResult{
			blockType: m.WrappedBlock.Type,
			blockCbor: m.WrappedBlock.RawBlock,
		})
		c.collectMutex.Unlock()
		if c.config.BlockFunc != nil {
			return c.config.BlockFunc(c.callbackContext, m.WrappedBlock.Type, m.WrappedBlock.RawBlock)
		}
		return nil
	case *MsgBatchDone:
		c.collectMutex.Lock()
		blocks := c.collecting
		c.collecting = nil
		c.collectMutex.Unlock()
		if ch := c.popPending(); ch != nil {
			ch <- rangeResult{blocks: blocks}
		}
		if c.config.BatchDoneFunc != nil {
			return c.config.BatchDoneFunc(c.callbackContext)
		}
		return nil
	default:
		return fmt.Errorf("blockfetch: unexpected message type %T", msg)
	}
}
