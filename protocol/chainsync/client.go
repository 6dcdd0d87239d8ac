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

package chainsync

import (
	"fmt"
	"sync"
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

type intersectResult struct {
	point Point
	tip   ocommon.Tip
	found bool
}

// Point is a re-export convenience so callers of this package don't need to
// import protocol/common just to build FindIntersect arguments.
type Point = ocommon.Point

// Client is the requesting side of chain-sync: it polls for the next
// roll-forward/rollback and can search for a shared intersection point.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext
	pipeline        *pipelineState

	onceStart sync.Once

	resultMutex sync.Mutex
	resultChan  chan intersectResult
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{
		config:   cfg,
		pipeline: newPipelineState(cfg.PipelineLimit),
	}
	c.callbackContext = CallbackContext{Client: c}
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = StateMap
	protoOptions.InitialState = stateIdle
	protoOptions.StateContext = c.pipeline
	c.Protocol = protocol.New(protoOptions)
	return c
}

func (c *Client) Start() {
	c.onceStart.Do(func() {})
}

// Stop sends Done (only legal while the client itself holds agency, i.e. no
// reply is in flight) and tears down the protocol runtime.
func (c *Client) Stop() error {
	if c.CurrentState() == stateIdle && !c.IsDone() {
		_ = c.SendMessage(NewMsgDone())
	}
	_ = c.WaitSendQueueDrained(250 * time.Millisecond)
	return c.Protocol.Stop()
}

// FindIntersect proposes a set of known points and blocks for the server's
// answer.
func (c *Client) FindIntersect(points []ocommon.Point) (ocommon.Point, ocommon.Tip, error) {
	ch := c.armResultChan()
	if err := c.SendMessage(NewMsgFindIntersect(points)); err != nil {
		return ocommon.Point{}, ocommon.Tip{}, err
	}
	res := <-ch
	if !res.found {
		return ocommon.Point{}, res.tip, ErrIntersectNotFound
	}
	return res.point, res.tip, nil
}

// GetCurrentTip retrieves the peer's current tip without changing the
// client's sync position, by proposing only the origin point: the server
// necessarily replies IntersectNotFound, whose Tip field is what we want.
func (c *Client) GetCurrentTip() (ocommon.Tip, error) {
	_, tip, err := c.FindIntersect([]ocommon.Point{ocommon.NewPointOrigin()})
	if err == ErrIntersectNotFound {
		return tip, nil
	}
	return tip, err
}

// RequestNext polls for the next roll-forward/rollback. If pipelining is in
// use, callers may call this again before the previous reply arrives, up to
// the configured PipelineLimit.
func (c *Client) RequestNext() error {
	if c.pipeline.isFull() {
		return protocol.ErrProtocolViolationPipelineExceeded
	}
	c.pipeline.increment()
	if err := c.SendMessage(NewMsgRequestNext()); err != nil {
		c.pipeline.decrement()
		return err
	}
	return nil
}

func (c *Client) armResultChan() chan intersectResult {
	c.resultMutex.Lock()
	defer c.resultMutex.Unlock()
	c.resultChan = make(chan intersectResult, 1)
	return c.resultChan
}

func (c *Client) deliverResult(res intersectResult) {
	c.resultMutex.Lock()
	ch := c.resultChan
	c.resultMutex.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- res:
	default:
	}
}

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgIntersectFound:
		c.deliverResult(intersectResult{point: m.Point, tip: m.Tip, found: true})
		return nil
	case *MsgIntersectNotFound:
		c.deliverResult(intersectResult{tip: m.Tip, found: false})
		return nil
	case *MsgAwaitReply:
		return nil
	case *MsgRollForward:
		c.pipeline.decrement()
		if c.config.RollForwardFunc != nil {
			return c.config.RollForwardFunc(c.callbackContext, m.WrappedHeader.HeaderType, m.WrappedHeader.HeaderCbor, m.Tip)
		}
		return nil
	case *MsgRollBackward:
		c.pipeline.decrement()
		if c.config.RollBackwardFunc != nil {
			return c.config.RollBackwardFunc(c.callbackContext, m.Point, m.Tip)
		}
		return nil
	default:
		return fmt.Errorf("chainsync: unexpected message type %T", msg)
	}
}
