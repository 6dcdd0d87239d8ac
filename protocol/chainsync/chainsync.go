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

// Package chainsync implements the mini-protocol used to follow a peer's
// chain: request the next roll-forward/rollback, or find an intersection
// with a list of known points.
package chainsync

import (
	"sync"
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

const (
	ProtocolNameNodeToNode   = "chain-sync"
	ProtocolNameNodeToClient = "local-chain-sync"
)

// ProtocolId is 2 for node-to-node bearers and 5 for node-to-client. The
// facade selects the right one when it constructs the Config.
const (
	ProtocolIdNtN uint16 = 2
	ProtocolIdNtC uint16 = 5
)

const (
	DefaultIntersectTimeout = 5 * time.Second
	// Real Cardano networks have observed gaps of 55+ seconds between
	// blocks around difficulty adjustments; keep well above that
	DefaultBlockTimeout = 180 * time.Second
)

var (
	stateIdle      = protocol.NewState(1, "Idle")
	stateCanAwait  = protocol.NewState(2, "CanAwait")
	stateMustReply = protocol.NewState(3, "MustReply")
	stateIntersect = protocol.NewState(4, "Intersect")
	stateDone      = protocol.NewState(5, "Done")
)

var StateMap = protocol.StateMap{
	stateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeRequestNext, NewState: stateCanAwait},
			{MsgType: MessageTypeFindIntersect, NewState: stateIntersect},
			{MsgType: MessageTypeDone, NewState: stateDone},
		},
	},
	stateCanAwait: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultBlockTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeRollForward, NewState: stateIdle},
			{MsgType: MessageTypeRollBackward, NewState: stateIdle},
			{MsgType: MessageTypeAwaitReply, NewState: stateMustReply},
		},
	},
	stateMustReply: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultBlockTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeRollForward, NewState: stateIdle},
			{MsgType: MessageTypeRollBackward, NewState: stateIdle},
		},
	},
	stateIntersect: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultIntersectTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeIntersectFound, NewState: stateIdle},
			{MsgType: MessageTypeIntersectNotFound, NewState: stateIdle},
		},
	},
}

// ChainSync pairs the Client and Server sides; a bearer uses one depending
// on which end of the mini-protocol it plays.
type ChainSync struct {
	Client *Client
	Server *Server
}

// RollForwardFunc is invoked on the client side for each RollForward
// message. The header bytes are opaque to the core.
type RollForwardFunc func(ctx CallbackContext, headerType uint, headerCbor []byte, tip ocommon.Tip) error
type RollBackwardFunc func(ctx CallbackContext, point ocommon.Point, tip ocommon.Tip) error
type FindIntersectFunc func(ctx CallbackContext, points []ocommon.Point) (ocommon.Point, ocommon.Tip, error)
type RequestNextFunc func(ctx CallbackContext) error

// CallbackContext identifies which Client/Server pair a callback fired for
type CallbackContext struct {
	Client *Client
	Server *Server
}

type Config struct {
	RollBackwardFunc   RollBackwardFunc
	RollForwardFunc    RollForwardFunc
	FindIntersectFunc  FindIntersectFunc
	RequestNextFunc    RequestNextFunc
	IntersectTimeout   time.Duration
	BlockTimeout       time.Duration
	PipelineLimit      int
}

type ConfigOptionFunc func(*Config)

const DefaultPipelineLimit = 50

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		IntersectTimeout: DefaultIntersectTimeout,
		BlockTimeout:     DefaultBlockTimeout,
		PipelineLimit:    DefaultPipelineLimit,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithRollBackwardFunc(f RollBackwardFunc) ConfigOptionFunc {
	return func(c *Config) { c.RollBackwardFunc = f }
}

func WithRollForwardFunc(f RollForwardFunc) ConfigOptionFunc {
	return func(c *Config) { c.RollForwardFunc = f }
}

func WithFindIntersectFunc(f FindIntersectFunc) ConfigOptionFunc {
	return func(c *Config) { c.FindIntersectFunc = f }
}

func WithRequestNextFunc(f RequestNextFunc) ConfigOptionFunc {
	return func(c *Config) { c.RequestNextFunc = f }
}

func WithIntersectTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.IntersectTimeout = timeout }
}

func WithBlockTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.BlockTimeout = timeout }
}

func WithPipelineLimit(limit int) ConfigOptionFunc {
	return func(c *Config) { c.PipelineLimit = limit }
}

// pipelineState tracks how many RequestNext messages the client has sent
// without yet consuming their replies. It is passed to the protocol runtime
// as StateContext so nothing else needs mutex-protected shared state.
type pipelineState struct {
	mu    sync.Mutex
	count int
	limit int
}

func newPipelineState(limit int) *pipelineState {
	return &pipelineState{limit: limit}
}

func (p *pipelineState) increment() {
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
}

func (p *pipelineState) decrement() {
	p.mu.Lock()
	if p.count > 0 {
		p.count--
	}
	p.mu.Unlock()
}

func (p *pipelineState) isEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count == 0
}

func (p *pipelineState) isFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count >= p.limit
}
