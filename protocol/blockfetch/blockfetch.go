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

// Package blockfetch implements the mini-protocol used to request explicit
// ranges of blocks and stream their bodies.
package blockfetch

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

const ProtocolName = "block-fetch"
const ProtocolId uint16 = 3

const DefaultBatchTimeout = 60 * time.Second

var (
	stateIdle      = protocol.NewState(1, "Idle")
	stateBusy      = protocol.NewState(2, "Busy")
	stateStreaming = protocol.NewState(3, "Streaming")
	stateDone      = protocol.NewState(4, "Done")
)

var StateMap = protocol.StateMap{
	stateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeRequestRange, NewState: stateBusy},
			{MsgType: MessageTypeClientDone, NewState: stateDone},
		},
	},
	stateBusy: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultBatchTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeStartBatch, NewState: stateStreaming},
			{MsgType: MessageTypeNoBlocks, NewState: stateIdle},
		},
	},
	stateStreaming: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultBatchTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeBlock, NewState: stateStreaming},
			{MsgType: MessageTypeBatchDone, NewState: stateIdle},
		},
	},
}

type BlockFetch struct {
	Client *Client
	Server *Server
}

type CallbackContext struct {
	Client *Client
	Server *Server
}

type StartBatchFunc func(ctx CallbackContext) error
type NoBlocksFunc func(ctx CallbackContext) error
type BlockFunc func(ctx CallbackContext, blockType uint, blockCbor []byte) error
type BatchDoneFunc func(ctx CallbackContext) error
type RequestRangeFunc func(ctx CallbackContext, start ocommon.Point, end ocommon.Point) error

type Config struct {
	StartBatchFunc   StartBatchFunc
	NoBlocksFunc     NoBlocksFunc
	BlockFunc        BlockFunc
	BatchDoneFunc    BatchDoneFunc
	RequestRangeFunc RequestRangeFunc
	BatchTimeout     time.Duration
	// Pipelined is set by WithPipelined. Client does not read it: each
	// RequestRange call sends its request at once, without waiting for an
	// earlier BatchDone/NoBlocks and without checking the negotiated version.
	Pipelined bool
}

type ConfigOptionFunc func(*Config)

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		BatchTimeout: DefaultBatchTimeout,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithStartBatchFunc(f StartBatchFunc) ConfigOptionFunc {
	return func(c *Config) { c.StartBatchFunc = f }
}

func WithNoBlocksFunc(f NoBlocksFunc) ConfigOptionFunc {
	return func(c *Config) { c.NoBlocksFunc = f }
}

func WithBlockFunc(f BlockFunc) ConfigOptionFunc {
	return func(c *Config) { c.BlockFunc = f }
}

func WithBatchDoneFunc(f BatchDoneFunc) ConfigOptionFunc {
	return func(c *Config) { c.BatchDoneFunc = f }
}

func WithRequestRangeFunc(f RequestRangeFunc) ConfigOptionFunc {
	return func(c *Config) { c.RequestRangeFunc = f }
}

func WithBatchTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.BatchTimeout = timeout }
}

func WithPipelined(pipelined bool) ConfigOptionFunc {
	return func(c *Config) { c.Pipelined = pipelined }
}
