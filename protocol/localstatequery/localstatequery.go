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

// Package localstatequery implements the mini-protocol used to run
// point-in-time queries against a node's local ledger state. Queries and
// results are opaque byte strings the caller encodes and decodes; the core
// only round-trips them.
package localstatequery

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
	ocommon "github.com/echelon-labs/ouroboros-net/protocol/common"
)

const ProtocolName = "local-state-query"
const ProtocolId uint16 = 7

const DefaultAcquireTimeout = 10 * time.Second
const DefaultQueryTimeout = 60 * time.Second

const (
	AcquireFailurePointTooOld      uint8 = 0
	AcquireFailurePointNotOnChain  uint8 = 1
)

var (
	stateIdle      = protocol.NewState(1, "Idle")
	stateAcquiring = protocol.NewState(2, "Acquiring")
	stateAcquired  = protocol.NewState(3, "Acquired")
	stateQuerying  = protocol.NewState(4, "Querying")
	stateDone      = protocol.NewState(5, "Done")
)

var StateMap = protocol.StateMap{
	stateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeAcquire, NewState: stateAcquiring},
			{MsgType: MessageTypeAcquireNoPoint, NewState: stateAcquiring},
			{MsgType: MessageTypeDone, NewState: stateDone},
		},
	},
	stateAcquiring: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultAcquireTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeAcquired, NewState: stateAcquired},
			{MsgType: MessageTypeFailure, NewState: stateIdle},
		},
	},
	stateAcquired: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeQuery, NewState: stateQuerying},
			{MsgType: MessageTypeReAcquire, NewState: stateAcquiring},
			{MsgType: MessageTypeReAcquireNoPoint, NewState: stateAcquiring},
			{MsgType: MessageTypeRelease, NewState: stateIdle},
		},
	},
	stateQuerying: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultQueryTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeResult, NewState: stateAcquired},
		},
	},
}

type CallbackContext struct {
	Client *Client
	Server *Server
}

// AcquireFunc answers an Acquire/ReAcquire request. point is nil when the
// caller asked to acquire the current tip rather than a specific point.
type AcquireFunc func(ctx CallbackContext, point *ocommon.Point) error
type QueryFunc func(ctx CallbackContext, query []byte) error
type DoneFunc func(ctx CallbackContext) error

type Config struct {
	AcquireFunc    AcquireFunc
	QueryFunc      QueryFunc
	DoneFunc       DoneFunc
	AcquireTimeout time.Duration
	QueryTimeout   time.Duration
}

type ConfigOptionFunc func(*Config)

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		AcquireTimeout: DefaultAcquireTimeout,
		QueryTimeout:   DefaultQueryTimeout,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithAcquireFunc(f AcquireFunc) ConfigOptionFunc {
	return func(c *Config) { c.AcquireFunc = f }
}

func WithQueryFunc(f QueryFunc) ConfigOptionFunc {
	return func(c *Config) { c.QueryFunc = f }
}

func WithDoneFunc(f DoneFunc) ConfigOptionFunc {
	return func(c *Config) { c.DoneFunc = f }
}

func WithAcquireTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.AcquireTimeout = timeout }
}

func WithQueryTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.QueryTimeout = timeout }
}
