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

// Package localtxmonitor implements the mini-protocol used to inspect a
// node's mempool snapshot without submitting a transaction.
package localtxmonitor

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

const ProtocolName = "local-tx-monitor"
const ProtocolId uint16 = 9

const DefaultAcquireTimeout = 5 * time.Second
const DefaultQueryTimeout = 30 * time.Second

var (
	stateIdle      = protocol.NewState(1, "Idle")
	stateAcquiring = protocol.NewState(2, "Acquiring")
	stateAcquired  = protocol.NewState(3, "Acquired")
	stateBusy      = protocol.NewState(4, "Busy")
	stateDone      = protocol.NewState(5, "Done")
)

var StateMap = protocol.StateMap{
	stateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeAcquire, NewState: stateAcquiring},
			{MsgType: MessageTypeAwaitAcquire, NewState: stateAcquiring},
			{MsgType: MessageTypeDone, NewState: stateDone},
		},
	},
	stateAcquiring: protocol.StateMapEntry{
		Agency: protocol.AgencyServer,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeAcquired, NewState: stateAcquired},
		},
	},
	stateAcquired: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeAcquire, NewState: stateAcquiring},
			{MsgType: MessageTypeAwaitAcquire, NewState: stateAcquiring},
			{MsgType: MessageTypeRelease, NewState: stateIdle},
			{MsgType: MessageTypeHasTx, NewState: stateBusy},
			{MsgType: MessageTypeNextTx, NewState: stateBusy},
			{MsgType: MessageTypeGetSizes, NewState: stateBusy},
		},
	},
	stateBusy: protocol.StateMapEntry{
		Agency: protocol.AgencyServer,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeReplyHasTx, NewState: stateAcquired},
			{MsgType: MessageTypeReplyNextTx, NewState: stateAcquired},
			{MsgType: MessageTypeReplyGetSizes, NewState: stateAcquired},
		},
	},
}

type CallbackContext struct {
	Client *Client
	Server *Server
}

// TxAndEraId is one mempool entry: an era-tagged, opaque transaction body.
type TxAndEraId struct {
	EraTag uint16
	Body   []byte
}

func (t TxAndEraId) Id() txid.TxId {
	return txid.New(t.Body)
}

// GetMempoolFunc answers an immediate Acquire: it snapshots the mempool
// as it stands right now.
type GetMempoolFunc func(ctx CallbackContext) (slotNo uint64, capacity uint32, txs []TxAndEraId, err error)

// AwaitMempoolFunc answers an AwaitAcquire: it blocks until the mempool
// has changed since the last acquired snapshot, then snapshots it.
type AwaitMempoolFunc func(ctx CallbackContext) (slotNo uint64, capacity uint32, txs []TxAndEraId, err error)

type DoneFunc func(ctx CallbackContext) error

type Config struct {
	GetMempoolFunc   GetMempoolFunc
	AwaitMempoolFunc AwaitMempoolFunc
	DoneFunc         DoneFunc
	AcquireTimeout   time.Duration
	QueryTimeout     time.Duration
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

func WithGetMempoolFunc(f GetMempoolFunc) ConfigOptionFunc {
	return func(c *Config) { c.GetMempoolFunc = f }
}

func WithAwaitMempoolFunc(f AwaitMempoolFunc) ConfigOptionFunc {
	return func(c *Config) { c.AwaitMempoolFunc = f }
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
