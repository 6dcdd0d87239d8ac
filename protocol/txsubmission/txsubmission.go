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

// Package txsubmission implements the mini-protocol that propagates
// transactions between mempools. Agency is inverted from what the name
// suggests: the "client" role is the holder of transactions and answers
// requests, the "server" role is the downloader and drives the exchange.
package txsubmission

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

const ProtocolName = "tx-submission"
const ProtocolId uint16 = 4

// DefaultMaxUnacknowledgedTxIds is the announced-window size used when the
// caller doesn't negotiate a different value: the holder must never have
// more than this many identifiers outstanding and unacknowledged.
const DefaultMaxUnacknowledgedTxIds = 100

const DefaultIdleTimeout = 300 * time.Second

var (
	stateInit             = protocol.NewState(1, "Init")
	stateIdle             = protocol.NewState(2, "Idle")
	stateTxIdsBlocking    = protocol.NewState(3, "TxIdsBlocking")
	stateTxIdsNonBlocking = protocol.NewState(4, "TxIdsNonBlocking")
	stateTxs              = protocol.NewState(5, "Txs")
	stateDone             = protocol.NewState(6, "Done")
)

var StateMap = protocol.StateMap{
	stateInit: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeInit, NewState: stateIdle},
		},
	},
	stateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyServer,
		Transitions: []protocol.StateTransition{
			{
				MsgType:  MessageTypeRequestTxIds,
				NewState: stateTxIdsBlocking,
				MatchFunc: func(_ any, msg protocol.Message) bool {
					return msg.(*MsgRequestTxIds).Blocking
				},
			},
			{
				MsgType:  MessageTypeRequestTxIds,
				NewState: stateTxIdsNonBlocking,
				MatchFunc: func(_ any, msg protocol.Message) bool {
					return !msg.(*MsgRequestTxIds).Blocking
				},
			},
			{MsgType: MessageTypeRequestTxs, NewState: stateTxs},
		},
	},
	stateTxIdsBlocking: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeReplyTxIds, NewState: stateIdle},
			// Done is only legal from the blocking wait: a client with
			// nothing left to announce may end the protocol here. It is
			// never legal from the non-blocking state.
			{MsgType: MessageTypeDone, NewState: stateDone},
		},
	},
	stateTxIdsNonBlocking: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeReplyTxIds, NewState: stateIdle},
		},
	},
	stateTxs: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeReplyTxs, NewState: stateIdle},
		},
	},
}

type CallbackContext struct {
	Client *Client
	Server *Server
}

// RequestTxIdsFunc answers the holder's side of RequestTxIds. In blocking
// mode it may block until at least one transaction is available, or return
// ErrDone to end the protocol instead of replying.
type RequestTxIdsFunc func(ctx CallbackContext, blocking bool, ack uint16, req uint16) ([]TxIdAndSize, error)
type RequestTxsFunc func(ctx CallbackContext, ids []txid.TxId) ([]TxBody, error)
type InitFunc func(ctx CallbackContext) error

type ReplyTxIdsFunc func(ctx CallbackContext, ids []TxIdAndSize) error
type ReplyTxsFunc func(ctx CallbackContext, txs []TxBody) error
type DoneFunc func(ctx CallbackContext) error

type Config struct {
	RequestTxIdsFunc       RequestTxIdsFunc
	RequestTxsFunc         RequestTxsFunc
	InitFunc               InitFunc
	ReplyTxIdsFunc         ReplyTxIdsFunc
	ReplyTxsFunc           ReplyTxsFunc
	DoneFunc               DoneFunc
	IdleTimeout            time.Duration
	MaxUnacknowledgedTxIds uint16
}

type ConfigOptionFunc func(*Config)

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		IdleTimeout:            DefaultIdleTimeout,
		MaxUnacknowledgedTxIds: DefaultMaxUnacknowledgedTxIds,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithRequestTxIdsFunc(f RequestTxIdsFunc) ConfigOptionFunc {
	return func(c *Config) { c.RequestTxIdsFunc = f }
}

func WithRequestTxsFunc(f RequestTxsFunc) ConfigOptionFunc {
	return func(c *Config) { c.RequestTxsFunc = f }
}

func WithInitFunc(f InitFunc) ConfigOptionFunc {
	return func(c *Config) { c.InitFunc = f }
}

func WithReplyTxIdsFunc(f ReplyTxIdsFunc) ConfigOptionFunc {
	return func(c *Config) { c.ReplyTxIdsFunc = f }
}

func WithReplyTxsFunc(f ReplyTxsFunc) ConfigOptionFunc {
	return func(c *Config) { c.ReplyTxsFunc = f }
}

func WithDoneFunc(f DoneFunc) ConfigOptionFunc {
	return func(c *Config) { c.DoneFunc = f }
}

func WithIdleTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.IdleTimeout = timeout }
}

func WithMaxUnacknowledgedTxIds(n uint16) ConfigOptionFunc {
	return func(c *Config) { c.MaxUnacknowledgedTxIds = n }
}
