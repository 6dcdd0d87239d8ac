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

// Package localtxsubmission implements the mini-protocol used by a local
// client to submit a single transaction at a time to a node and learn
// whether it was accepted into the mempool.
package localtxsubmission

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

const ProtocolName = "local-tx-submission"
const ProtocolId uint16 = 6

const DefaultBusyTimeout = 60 * time.Second

var (
	stateIdle = protocol.NewState(1, "Idle")
	stateBusy = protocol.NewState(2, "Busy")
	stateDone = protocol.NewState(3, "Done")
)

var StateMap = protocol.StateMap{
	stateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeSubmitTx, NewState: stateBusy},
			{MsgType: MessageTypeDone, NewState: stateDone},
		},
	},
	stateBusy: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultBusyTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeAcceptTx, NewState: stateIdle},
			{MsgType: MessageTypeRejectTx, NewState: stateIdle},
		},
	},
}

type CallbackContext struct {
	Client *Client
	Server *Server
}

// SubmitTxFunc answers a SubmitTx request. eraTag identifies the era the
// transaction body belongs to; txBody is the era's raw transaction CBOR.
// A non-nil error rejects the transaction; if the error is a
// *TxRejectedError, its ReasonCbor is sent as the rejection payload, and
// any other error is sent with a nil reason.
type SubmitTxFunc func(ctx CallbackContext, eraTag uint16, txBody []byte) error
type DoneFunc func(ctx CallbackContext) error

type Config struct {
	SubmitTxFunc SubmitTxFunc
	DoneFunc     DoneFunc
	BusyTimeout  time.Duration
}

type ConfigOptionFunc func(*Config)

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		BusyTimeout: DefaultBusyTimeout,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithSubmitTxFunc(f SubmitTxFunc) ConfigOptionFunc {
	return func(c *Config) { c.SubmitTxFunc = f }
}

func WithDoneFunc(f DoneFunc) ConfigOptionFunc {
	return func(c *Config) { c.DoneFunc = f }
}

func WithBusyTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.BusyTimeout = timeout }
}
