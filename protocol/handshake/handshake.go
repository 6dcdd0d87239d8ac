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

// Package handshake implements the mini-protocol that negotiates a wire
// version and its parameters before any other mini-protocol may speak.
package handshake

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

const ProtocolName = "handshake"
const ProtocolId uint16 = 0

var (
	stateDone    = protocol.NewState(1, "Done")
	statePropose = protocol.NewState(2, "Propose")
	stateConfirm = protocol.NewState(3, "Confirm")
)

var StateMap = protocol.StateMap{
	statePropose: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{
				MsgType:  MessageTypeProposeVersions,
				NewState: stateConfirm,
			},
		},
	},
	stateConfirm: protocol.StateMapEntry{
		Agency: protocol.AgencyServer,
		Transitions: []protocol.StateTransition{
			{
				MsgType:  MessageTypeAcceptVersion,
				NewState: stateDone,
			},
			{
				MsgType:  MessageTypeRefuse,
				NewState: stateDone,
			},
			{
				// Simultaneous-open: the peer opened at the same time we
				// did and is proposing rather than confirming. This is not
				// a protocol violation; it restarts negotiation with this
				// end proposing again.
				MsgType:  MessageTypeProposeVersions,
				NewState: statePropose,
			},
		},
	},
}

// FinishedFunc is invoked once a version has been agreed, with the winning
// version number and whether this end is the server.
type FinishedFunc func(version uint16, versionData protocol.VersionData, server bool) error

// Handshake pairs the Client and Server sides of the protocol; a bearer
// uses exactly one of the two depending on which end it is.
type Handshake struct {
	Client *Client
	Server *Server
}

// Config carries the version table this end proposes/accepts and the
// callback fired once negotiation completes.
type Config struct {
	ProtocolVersionMap protocol.ProtocolVersionMap
	NetworkMagic       uint32
	ClientFullDuplex   bool
	FinishedFunc       FinishedFunc
	Timeout            time.Duration
}

type ConfigOptionFunc func(*Config)

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		Timeout: 5 * time.Second,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithProtocolVersionMap(versionMap protocol.ProtocolVersionMap) ConfigOptionFunc {
	return func(c *Config) {
		c.ProtocolVersionMap = versionMap
	}
}

func WithNetworkMagic(magic uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.NetworkMagic = magic
	}
}

func WithClientFullDuplex(fullDuplex bool) ConfigOptionFunc {
	return func(c *Config) {
		c.ClientFullDuplex = fullDuplex
	}
}

func WithFinishedFunc(finishedFunc FinishedFunc) ConfigOptionFunc {
	return func(c *Config) {
		c.FinishedFunc = finishedFunc
	}
}

func WithTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.Timeout = timeout
	}
}
