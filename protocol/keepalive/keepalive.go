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

// Package keepalive implements the mini-protocol used to detect and
// maintain liveness between two bearers.
package keepalive

import (
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

const ProtocolName = "keep-alive"
const ProtocolId uint16 = 8

// DefaultPeriod is how often a KeepAlive ping is sent.
const DefaultPeriod = 10 * time.Second

// DefaultTimeout is how long to wait for a KeepAliveResponse before
// considering the peer dead.
const DefaultTimeout = 60 * time.Second

var (
	stateClient = protocol.NewState(1, "ClientHasAgency")
	stateServer = protocol.NewState(2, "ServerHasAgency")
)

var StateMap = protocol.StateMap{
	stateClient: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeKeepAlive, NewState: stateServer},
		},
	},
	stateServer: protocol.StateMapEntry{
		Agency:  protocol.AgencyServer,
		Timeout: DefaultTimeout,
		Transitions: []protocol.StateTransition{
			{MsgType: MessageTypeKeepAliveResponse, NewState: stateClient},
		},
	},
}

type KeepAlive struct {
	Client *Client
	Server *Server
}

type CallbackContext struct {
	Client *Client
	Server *Server
}

type KeepAliveFunc func(ctx CallbackContext, cookie uint16) error
type KeepAliveResponseFunc func(ctx CallbackContext, cookie uint16) error

type Config struct {
	KeepAliveFunc         KeepAliveFunc
	KeepAliveResponseFunc KeepAliveResponseFunc
	Cookie                uint16
	Period                time.Duration
	Timeout               time.Duration
}

type ConfigOptionFunc func(*Config)

func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		Period:  DefaultPeriod,
		Timeout: DefaultTimeout,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

func WithKeepAliveFunc(f KeepAliveFunc) ConfigOptionFunc {
	return func(c *Config) { c.KeepAliveFunc = f }
}

func WithKeepAliveResponseFunc(f KeepAliveResponseFunc) ConfigOptionFunc {
	return func(c *Config) { c.KeepAliveResponseFunc = f }
}

// WithCookie sets the cookie value the client sends with every ping. It is
// echoed back by the server and checked on receipt.
func WithCookie(cookie uint16) ConfigOptionFunc {
	return func(c *Config) { c.Cookie = cookie }
}

func WithPeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.Period = period }
}

func WithTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) { c.Timeout = timeout }
}
