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

package keepalive

import (
	"fmt"
	"sync"
	"time"

	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Client periodically pings the peer and declares it dead if the
// corresponding response doesn't arrive within Config.Timeout.
type Client struct {
	*protocol.Protocol
	config          Config
	callbackContext CallbackContext

	onceStart sync.Once

	timerMutex sync.Mutex
	pingTimer  *time.Timer
	deadTimer  *time.Timer
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{config: cfg}
	c.callbackContext = CallbackContext{Client: c}
	stateMap := StateMap.Copy()
	if entry, ok := stateMap[stateServer]; ok {
		entry.Timeout = cfg.Timeout
		stateMap[stateServer] = entry
	}
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = stateMap
	protoOptions.InitialState = stateClient
	c.Protocol = protocol.New(protoOptions)
	return c
}

// Start begins the periodic ping loop. It is idempotent.
func (c *Client) Start() {
	c.onceStart.Do(func() {
		go func() {
			<-c.DoneChan()
			c.timerMutex.Lock()
			if c.pingTimer != nil {
				c.pingTimer.Stop()
			}
			if c.deadTimer != nil {
				c.deadTimer.Stop()
			}
			c.timerMutex.Unlock()
		}()
		c.ping()
	})
}

func (c *Client) Stop() error {
	return c.Protocol.Stop()
}

func (c *Client) ping() {
	if c.IsDone() {
		return
	}
	if err := c.SendMessage(NewMsgKeepAlive(c.config.Cookie)); err != nil {
		return
	}
	c.timerMutex.Lock()
	if c.deadTimer != nil {
		c.deadTimer.Stop()
	}
	c.deadTimer = time.AfterFunc(c.config.Timeout, c.declarePeerDead)
	c.timerMutex.Unlock()
}

func (c *Client) declarePeerDead() {
	select {
	case c.ErrorChan() <- &protocol.TimeoutError{ProtocolName: ProtocolName, State: stateServer.Name}:
	case <-c.DoneChan():
	}
	_ = c.Protocol.Stop()
}

func (c *Client) scheduleNextPing() {
	c.timerMutex.Lock()
	if c.pingTimer != nil {
		c.pingTimer.Stop()
	}
	c.pingTimer = time.AfterFunc(c.config.Period, c.ping)
	c.timerMutex.Unlock()
}

func (c *Client) messageHandler(msg protocol.Message) error {
	m, ok := msg.(*MsgKeepAliveResponse)
	if !ok {
		return fmt.Errorf("keepalive: unexpected message type %T", msg)
	}
	c.timerMutex.Lock()
	if c.deadTimer != nil {
		c.deadTimer.Stop()
	}
	c.timerMutex.Unlock()
	if m.Cookie != c.config.Cookie {
		return fmt.Errorf("keepalive: mismatched cookie in response: expected %d, got %d", c.config.Cookie, m.Cookie)
	}
	if c.config.KeepAliveResponseFunc != nil {
		if err := c.config.KeepAliveResponseFunc(c.callbackContext, m.Cookie); err != nil {
			return err
		}
	}
	c.scheduleNextPing()
	return nil
}
