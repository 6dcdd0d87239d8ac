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

package handshake

import (
	"fmt"
	"sync"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

// Client is the propose-then-await-accept side of the handshake. Every
// bearer's dialing end runs a Client.
type Client struct {
	*protocol.Protocol
	config    Config
	onceStart sync.Once
}

func NewClient(protoOptions protocol.ProtocolConfig, cfg Config) *Client {
	c := &Client{config: cfg}
	protoOptions.Name = ProtocolName
	protoOptions.ProtocolId = ProtocolId
	protoOptions.Role = protocol.RoleClient
	protoOptions.MessageHandlerFunc = c.messageHandler
	protoOptions.MessageFromCborFunc = NewMsgFromCbor
	protoOptions.StateMap = StateMap
	protoOptions.InitialState = statePropose
	c.Protocol = protocol.New(protoOptions)
	return c
}

// Start sends ProposeVersions built from the configured version table. It
// is idempotent; only the first call has any effect.
func (c *Client) Start() {
	c.onceStart.Do(func() {
		go c.propose()
	})
}

func (c *Client) propose() {
	versionMap := make(map[uint16]cbor.RawMessage, len(c.config.ProtocolVersionMap))
	for version := range c.config.ProtocolVersionMap {
		data, err := buildVersionData(version, c.config.NetworkMagic, c.config.ClientFullDuplex)
		if err != nil {
			c.reportError(fmt.Errorf("handshake: %w", err))
			return
		}
		encoded, err := cbor.Encode(data)
		if err != nil {
			c.reportError(fmt.Errorf("handshake: encode version params: %w", err))
			return
		}
		versionMap[version] = encoded
	}
	if err := c.SendMessage(NewMsgProposeVersions(versionMap)); err != nil {
		c.reportError(err)
	}
}

func (c *Client) reportError(err error) {
	select {
	case c.ErrorChan() <- err:
	case <-c.DoneChan():
	}
}

func (c *Client) messageHandler(msg protocol.Message) error {
	switch m := msg.(type) {
	case *MsgAcceptVersion:
		return c.handleAcceptVersion(m)
	case *MsgRefuse:
		return c.handleRefuse(m)
	case *MsgProposeVersions:
		// Simultaneous-open: the peer proposed instead of confirming.
		// Re-propose and let the bearer's initiator/responder assignment
		// settle the tie.
		go c.propose()
		return nil
	default:
		return fmt.Errorf("handshake: unexpected message type %T", msg)
	}
}

func (c *Client) handleAcceptVersion(msg *MsgAcceptVersion) error {
	protoVersion, ok := c.config.ProtocolVersionMap[msg.Version]
	if !ok {
		return fmt.Errorf("handshake: server accepted unknown version %d", msg.Version)
	}
	versionData, err := protoVersion.NewVersionDataFromCborFunc(msg.VersionData)
	if err != nil {
		return fmt.Errorf("handshake: decode accepted version params: %w", err)
	}
	if c.config.FinishedFunc != nil {
		return c.config.FinishedFunc(msg.Version, versionData, false)
	}
	return nil
}

func (c *Client) handleRefuse(msg *MsgRefuse) error {
	if len(msg.Reason) == 0 {
		return fmt.Errorf("handshake: refused with empty reason")
	}
	reasonCode, _ := msg.Reason[0].(uint64)
	switch reasonCode {
	case RefuseReasonVersionMismatch:
		var versions []uint16
		if len(msg.Reason) > 1 {
			if raw, ok := msg.Reason[1].([]any); ok {
				for _, v := range raw {
					if vv, ok := v.(uint64); ok {
						versions = append(versions, uint16(vv))
					}
				}
			}
		}
		return &protocol.VersionMismatchError{SupportedVersions: versions}
	case RefuseReasonDecodeError:
		return fmt.Errorf("handshake: peer reported decode error: %v", msg.Reason[1:])
	case RefuseReasonRefused:
		return fmt.Errorf("handshake: peer refused: %v", msg.Reason[1:])
	default:
		return fmt.Errorf("handshake: refused with unknown reason code %d", reasonCode)
	}
}

// buildVersionData constructs the outgoing parameter blob for a proposed
// version number. Node-to-client versions are offset by
// protocol.ProtocolVersionNtCOffset on the wire; everything below that is
// node-to-node.
func buildVersionData(version uint16, networkMagic uint32, fullDuplex bool) (any, error) {
	if version >= protocol.ProtocolVersionNtCOffset {
		return NewNtCVersionData(networkMagic, false), nil
	}
	return NewNtNVersionData(networkMagic, fullDuplex, 0, false), nil
}
