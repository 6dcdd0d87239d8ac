// Copyright 2023 Blink Labs, LLC.
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

// Package ouroboros implements support for interacting with Cardano nodes using
// the Ouroboros network protocol.
//
// The Ouroboros network protocol consists of a muxer and multiple mini-protocols
// that provide various functions. A handshake and protocol versioning are used to
// ensure peer compatibility.
//
// This package is the main entry point into this library. The other packages can
// be used outside of this one, but it's not a primary design goal.
package ouroboros

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/echelon-labs/ouroboros-net/muxer"
	"github.com/echelon-labs/ouroboros-net/protocol"
	"github.com/echelon-labs/ouroboros-net/protocol/blockfetch"
	"github.com/echelon-labs/ouroboros-net/protocol/chainsync"
	"github.com/echelon-labs/ouroboros-net/protocol/handshake"
	"github.com/echelon-labs/ouroboros-net/protocol/keepalive"
	"github.com/echelon-labs/ouroboros-net/protocol/localstatequery"
	"github.com/echelon-labs/ouroboros-net/protocol/localtxmonitor"
	"github.com/echelon-labs/ouroboros-net/protocol/localtxsubmission"
	"github.com/echelon-labs/ouroboros-net/protocol/txsubmission"
)

// ConnectionId identifies a Connection by the local/remote address pair of
// its underlying bearer. It's suitable as a map key for a ConnectionManager.
type ConnectionId struct {
	LocalAddr  string
	RemoteAddr string
}

func (c ConnectionId) String() string {
	return fmt.Sprintf("%s<->%s", c.LocalAddr, c.RemoteAddr)
}

// ChainSyncHandle pairs the Client and Server sides of the chain-sync
// mini-protocol. A bearer runs whichever side matches its role.
type ChainSyncHandle struct {
	Client *chainsync.Client
	Server *chainsync.Server
}

// BlockFetchHandle pairs the Client and Server sides of the block-fetch
// mini-protocol.
type BlockFetchHandle struct {
	Client *blockfetch.Client
	Server *blockfetch.Server
}

// TxSubmissionHandle pairs the Client and Server sides of the (node-to-node)
// tx-submission mini-protocol.
type TxSubmissionHandle struct {
	Client *txsubmission.Client
	Server *txsubmission.Server
}

// KeepAliveHandle pairs the Client and Server sides of the keep-alive
// mini-protocol.
type KeepAliveHandle struct {
	Client *keepalive.Client
	Server *keepalive.Server
}

// LocalStateQueryHandle pairs the Client and Server sides of the
// local-state-query mini-protocol.
type LocalStateQueryHandle struct {
	Client *localstatequery.Client
	Server *localstatequery.Server
}

// LocalTxSubmissionHandle pairs the Client and Server sides of the
// (node-to-client) local-tx-submission mini-protocol.
type LocalTxSubmissionHandle struct {
	Client *localtxsubmission.Client
	Server *localtxsubmission.Server
}

// LocalTxMonitorHandle pairs the Client and Server sides of the
// local-tx-monitor mini-protocol.
type LocalTxMonitorHandle struct {
	Client *localtxmonitor.Client
	Server *localtxmonitor.Server
}

// Connection is a wrapper around a net.Conn object that handles communication
// using the Ouroboros network protocol over that connection.
type Connection struct {
	conn                  net.Conn
	networkMagic          uint32
	server                bool
	useNodeToNodeProto    bool
	muxer                 *muxer.Muxer
	errorChan             chan error
	protoErrorChan        chan error
	handshakeFinishedChan chan interface{}
	doneChan              chan interface{}
	waitGroup             sync.WaitGroup
	onceClose             sync.Once
	sendKeepAlives        bool
	delayMuxerStart       bool
	delayProtocolStart    bool
	fullDuplex            bool
	// Mini-protocol configuration overrides
	blockFetchConfig        *blockfetch.Config
	chainSyncConfig         *chainsync.Config
	keepAliveConfig         *keepalive.Config
	localStateQueryConfig   *localstatequery.Config
	localTxMonitorConfig    *localtxmonitor.Config
	localTxSubmissionConfig *localtxsubmission.Config
	txSubmissionConfig      *txsubmission.Config
	// Mini-protocol handles, populated once the handshake completes
	blockFetch        BlockFetchHandle
	chainSync         ChainSyncHandle
	handshakeClient   *handshake.Client
	handshakeServer   *handshake.Server
	keepAlive         KeepAliveHandle
	localStateQuery   LocalStateQueryHandle
	localTxMonitor    LocalTxMonitorHandle
	localTxSubmission LocalTxSubmissionHandle
	txSubmission      TxSubmissionHandle
}

// NewConnection returns a new Connection object with the specified options. If a connection is provided, the
// handshake will be started. An error will be returned if the handshake fails
func NewConnection(options ...ConnectionOptionFunc) (*Connection, error) {
	c := &Connection{
		protoErrorChan:        make(chan error, 10),
		handshakeFinishedChan: make(chan interface{}),
		doneChan:              make(chan interface{}),
	}
	for _, option := range options {
		option(c)
	}
	if c.errorChan == nil {
		c.errorChan = make(chan error, 10)
	}
	if c.conn != nil {
		if err := c.setupConnection(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// New is an alias to NewConnection for backward compatibility
func New(options ...ConnectionOptionFunc) (*Connection, error) {
	return NewConnection(options...)
}

// Id returns a value that uniquely identifies this connection by its bearer's
// local and remote addresses. It's suitable for use as a ConnectionManager key.
func (c *Connection) Id() ConnectionId {
	id := ConnectionId{}
	if c.conn != nil {
		id.LocalAddr = c.conn.LocalAddr().String()
		id.RemoteAddr = c.conn.RemoteAddr().String()
	}
	return id
}

// Muxer returns the muxer object for the Ouroboros connection
func (c *Connection) Muxer() *muxer.Muxer {
	return c.muxer
}

// ErrorChan returns the channel for asynchronous errors
func (c *Connection) ErrorChan() chan error {
	return c.errorChan
}

// Dial will establish a connection using the specified protocol and address. These parameters are
// passed to [DialBearer]. The handshake will be started when a connection is established.
// An error will be returned if the connection fails, a connection was already established, or the
// handshake fails
func (c *Connection) Dial(proto string, address string) error {
	if c.conn != nil {
		return fmt.Errorf("a connection was already established")
	}
	conn, err := DialBearer(proto, address)
	if err != nil {
		return err
	}
	c.conn = conn
	if err := c.setupConnection(); err != nil {
		return err
	}
	return nil
}

// Close will shutdown the Ouroboros connection
func (c *Connection) Close() error {
	var err error
	c.onceClose.Do(func() {
		close(c.doneChan)
		if c.muxer != nil {
			c.muxer.Stop()
		}
		c.waitGroup.Wait()
		close(c.errorChan)
		close(c.protoErrorChan)
		select {
		case _, ok := <-c.handshakeFinishedChan:
			if ok {
				close(c.handshakeFinishedChan)
			}
		default:
			close(c.handshakeFinishedChan)
		}
	})
	return err
}

// BlockFetch returns the block-fetch protocol handle
func (c *Connection) BlockFetch() BlockFetchHandle {
	return c.blockFetch
}

// ChainSync returns the chain-sync protocol handle
func (c *Connection) ChainSync() ChainSyncHandle {
	return c.chainSync
}

// KeepAlive returns the keep-alive protocol handle
func (c *Connection) KeepAlive() KeepAliveHandle {
	return c.keepAlive
}

// LocalStateQuery returns the local-state-query protocol handle
func (c *Connection) LocalStateQuery() LocalStateQueryHandle {
	return c.localStateQuery
}

// LocalTxMonitor returns the local-tx-monitor protocol handle
func (c *Connection) LocalTxMonitor() LocalTxMonitorHandle {
	return c.localTxMonitor
}

// LocalTxSubmission returns the local-tx-submission protocol handle
func (c *Connection) LocalTxSubmission() LocalTxSubmissionHandle {
	return c.localTxSubmission
}

// TxSubmission returns the tx-submission protocol handle
func (c *Connection) TxSubmission() TxSubmissionHandle {
	return c.txSubmission
}

// setupConnection establishes the muxer, configures and runs the handshake process, and initializes
// the appropriate mini-protocols
func (c *Connection) setupConnection() error {
	c.muxer = muxer.New(c.conn)
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		select {
		case <-c.doneChan:
			return
		case err, ok := <-c.muxer.ErrorChan():
			if !ok {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				c.errorChan <- io.EOF
			} else {
				c.errorChan <- fmt.Errorf("muxer error: %s", err)
			}
			c.Close()
		}
	}()
	if c.networkMagic == 0 {
		return fmt.Errorf("invalid network magic value provided: %d", c.networkMagic)
	}
	role := protocol.RoleClient
	if c.server {
		role = protocol.RoleServer
	}
	mode := protocol.ModeNodeToClient
	versionMap := ntcVersionMap()
	if c.useNodeToNodeProto {
		mode = protocol.ModeNodeToNode
		versionMap = protocolVersionMapNtN
	}
	protoOptions := protocol.ProtocolConfig{
		Muxer:     c.muxer,
		ErrorChan: c.protoErrorChan,
		Mode:      mode,
		Role:      role,
	}
	var negotiatedVersion uint16
	var negotiatedData protocol.VersionData
	handshakeConfig := handshake.NewConfig(
		handshake.WithProtocolVersionMap(versionMap),
		handshake.WithNetworkMagic(c.networkMagic),
		handshake.WithClientFullDuplex(c.fullDuplex),
		handshake.WithFinishedFunc(func(version uint16, versionData protocol.VersionData, server bool) error {
			negotiatedVersion = version
			negotiatedData = versionData
			close(c.handshakeFinishedChan)
			return nil
		}),
	)
	if c.server {
		c.handshakeServer = handshake.NewServer(protoOptions, handshakeConfig)
	} else {
		c.handshakeClient = handshake.NewClient(protoOptions, handshakeConfig)
		c.handshakeClient.Start()
	}
	select {
	case <-c.doneChan:
		return io.EOF
	case err := <-c.protoErrorChan:
		return err
	case <-c.handshakeFinishedChan:
	}
	protoVersion, ok := versionMap[negotiatedVersion]
	if !ok {
		return fmt.Errorf("negotiated unknown protocol version %d", negotiatedVersion)
	}
	negotiatedFullDuplex := protoVersion.EnableFullDuplex
	if ntnData, ok := negotiatedData.(handshake.NtNVersionData); ok {
		negotiatedFullDuplex = negotiatedFullDuplex && ntnData.InitiatorAndResponderDiffusionMode
	}
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		select {
		case <-c.doneChan:
			return
		case err, ok := <-c.protoErrorChan:
			if !ok {
				return
			}
			c.errorChan <- fmt.Errorf("protocol error: %s", err)
			c.Close()
		}
	}()
	if c.useNodeToNodeProto {
		c.setupNodeToNodeProtocols(protoOptions, protoVersion)
	} else {
		c.setupNodeToClientProtocols(protoOptions, protoVersion)
	}
	diffusionMode := muxer.DiffusionModeInitiator
	if negotiatedFullDuplex {
		diffusionMode = muxer.DiffusionModeInitiatorAndResponder
	} else if c.server {
		diffusionMode = muxer.DiffusionModeResponder
	}
	c.muxer.SetDiffusionMode(diffusionMode)
	if !c.delayMuxerStart {
		c.muxer.Start()
	}
	return nil
}

func (c *Connection) setupNodeToNodeProtocols(protoOptions protocol.ProtocolConfig, version protocol.ProtocolVersion) {
	chainSyncOptions := protoOptions
	chainSyncOptions.Name = chainsync.ProtocolNameNodeToNode
	chainSyncOptions.ProtocolId = chainsync.ProtocolIdNtN
	if c.server {
		c.chainSync.Server = chainsync.NewServer(chainSyncOptions, chainSyncConfigOrDefault(c.chainSyncConfig))
	} else {
		c.chainSync.Client = chainsync.NewClient(chainSyncOptions, chainSyncConfigOrDefault(c.chainSyncConfig))
	}
	blockFetchOptions := protoOptions
	blockFetchOptions.Name = blockfetch.ProtocolName
	blockFetchOptions.ProtocolId = blockfetch.ProtocolId
	if c.server {
		c.blockFetch.Server = blockfetch.NewServer(blockFetchOptions, blockFetchConfigOrDefault(c.blockFetchConfig))
	} else {
		c.blockFetch.Client = blockfetch.NewClient(blockFetchOptions, blockFetchConfigOrDefault(c.blockFetchConfig))
	}
	txSubmissionOptions := protoOptions
	txSubmissionOptions.Name = txsubmission.ProtocolName
	txSubmissionOptions.ProtocolId = txsubmission.ProtocolId
	if c.server {
		c.txSubmission.Server = txsubmission.NewServer(txSubmissionOptions, txSubmissionConfigOrDefault(c.txSubmissionConfig))
	} else {
		c.txSubmission.Client = txsubmission.NewClient(txSubmissionOptions, txSubmissionConfigOrDefault(c.txSubmissionConfig))
	}
	if version.EnableKeepAliveProtocol {
		keepAliveOptions := protoOptions
		keepAliveOptions.Name = keepalive.ProtocolName
		keepAliveOptions.ProtocolId = keepalive.ProtocolId
		if c.server {
			c.keepAlive.Server = keepalive.NewServer(keepAliveOptions, keepAliveConfigOrDefault(c.keepAliveConfig))
		} else {
			c.keepAlive.Client = keepalive.NewClient(keepAliveOptions, keepAliveConfigOrDefault(c.keepAliveConfig))
			if c.sendKeepAlives {
				c.keepAlive.Client.Start()
			}
		}
	}
}

func (c *Connection) setupNodeToClientProtocols(protoOptions protocol.ProtocolConfig, version protocol.ProtocolVersion) {
	chainSyncOptions := protoOptions
	chainSyncOptions.Name = chainsync.ProtocolNameNodeToClient
	chainSyncOptions.ProtocolId = chainsync.ProtocolIdNtC
	if c.server {
		c.chainSync.Server = chainsync.NewServer(chainSyncOptions, chainSyncConfigOrDefault(c.chainSyncConfig))
	} else {
		c.chainSync.Client = chainsync.NewClient(chainSyncOptions, chainSyncConfigOrDefault(c.chainSyncConfig))
	}
	localTxSubmissionOptions := protoOptions
	localTxSubmissionOptions.Name = localtxsubmission.ProtocolName
	localTxSubmissionOptions.ProtocolId = localtxsubmission.ProtocolId
	if c.server {
		c.localTxSubmission.Server = localtxsubmission.NewServer(localTxSubmissionOptions, localTxSubmissionConfigOrDefault(c.localTxSubmissionConfig))
	} else {
		c.localTxSubmission.Client = localtxsubmission.NewClient(localTxSubmissionOptions, localTxSubmissionConfigOrDefault(c.localTxSubmissionConfig))
	}
	if version.EnableLocalQueryProtocol {
		localStateQueryOptions := protoOptions
		localStateQueryOptions.Name = localstatequery.ProtocolName
		localStateQueryOptions.ProtocolId = localstatequery.ProtocolId
		if c.server {
			c.localStateQuery.Server = localstatequery.NewServer(localStateQueryOptions, localStateQueryConfigOrDefault(c.localStateQueryConfig))
		} else {
			c.localStateQuery.Client = localstatequery.NewClient(localStateQueryOptions, localStateQueryConfigOrDefault(c.localStateQueryConfig))
		}
	}
	if version.EnableLocalTxMonitorProtocol {
		localTxMonitorOptions := protoOptions
		localTxMonitorOptions.Name = localtxmonitor.ProtocolName
		localTxMonitorOptions.ProtocolId = localtxmonitor.ProtocolId
		if c.server {
			c.localTxMonitor.Server = localtxmonitor.NewServer(localTxMonitorOptions, localTxMonitorConfigOrDefault(c.localTxMonitorConfig))
		} else {
			c.localTxMonitor.Client = localtxmonitor.NewClient(localTxMonitorOptions, localTxMonitorConfigOrDefault(c.localTxMonitorConfig))
		}
	}
}

func chainSyncConfigOrDefault(cfg *chainsync.Config) chainsync.Config {
	if cfg != nil {
		return *cfg
	}
	return chainsync.NewConfig()
}

func blockFetchConfigOrDefault(cfg *blockfetch.Config) blockfetch.Config {
	if cfg != nil {
		return *cfg
	}
	return blockfetch.NewConfig()
}

func txSubmissionConfigOrDefault(cfg *txsubmission.Config) txsubmission.Config {
	if cfg != nil {
		return *cfg
	}
	return txsubmission.NewConfig()
}

func keepAliveConfigOrDefault(cfg *keepalive.Config) keepalive.Config {
	if cfg != nil {
		return *cfg
	}
	return keepalive.NewConfig()
}

func localStateQueryConfigOrDefault(cfg *localstatequery.Config) localstatequery.Config {
	if cfg != nil {
		return *cfg
	}
	return localstatequery.NewConfig()
}

func localTxSubmissionConfigOrDefault(cfg *localtxsubmission.Config) localtxsubmission.Config {
	if cfg != nil {
		return *cfg
	}
	return localtxsubmission.NewConfig()
}

func localTxMonitorConfigOrDefault(cfg *localtxmonitor.Config) localtxmonitor.Config {
	if cfg != nil {
		return *cfg
	}
	return localtxmonitor.NewConfig()
}
