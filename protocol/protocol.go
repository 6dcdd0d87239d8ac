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

// Package protocol provides the shared mini-protocol runtime: agency
// enforcement, state machine transitions, and CBOR message framing over a
// registered muxer channel. Every mini-protocol package (chainsync,
// blockfetch, handshake, ...) builds its Client and Server on top of a
// *Protocol.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/muxer"
)

// Role identifies which side of a mini-protocol this Protocol instance
// implements. It is distinct from the muxer's initiator/responder role,
// though the two are consistently paired: a mini-protocol Client always
// registers as a muxer initiator, a Server as a muxer responder.
type Role uint

const (
	RoleNone Role = iota
	RoleClient
	RoleServer
)

// Mode records whether this bearer speaks the node-to-node or
// node-to-client protocol suite. It does not change framing, only which
// mini-protocols and version tables are in play.
type Mode uint

const (
	ModeNodeToNode Mode = iota
	ModeNodeToClient
)

const DefaultRecvQueueSize = 8

// ProtocolConfig wires a mini-protocol's Client or Server implementation
// into the shared runtime.
type ProtocolConfig struct {
	Name                string
	ProtocolId          uint16
	Muxer               *muxer.Muxer
	Logger              *slog.Logger
	ErrorChan           chan error
	Mode                Mode
	Role                Role
	MessageHandlerFunc  MessageHandlerFunc
	MessageFromCborFunc MessageFromCborFunc
	StateMap            StateMap
	InitialState        State
	StateContext        any
	RecvQueueSize       int
}

// Protocol is the shared runtime embedded by every mini-protocol's Client
// and Server struct. It owns the registered muxer channel pair, enforces
// agency on both send and receive, and drives state transitions.
type Protocol struct {
	config ProtocolConfig

	muxerSendChan chan *muxer.Segment
	muxerRecvChan chan *muxer.Segment

	stateMutex sync.Mutex
	state      State

	sendQueueMutex sync.Mutex
	sendQueueDepth int
	sendQueueCond  *sync.Cond

	doneChan chan struct{}
	onceDone sync.Once
}

// New registers cfg's mini-protocol with the muxer and starts the receive
// loop. The returned Protocol begins in cfg.InitialState.
func New(cfg ProtocolConfig) *Protocol {
	if cfg.RecvQueueSize <= 0 {
		cfg.RecvQueueSize = DefaultRecvQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	muxerRole := muxer.ProtocolRoleResponder
	if cfg.Role == RoleClient {
		muxerRole = muxer.ProtocolRoleInitiator
	}
	sendChan, recvChan, err := cfg.Muxer.RegisterProtocol(cfg.ProtocolId, muxerRole)
	if err != nil {
		// Registering the same protocol id twice on one bearer, in either
		// role, is a programmer error, not a runtime condition callers can
		// recover from
		panic(fmt.Sprintf("protocol: failed to register %s: %s", cfg.Name, err))
	}
	p := &Protocol{
		config:        cfg,
		muxerSendChan: sendChan,
		muxerRecvChan: recvChan,
		state:         cfg.InitialState,
		doneChan:      make(chan struct{}),
	}
	p.sendQueueCond = sync.NewCond(&p.sendQueueMutex)
	go p.recvLoop()
	return p
}

func (p *Protocol) Logger() *slog.Logger {
	return p.config.Logger
}

func (p *Protocol) ErrorChan() chan error {
	return p.config.ErrorChan
}

func (p *Protocol) Mode() Mode {
	return p.config.Mode
}

func (p *Protocol) Role() Role {
	return p.config.Role
}

// DoneChan is closed once the protocol reaches its terminal state or Stop
// is called.
func (p *Protocol) DoneChan() chan struct{} {
	return p.doneChan
}

func (p *Protocol) IsDone() bool {
	select {
	case <-p.doneChan:
		return true
	default:
		return false
	}
}

func (p *Protocol) CurrentState() State {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	return p.state
}

func (p *Protocol) setState(s State) {
	p.stateMutex.Lock()
	p.state = s
	p.stateMutex.Unlock()
}

// agencyForRole returns which Role must hold agency for p to send in the
// given state.
func roleAgency(role Role) Agency {
	if role == RoleClient {
		return AgencyClient
	}
	return AgencyServer
}

// SendMessage encodes and transmits msg if the current state grants this
// Protocol's role agency and the message type is a legal transition out of
// that state; otherwise it returns a ProtocolViolationError without sending
// anything.
func (p *Protocol) SendMessage(msg Message) error {
	if p.IsDone() {
		return ErrProtocolShuttingDown
	}
	p.stateMutex.Lock()
	state := p.state
	entry, ok := p.config.StateMap[state]
	p.stateMutex.Unlock()
	if !ok {
		return &ProtocolViolationError{
			ProtocolName: p.config.Name,
			Message:      fmt.Sprintf("no state map entry for state %s", state.Name),
		}
	}
	if entry.Agency != roleAgency(p.config.Role) {
		return &ProtocolViolationError{
			ProtocolName: p.config.Name,
			Message:      fmt.Sprintf("attempted to send %T without agency in state %s", msg, state.Name),
		}
	}
	newState, ok := p.matchTransition(entry, msg)
	if !ok {
		return &ProtocolViolationError{
			ProtocolName: p.config.Name,
			Message:      fmt.Sprintf("%T is not a legal transition from state %s", msg, state.Name),
		}
	}
	data, err := cbor.Encode(msg)
	if err != nil {
		return err
	}
	msg.SetCbor(data)
	p.trackSendStart()
	defer p.trackSendDone()
	segment := muxer.NewSegment(p.config.ProtocolId, data, p.config.Role == RoleServer)
	select {
	case p.muxerSendChan <- segment:
	case <-p.doneChan:
		return ErrProtocolShuttingDown
	}
	p.setState(newState)
	return nil
}

func (p *Protocol) matchTransition(entry StateMapEntry, msg Message) (State, bool) {
	for _, t := range entry.Transitions {
		if t.MsgType != msg.Type() {
			continue
		}
		if t.MatchFunc != nil && !t.MatchFunc(p.config.StateContext, msg) {
			continue
		}
		return t.NewState, true
	}
	return State{}, false
}

func (p *Protocol) trackSendStart() {
	p.sendQueueMutex.Lock()
	p.sendQueueDepth++
	p.sendQueueMutex.Unlock()
}

func (p *Protocol) trackSendDone() {
	p.sendQueueMutex.Lock()
	p.sendQueueDepth--
	if p.sendQueueDepth <= 0 {
		p.sendQueueCond.Broadcast()
	}
	p.sendQueueMutex.Unlock()
}

// WaitSendQueueDrained blocks until every SendMessage call has finished
// handing its segment to the muxer, or timeout elapses.
func (p *Protocol) WaitSendQueueDrained(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		p.sendQueueMutex.Lock()
		for p.sendQueueDepth > 0 {
			p.sendQueueCond.Wait()
		}
		p.sendQueueMutex.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("protocol: timed out waiting for send queue to drain")
	}
}

// Stop tears down the protocol's runtime bookkeeping. It does not send a
// Done message; callers that need a graceful mini-protocol shutdown should
// send Done themselves (while holding agency) before calling Stop.
func (p *Protocol) Stop() error {
	p.onceDone.Do(func() {
		close(p.doneChan)
	})
	return nil
}

// recvLoop reassembles mini-protocol messages from inbound segments,
// enforces that the peer only sends while it holds agency, applies the
// resulting state transition, and dispatches to the configured handler.
func (p *Protocol) recvLoop() {
	buf := bytes.NewBuffer(nil)
	for {
		select {
		case segment, ok := <-p.muxerRecvChan:
			if !ok {
				return
			}
			buf.Write(segment.Payload)
		case <-p.doneChan:
			return
		}
		for {
			consumed, msg, err := p.decodeOneMessage(buf.Bytes())
			if err != nil {
				if errors.Is(err, io.EOF) {
					// incomplete message, wait for more segments
					break
				}
				p.reportError(&ProtocolViolationError{
					ProtocolName: p.config.Name,
					Message:      err.Error(),
				})
				return
			}
			if msg == nil {
				break
			}
			if err := p.handleMessage(msg); err != nil {
				p.reportError(err)
				return
			}
			remaining := buf.Bytes()[consumed:]
			buf = bytes.NewBuffer(append([]byte(nil), remaining...))
			if buf.Len() == 0 {
				break
			}
		}
	}
}

func (p *Protocol) decodeOneMessage(data []byte) (int, Message, error) {
	if len(data) == 0 {
		return 0, nil, nil
	}
	msgType, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return 0, nil, err
	}
	msg, err := p.config.MessageFromCborFunc(uint(msgType), data)
	if err != nil {
		return 0, nil, err
	}
	if msg == nil {
		return 0, nil, fmt.Errorf("received unknown message type: %d", msgType)
	}
	consumed := len(msg.Cbor())
	if consumed == 0 {
		consumed = len(data)
	}
	return consumed, msg, nil
}

func (p *Protocol) handleMessage(msg Message) error {
	p.stateMutex.Lock()
	state := p.state
	entry, ok := p.config.StateMap[state]
	p.stateMutex.Unlock()
	if !ok {
		return &ProtocolViolationError{
			ProtocolName: p.config.Name,
			Message:      fmt.Sprintf("no state map entry for state %s", state.Name),
		}
	}
	if entry.Agency != roleAgency(otherRole(p.config.Role)) {
		return &ProtocolViolationError{
			ProtocolName: p.config.Name,
			Message:      fmt.Sprintf("received %T while local side had agency in state %s", msg, state.Name),
		}
	}
	newState, ok := p.matchTransition(entry, msg)
	if !ok {
		return &ProtocolViolationError{
			ProtocolName: p.config.Name,
			Message:      fmt.Sprintf("%T is not a legal transition from state %s", msg, state.Name),
		}
	}
	p.setState(newState)
	return p.config.MessageHandlerFunc(msg)
}

func otherRole(r Role) Role {
	if r == RoleClient {
		return RoleServer
	}
	return RoleClient
}

func (p *Protocol) reportError(err error) {
	select {
	case p.config.ErrorChan <- err:
	case <-p.doneChan:
	}
}
