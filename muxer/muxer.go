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

// Package muxer implements the segment-based multiplexer/demultiplexer that
// fans mini-protocol traffic in and out of a single bidirectional bearer.
package muxer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"sync"
)

// ProtocolRole indicates which side of a mini-protocol a registered channel
// belongs to on this end of the bearer. It is the inverse of the segment
// direction bit the peer will use: a local initiator receives segments
// stamped as responses, and vice versa.
type ProtocolRole uint

const (
	ProtocolRoleNone ProtocolRole = iota
	ProtocolRoleInitiator
	ProtocolRoleResponder
)

// DiffusionMode governs whether this end of the bearer acts as initiator,
// responder, or both simultaneously (full-duplex node-to-node)
type DiffusionMode int

const (
	DiffusionModeInitiator DiffusionMode = iota
	DiffusionModeResponder
	DiffusionModeInitiatorAndResponder
)

var (
	ErrProtocolAlreadyRegistered = errors.New("muxer: protocol already registered")
	ErrMuxerStopped              = errors.New("muxer: stopped")
)

// registeredProtocol tracks the send/receive channel pair for one (protocolId, role) registration
type registeredProtocol struct {
	protocolId uint16
	role       ProtocolRole
	sendChan   chan *Segment
	recvChan   chan *Segment
}

// Muxer owns the bearer's read and write halves and fans segments between
// the bearer and per-protocol channels. Outbound scheduling is round-robin
// across registered protocols; a protocol with no queued data never blocks
// others.
type Muxer struct {
	conn net.Conn

	mutex   sync.Mutex
	sends   []*registeredProtocol // ordered for round-robin fairness
	recvIdx map[uint16]*registeredProtocol

	diffusionMode DiffusionMode

	errorChan chan error
	doneChan  chan struct{}
	onceStop  sync.Once

	startChan chan struct{}
	onceStart sync.Once

	outboundDone chan struct{}
}

// New creates a Muxer over the given bearer. The muxer does not start
// reading or writing until Start is called, so protocols can be registered
// (including the handshake) before any bytes flow.
func New(conn net.Conn) *Muxer {
	m := &Muxer{
		conn:         conn,
		recvIdx:      make(map[uint16]*registeredProtocol),
		errorChan:    make(chan error, 10),
		doneChan:     make(chan struct{}),
		startChan:    make(chan struct{}),
		outboundDone: make(chan struct{}),
	}
	go m.readLoop()
	return m
}

// SetDiffusionMode records whether this end is acting as initiator,
// responder, or both. It affects nothing in the muxer's own framing logic.
// The peer facade sets it after the handshake, once the mini-protocols are
// registered; nothing in this module reads it back.
func (m *Muxer) SetDiffusionMode(mode DiffusionMode) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.diffusionMode = mode
}

func (m *Muxer) DiffusionMode() DiffusionMode {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.diffusionMode
}

// RegisterProtocol creates the send/receive channel pair for a mini-protocol
// and role. The returned send channel is drained by the muxer's outbound
// scheduler; the returned receive channel is fed by the demuxer.
func (m *Muxer) RegisterProtocol(
	protocolId uint16,
	role ProtocolRole,
) (chan *Segment, chan *Segment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.recvIdx[protocolId]; ok {
		return nil, nil, ErrProtocolAlreadyRegistered
	}
	rp := &registeredProtocol{
		protocolId: protocolId,
		role:       role,
		sendChan:   make(chan *Segment, 16),
		recvChan:   make(chan *Segment, 16),
	}
	m.sends = append(m.sends, rp)
	m.recvIdx[protocolId] = rp
	return rp.sendChan, rp.recvChan, nil
}

// Send enqueues a segment for transmission. It never blocks the caller past
// the per-protocol queue depth; a full queue backpressures the mini-protocol
// that produced the segment, per the channel model in the data model.
func (m *Muxer) Send(segment *Segment) error {
	if len(segment.Payload) > SegmentMaxPayloadLength {
		return fmt.Errorf("muxer: payload of %d bytes exceeds segment maximum", len(segment.Payload))
	}
	m.mutex.Lock()
	rp, ok := m.recvIdx[segment.GetProtocolId()]
	m.mutex.Unlock()
	if !ok {
		return fmt.Errorf("muxer: protocol %d is not registered", segment.GetProtocolId())
	}
	select {
	case rp.sendChan <- segment:
		return nil
	case <-m.doneChan:
		return ErrMuxerStopped
	}
}

// Start begins outbound scheduling and unblocks the inbound demultiplexer,
// which otherwise withholds delivery until the handshake has had a chance
// to register its channel pair.
func (m *Muxer) Start() {
	m.onceStart.Do(func() {
		close(m.startChan)
		go m.outboundLoop()
	})
}

// Stop tears down the muxer, closing every registered receive channel and
// the error channel, and closing the underlying bearer.
func (m *Muxer) Stop() {
	m.onceStop.Do(func() {
		close(m.doneChan)
		_ = m.conn.Close()
		m.mutex.Lock()
		for _, rp := range m.sends {
			close(rp.recvChan)
		}
		m.mutex.Unlock()
		close(m.errorChan)
	})
}

// ErrorChan returns the channel on which bearer-level errors are reported.
// A single error here is fatal to every registered mini-protocol.
func (m *Muxer) ErrorChan() chan error {
	return m.errorChan
}

func (m *Muxer) sendError(err error) {
	select {
	case m.errorChan <- err:
	default:
	}
}

// outboundLoop implements the round-robin outbound scheduler described in
// the multiplexer's fairness requirement: it polls every registered
// protocol's send queue in order, and only blocks (via a dynamic select
// across all queues) once a full pass finds nothing to send.
func (m *Muxer) outboundLoop() {
	defer close(m.outboundDone)
	for {
		m.mutex.Lock()
		sends := append([]*registeredProtocol(nil), m.sends...)
		m.mutex.Unlock()
		sentAny := false
		for _, rp := range sends {
			select {
			case seg, ok := <-rp.sendChan:
				if !ok {
					continue
				}
				if err := m.writeSegment(seg); err != nil {
					m.sendError(err)
					return
				}
				sentAny = true
			case <-m.doneChan:
				return
			default:
			}
		}
		if sentAny {
			continue
		}
		if !m.waitForOutboundWork(sends) {
			return
		}
	}
}

// waitForOutboundWork blocks until at least one registered send queue has
// data, the muxer is stopped, or the registration set changes (in which
// case the caller re-polls with the fresh list).
func (m *Muxer) waitForOutboundWork(sends []*registeredProtocol) bool {
	cases := make([]reflect.SelectCase, 0, len(sends)+1)
	for _, rp := range sends {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(rp.sendChan),
		})
	}
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(m.doneChan),
	})
	chosen, recv, recvOK := reflect.Select(cases)
	if chosen == len(cases)-1 {
		return false
	}
	if !recvOK {
		return true
	}
	seg, _ := recv.Interface().(*Segment)
	if seg != nil {
		if err := m.writeSegment(seg); err != nil {
			m.sendError(err)
			return false
		}
	}
	return true
}

func (m *Muxer) writeSegment(seg *Segment) error {
	header := make([]byte, segmentHeaderLength)
	binary.BigEndian.PutUint32(header[0:4], seg.TimestampUs)
	binary.BigEndian.PutUint16(header[4:6], seg.ProtocolId)
	binary.BigEndian.PutUint16(header[6:8], seg.PayloadLength)
	if _, err := m.conn.Write(header); err != nil {
		return err
	}
	if len(seg.Payload) > 0 {
		if _, err := m.conn.Write(seg.Payload); err != nil {
			return err
		}
	}
	return nil
}

// readLoop is the inbound demultiplexer. It reads whole segments off the
// bearer and routes each one's payload to the channel registered for its
// protocol number, or to the ProtocolUnknown catch-all if nothing claimed
// that protocol number. The lookup uses the protocol number alone: the
// segment's direction flag is not consulted, and a bearer holds at most one
// registration (initiator or responder) per protocol number.
func (m *Muxer) readLoop() {
	<-m.startChan
	header := make([]byte, segmentHeaderLength)
	for {
		if _, err := io.ReadFull(m.conn, header); err != nil {
			m.handleBearerError(err)
			return
		}
		seg := &Segment{
			SegmentHeader: SegmentHeader{
				TimestampUs:   binary.BigEndian.Uint32(header[0:4]),
				ProtocolId:    binary.BigEndian.Uint16(header[4:6]),
				PayloadLength: binary.BigEndian.Uint16(header[6:8]),
			},
		}
		if seg.PayloadLength > 0 {
			seg.Payload = make([]byte, seg.PayloadLength)
			if _, err := io.ReadFull(m.conn, seg.Payload); err != nil {
				m.handleBearerError(err)
				return
			}
		}
		m.mutex.Lock()
		rp, ok := m.recvIdx[seg.GetProtocolId()]
		if !ok {
			rp, ok = m.recvIdx[ProtocolUnknown]
		}
		m.mutex.Unlock()
		if !ok {
			// Unknown protocol and no catch-all registered: non-fatal, drop
			continue
		}
		select {
		case rp.recvChan <- seg:
		case <-m.doneChan:
			return
		}
	}
}

func (m *Muxer) handleBearerError(err error) {
	select {
	case <-m.doneChan:
		return
	default:
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		m.sendError(io.EOF)
	} else {
		m.sendError(fmt.Errorf("muxer: bearer read failed: %w", err))
	}
}
