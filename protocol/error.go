// Copyright 2025 Blink Labs Software
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

package protocol

import (
	"errors"
	"fmt"
)

var ErrProtocolShuttingDown = errors.New("protocol is shutting down")

// Protocol violation errors cause connection termination per the Ouroboros
// network specification
var (
	ErrProtocolViolationQueueExceeded = errors.New(
		"protocol violation: message queue limit exceeded",
	)
	ErrProtocolViolationPipelineExceeded = errors.New(
		"protocol violation: pipeline limit exceeded",
	)
	ErrProtocolViolationRequestExceeded = errors.New(
		"protocol violation: request count limit exceeded",
	)
	ErrProtocolViolationInvalidMessage = errors.New(
		"protocol violation: invalid message received",
	)
)

// BearerFailureError wraps an I/O error on the underlying bearer. It is
// always fatal to every mini-protocol sharing the bearer.
type BearerFailureError struct {
	Err error
}

func (e *BearerFailureError) Error() string {
	return fmt.Sprintf("bearer failure: %s", e.Err)
}

func (e *BearerFailureError) Unwrap() error {
	return e.Err
}

// ProtocolViolationError records a message received out of state, with
// ill-formed CBOR, or otherwise inconsistent with the protocol's state map.
// Fatal to the bearer.
type ProtocolViolationError struct {
	ProtocolName string
	Message      string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("%s: protocol violation: %s", e.ProtocolName, e.Message)
}

// VersionMismatchError reports a handshake Refuse(VersionMismatch) outcome.
type VersionMismatchError struct {
	SupportedVersions []uint16
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf(
		"handshake version mismatch, peer supports: %v",
		e.SupportedVersions,
	)
}

// TimeoutError reports a missed response deadline from the peer.
type TimeoutError struct {
	ProtocolName string
	State        string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout waiting for response in state %s", e.ProtocolName, e.State)
}

// CancelledError reports local cancellation of a mini-protocol or bearer.
type CancelledError struct {
	ProtocolName string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: cancelled", e.ProtocolName)
}
