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

package protocol

import "time"

// Agency records which side of a mini-protocol may send the next message
// in a given state, or that the state is terminal
type Agency uint

const (
	AgencyNone   Agency = iota // terminal state, neither side may send
	AgencyClient               // client has agency
	AgencyServer               // server has agency
)

// State is a single named node in a mini-protocol's state machine
type State struct {
	Id   uint
	Name string
}

func NewState(id uint, name string) State {
	return State{Id: id, Name: name}
}

// StateTransitionMatchFunc allows a transition to be conditional on message
// content rather than type tag alone (for example, tx-submission's blocking
// flag selects between two different next states for the same message type).
// stateContext is the mini-protocol's caller-supplied StateContext value.
type StateTransitionMatchFunc func(stateContext any, msg Message) bool

// StateTransition describes one edge out of a state: which message type
// triggers it, the state it leads to, and an optional guard.
type StateTransition struct {
	MsgType   uint
	NewState  State
	MatchFunc StateTransitionMatchFunc
}

// StateMapEntry describes one state: who has agency there, which
// transitions are legal, and a Timeout for how long the side without agency
// may wait for the peer. The Protocol runtime stores Timeout but does not
// start a timer from it, so no state times out on its own; the keep-alive
// client runs its own response deadline.
type StateMapEntry struct {
	Agency      Agency
	Transitions []StateTransition
	Timeout     time.Duration
}

// StateMap is the complete state machine for a mini-protocol
type StateMap map[State]StateMapEntry

// Copy returns a shallow copy of the map, safe to hand to multiple Protocol
// instances (each Protocol only ever reads from it).
func (m StateMap) Copy() StateMap {
	ret := make(StateMap, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}
