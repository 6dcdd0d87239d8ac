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

package ouroboros_mock

import (
	"github.com/echelon-labs/ouroboros-net/protocol"
	"github.com/echelon-labs/ouroboros-net/protocol/keepalive"
)

// MockKeepAliveCookie is the cookie value used by the canned keep-alive
// conversations below.
const MockKeepAliveCookie uint16 = 0xC001

func keepAliveRoundTrip() []ConversationEntry {
	return []ConversationEntry{
		{
			Type:            EntryTypeInput,
			ProtocolId:      keepalive.ProtocolId,
			InputMessage:    keepalive.NewMsgKeepAlive(MockKeepAliveCookie),
			MsgFromCborFunc: keepalive.NewMsgFromCbor,
		},
		{
			Type:       EntryTypeOutput,
			ProtocolId: keepalive.ProtocolId,
			IsResponse: true,
			OutputMessages: []protocol.Message{
				keepalive.NewMsgKeepAliveResponse(MockKeepAliveCookie),
			},
		},
	}
}

// ConversationKeepAlive is a NtN handshake followed by a handful of
// keep-alive request/response round trips.
var ConversationKeepAlive = func() []ConversationEntry {
	ret := []ConversationEntry{
		ConversationEntryHandshakeRequestGeneric,
		ConversationEntryHandshakeNtNResponse,
	}
	for i := 0; i < 3; i++ {
		ret = append(ret, keepAliveRoundTrip()...)
	}
	return ret
}()

// ConversationKeepAliveClose is the same as ConversationKeepAlive, but closes
// the bearer after a single round trip instead of continuing to answer
// pings.
var ConversationKeepAliveClose = []ConversationEntry{
	ConversationEntryHandshakeRequestGeneric,
	ConversationEntryHandshakeNtNResponse,
	keepAliveRoundTrip()[0],
	keepAliveRoundTrip()[1],
	{Type: EntryTypeClose},
}
