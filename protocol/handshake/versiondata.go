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
	"github.com/echelon-labs/ouroboros-net/cbor"
	"github.com/echelon-labs/ouroboros-net/protocol"
)

// NtCVersionData is the version parameter blob used by node-to-client
// bearers: a network magic and whether the peer additionally speaks the
// local-state-query protocol.
type NtCVersionData struct {
	cbor.StructAsArray
	NetworkMagicValue uint32
	Query             bool
}

func NewNtCVersionData(networkMagic uint32, query bool) NtCVersionData {
	return NtCVersionData{NetworkMagicValue: networkMagic, Query: query}
}

func (v NtCVersionData) NetworkMagic() uint32 {
	return v.NetworkMagicValue
}

func NewNtCVersionDataFromCbor(data []byte) (protocol.VersionData, error) {
	v := NtCVersionData{}
	if _, err := cbor.Decode(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// NtNVersionData is the version parameter blob used by node-to-node
// bearers: a network magic, the diffusion mode this end will use, an
// optional peer-sharing mode, and whether it's a version-table query.
type NtNVersionData struct {
	cbor.StructAsArray
	NetworkMagicValue                 uint32
	InitiatorAndResponderDiffusionMode bool
	PeerSharing                       uint8
	Query                             bool
}

func NewNtNVersionData(networkMagic uint32, fullDuplex bool, peerSharing uint8, query bool) NtNVersionData {
	return NtNVersionData{
		NetworkMagicValue:                  networkMagic,
		InitiatorAndResponderDiffusionMode: fullDuplex,
		PeerSharing:                        peerSharing,
		Query:                              query,
	}
}

func (v NtNVersionData) NetworkMagic() uint32 {
	return v.NetworkMagicValue
}

func NewNtNVersionDataFromCbor(data []byte) (protocol.VersionData, error) {
	v := NtNVersionData{}
	if _, err := cbor.Decode(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DefaultNodeToClientVersionTable is a ready-made node-to-client version
// table. NewConfig does not install it: a Config proposes only the versions
// set through WithProtocolVersionMap.
var DefaultNodeToClientVersionTable = protocol.ProtocolVersionMap{
	9 + protocol.ProtocolVersionNtCOffset: {
		NewVersionDataFromCborFunc: NewNtCVersionDataFromCbor,
	},
	10 + protocol.ProtocolVersionNtCOffset: {
		NewVersionDataFromCborFunc: NewNtCVersionDataFromCbor,
	},
	14 + protocol.ProtocolVersionNtCOffset: {
		NewVersionDataFromCborFunc: NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:  true,
	},
	16 + protocol.ProtocolVersionNtCOffset: {
		NewVersionDataFromCborFunc:   NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:     true,
		EnableLocalTxMonitorProtocol: true,
	},
}

// DefaultNodeToNodeVersionTable is a ready-made node-to-node version table.
// Like DefaultNodeToClientVersionTable, it is not installed by NewConfig.
var DefaultNodeToNodeVersionTable = protocol.ProtocolVersionMap{
	7: {
		NewVersionDataFromCborFunc: NewNtNVersionDataFromCbor,
	},
	11: {
		NewVersionDataFromCborFunc: NewNtNVersionDataFromCbor,
		EnableKeepAliveProtocol:    true,
	},
	13: {
		NewVersionDataFromCborFunc: NewNtNVersionDataFromCbor,
		EnableKeepAliveProtocol:    true,
		EnableFullDuplex:           true,
	},
}
