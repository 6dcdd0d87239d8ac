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

package ouroboros

import (
	"github.com/echelon-labs/ouroboros-net/protocol"
	"github.com/echelon-labs/ouroboros-net/protocol/handshake"
)

// NtN version table. Versions below 7 (pre-Alonzo) aren't offered.
var protocolVersionMapNtN = protocol.ProtocolVersionMap{
	7: {
		NewVersionDataFromCborFunc: handshake.NewNtNVersionDataFromCbor,
		EnableKeepAliveProtocol:    true,
	},
	8: {
		NewVersionDataFromCborFunc: handshake.NewNtNVersionDataFromCbor,
		EnableKeepAliveProtocol:    true,
	},
	9: {
		NewVersionDataFromCborFunc: handshake.NewNtNVersionDataFromCbor,
		EnableKeepAliveProtocol:    true,
	},
	10: {
		NewVersionDataFromCborFunc: handshake.NewNtNVersionDataFromCbor,
		EnableKeepAliveProtocol:    true,
		EnableFullDuplex:           true,
	},
}

// NtC version table, keyed by the raw (non-offset) version number.
// Versions below 9 (pre-Alonzo) aren't offered.
var protocolVersionMapNtC = protocol.ProtocolVersionMap{
	9: {
		NewVersionDataFromCborFunc: handshake.NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:   true,
	},
	10: {
		NewVersionDataFromCborFunc: handshake.NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:   true,
	},
	11: {
		NewVersionDataFromCborFunc: handshake.NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:   true,
	},
	// added local-tx-monitor
	12: {
		NewVersionDataFromCborFunc:   handshake.NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:     true,
		EnableLocalTxMonitorProtocol: true,
	},
	13: {
		NewVersionDataFromCborFunc:   handshake.NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:     true,
		EnableLocalTxMonitorProtocol: true,
	},
	14: {
		NewVersionDataFromCborFunc:   handshake.NewNtCVersionDataFromCbor,
		EnableLocalQueryProtocol:     true,
		EnableLocalTxMonitorProtocol: true,
	},
}

// ntcVersionMap returns the NtC table keyed by its wire representation,
// i.e. with protocol.ProtocolVersionNtCOffset added to each version number.
func ntcVersionMap() protocol.ProtocolVersionMap {
	ret := make(protocol.ProtocolVersionMap, len(protocolVersionMapNtC))
	for version, capabilities := range protocolVersionMapNtC {
		ret[version+protocol.ProtocolVersionNtCOffset] = capabilities
	}
	return ret
}
