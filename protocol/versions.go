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

import "sort"

// ProtocolVersionNtCOffset is added to node-to-client version numbers on the
// wire so a peer can tell NtN and NtC proposals apart on the same numeric
// axis.
const ProtocolVersionNtCOffset = 0x8000

// VersionData is the decoded form of a handshake version's opaque parameter
// blob. Implementations are mini-protocol-agnostic; the handshake package
// only needs NetworkMagic to check compatibility.
type VersionData interface {
	NetworkMagic() uint32
}

// NewVersionDataFromCborFunc decodes a VersionData from the raw CBOR the
// peer proposed for one version number.
type NewVersionDataFromCborFunc func([]byte) (VersionData, error)

// ProtocolVersion describes the capabilities negotiated by proposing a
// given version number.
type ProtocolVersion struct {
	NewVersionDataFromCborFunc  NewVersionDataFromCborFunc
	EnableKeepAliveProtocol     bool
	EnableLocalQueryProtocol    bool
	EnableLocalTxMonitorProtocol bool // node-to-client only
	EnableFullDuplex            bool
}

// ProtocolVersionMap maps a wire version number to its capability set. The
// handshake package ships default tables for node-to-node and
// node-to-client; callers may override either via functional options.
type ProtocolVersionMap map[uint16]ProtocolVersion

// SupportedVersions returns the map's keys in ascending order, the order in
// which a handshake server should consider proposals when picking the
// highest mutually supported version.
func (m ProtocolVersionMap) SupportedVersions() []uint16 {
	ret := make([]uint16, 0, len(m))
	for version := range m {
		ret = append(ret, version)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
