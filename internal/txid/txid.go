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

// Package txid derives fixed-size transaction identifiers used to key the
// tx-submission FIFO window, from opaque transaction bodies the core never
// otherwise decodes.
package txid

import "golang.org/x/crypto/blake2b"

// Size is the length in bytes of a derived identifier.
const Size = 32

// TxId is a fixed-size digest suitable for use as a map/FIFO key.
type TxId [Size]byte

// New derives an identifier from a raw, opaque transaction body.
func New(txBody []byte) TxId {
	return TxId(blake2b.Sum256(txBody))
}
