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

package localtxsubmission

import "fmt"

// TxRejectedError is the recoverable error a submitter receives when the
// node's mempool refuses a transaction. ReasonCbor holds the raw rejection
// reason bytes. Reason holds whatever decodeRejection returns, which is
// always nil: the rejection reason is not decoded into any typed value.
type TxRejectedError struct {
	ReasonCbor []byte
	Reason     error
}

func (e *TxRejectedError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("transaction rejected: %s", e.Reason.Error())
	}
	return fmt.Sprintf("transaction rejected: %x", e.ReasonCbor)
}

func (e *TxRejectedError) Unwrap() error {
	return e.Reason
}

// decodeRejection recognizes no rejection shapes and returns nil for every
// input; the raw bytes stay available in TxRejectedError.ReasonCbor.
func decodeRejection(reasonCbor []byte) error {
	return nil
}
