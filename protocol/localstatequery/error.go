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

package localstatequery

import (
	"errors"
	"fmt"
)

var ErrPointTooOld = errors.New("localstatequery: acquire point too old")
var ErrPointNotOnChain = errors.New("localstatequery: acquire point not on chain")

func failureToError(reason uint8) error {
	switch reason {
	case AcquireFailurePointTooOld:
		return ErrPointTooOld
	case AcquireFailurePointNotOnChain:
		return ErrPointNotOnChain
	default:
		return fmt.Errorf("localstatequery: unknown acquire failure reason %d", reason)
	}
}
