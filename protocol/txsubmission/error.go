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

package txsubmission

import "errors"

// ErrDone is returned by a blocking RequestTxIdsFunc callback to signal
// that the holder has nothing left to announce, ending the protocol with a
// Done message rather than a ReplyTxIds. It is only meaningful when
// blocking is true; returning it from a non-blocking call is a programmer
// error and is treated as an ordinary callback failure.
var ErrDone = errors.New("txsubmission: holder finished, no more transactions")

var ErrWindowExceeded = errors.New("txsubmission: announced-window size exceeded")
