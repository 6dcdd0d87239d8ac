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

package chainsync

import "errors"

// ErrStopSyncProcess is a sentinel a RollForwardFunc/RollBackwardFunc
// callback can return. The client gives it no special treatment: like any
// other callback error it is reported on the protocol's error channel.
var ErrStopSyncProcess = errors.New("chainsync: sync process stopped by callback")

var ErrIntersectNotFound = errors.New("chainsync: intersection not found")
