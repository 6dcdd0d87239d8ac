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
	"fmt"
	"net"
)

// DialBearer opens a bearer to the given address. It is a thin wrapper
// around net.Dial that additionally tunes TCP bearers to match the framing
// assumptions of the multiplexer: Nagle's algorithm is disabled since
// segments are already coalesced by the outbound scheduler, and lingering
// on close is disabled so a torn-down bearer doesn't leave a half-closed
// socket behind for the peer to time out on.
func DialBearer(proto string, address string) (net.Conn, error) {
	conn, err := net.Dial(proto, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", proto, address, err)
	}
	tuneBearer(conn)
	return conn, nil
}

func tuneBearer(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		// Local (unix socket / pipe) bearers are already stream-oriented
		// with no equivalent knobs
		return
	}
	_ = tcpConn.SetNoDelay(true)
	_ = tcpConn.SetLinger(0)
}
