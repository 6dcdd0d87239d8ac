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

package txsubmission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/echelon-labs/ouroboros-net/internal/test/ouroboros_mock"
	"github.com/echelon-labs/ouroboros-net/muxer"
	"github.com/echelon-labs/ouroboros-net/protocol"
	"github.com/echelon-labs/ouroboros-net/protocol/txsubmission"
)

func newTestClient(t *testing.T, conversation []ouroboros_mock.ConversationEntry, cfg txsubmission.Config) *txsubmission.Client {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mockConn := ouroboros_mock.NewConnection(ouroboros_mock.ProtocolRoleClient, conversation)
	m := muxer.New(mockConn)
	m.Start()
	client := txsubmission.NewClient(
		protocol.ProtocolConfig{
			Name:          txsubmission.ProtocolName,
			ProtocolId:    txsubmission.ProtocolId,
			Muxer:         m,
			ErrorChan:     make(chan error, 10),
			Role:          protocol.RoleClient,
			RecvQueueSize: protocol.DefaultRecvQueueSize,
		},
		cfg,
	)
	t.Cleanup(func() {
		_ = client.Stop()
		_ = mockConn.Close()
	})
	return client
}

// TestRequestTxIdsClampsToWindow verifies that even though the downloader
// asks for 10 identifiers, the holder never offers more than fit in its
// configured announced-window size.
func TestRequestTxIdsClampsToWindow(t *testing.T) {
	called := make(chan uint16, 1)
	cfg := txsubmission.NewConfig(
		txsubmission.WithMaxUnacknowledgedTxIds(2),
		txsubmission.WithRequestTxIdsFunc(func(_ txsubmission.CallbackContext, blocking bool, ack uint16, req uint16) ([]txsubmission.TxIdAndSize, error) {
			called <- req
			return nil, nil
		}),
	)
	conversation := []ouroboros_mock.ConversationEntry{
		{
			Type:       ouroboros_mock.EntryTypeOutput,
			ProtocolId: txsubmission.ProtocolId,
			OutputMessages: []protocol.Message{
				txsubmission.NewMsgRequestTxIds(false, 0, 10),
			},
		},
		{
			Type:             ouroboros_mock.EntryTypeInput,
			ProtocolId:       txsubmission.ProtocolId,
			InputMessageType: txsubmission.MessageTypeReplyTxIds,
		},
	}
	_ = newTestClient(t, conversation, cfg)
	select {
	case req := <-called:
		assert.LessOrEqual(t, req, uint16(2))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for RequestTxIdsFunc callback")
	}
}

// TestRequestTxIdsRejectsOverAcknowledge verifies acknowledging more
// identifiers than were ever announced is treated as a protocol violation.
func TestRequestTxIdsRejectsOverAcknowledge(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	errChan := make(chan error, 10)
	cfg := txsubmission.NewConfig(
		txsubmission.WithRequestTxIdsFunc(func(_ txsubmission.CallbackContext, blocking bool, ack uint16, req uint16) ([]txsubmission.TxIdAndSize, error) {
			return nil, nil
		}),
	)
	mockConn := ouroboros_mock.NewConnection(ouroboros_mock.ProtocolRoleClient, []ouroboros_mock.ConversationEntry{
		{
			Type:       ouroboros_mock.EntryTypeOutput,
			ProtocolId: txsubmission.ProtocolId,
			OutputMessages: []protocol.Message{
				txsubmission.NewMsgRequestTxIds(false, 5, 1),
			},
		},
	})
	m := muxer.New(mockConn)
	m.Start()
	client := txsubmission.NewClient(
		protocol.ProtocolConfig{
			Name:          txsubmission.ProtocolName,
			ProtocolId:    txsubmission.ProtocolId,
			Muxer:         m,
			ErrorChan:     errChan,
			Role:          protocol.RoleClient,
			RecvQueueSize: protocol.DefaultRecvQueueSize,
		},
		cfg,
	)
	t.Cleanup(func() {
		_ = client.Stop()
		_ = mockConn.Close()
	})
	select {
	case err := <-errChan:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a protocol violation error")
	}
}
