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

package localtxmonitor_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/echelon-labs/ouroboros-net/internal/test/ouroboros_mock"
	"github.com/echelon-labs/ouroboros-net/internal/txid"
	"github.com/echelon-labs/ouroboros-net/muxer"
	"github.com/echelon-labs/ouroboros-net/protocol"
	"github.com/echelon-labs/ouroboros-net/protocol/localtxmonitor"
)

func newTestClient(t *testing.T, conversation []ouroboros_mock.ConversationEntry) *localtxmonitor.Client {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mockConn := ouroboros_mock.NewConnection(ouroboros_mock.ProtocolRoleClient, conversation)
	m := muxer.New(mockConn)
	m.Start()
	client := localtxmonitor.NewClient(
		protocol.ProtocolConfig{
			Name:          localtxmonitor.ProtocolName,
			ProtocolId:    localtxmonitor.ProtocolId,
			Muxer:         m,
			ErrorChan:     make(chan error, 10),
			Role:          protocol.RoleClient,
			RecvQueueSize: protocol.DefaultRecvQueueSize,
		},
		localtxmonitor.NewConfig(),
	)
	t.Cleanup(func() {
		_ = client.Stop()
		_ = mockConn.Close()
	})
	return client
}

func TestHasTxAcquiresImplicitly(t *testing.T) {
	body := []byte{0x83, 0x01, 0x02, 0x03}
	id := txid.New(body)
	conversation := []ouroboros_mock.ConversationEntry{
		{
			Type:         ouroboros_mock.EntryTypeInput,
			ProtocolId:   localtxmonitor.ProtocolId,
			InputMessage: localtxmonitor.NewMsgAcquire(),
			MsgFromCborFunc: localtxmonitor.NewMsgFromCbor,
		},
		{
			Type:           ouroboros_mock.EntryTypeOutput,
			ProtocolId:     localtxmonitor.ProtocolId,
			IsResponse:     true,
			OutputMessages: []protocol.Message{localtxmonitor.NewMsgAcquired(100)},
		},
		{
			Type:         ouroboros_mock.EntryTypeInput,
			ProtocolId:   localtxmonitor.ProtocolId,
			InputMessage: localtxmonitor.NewMsgHasTx(id[:]),
			MsgFromCborFunc: localtxmonitor.NewMsgFromCbor,
		},
		{
			Type:           ouroboros_mock.EntryTypeOutput,
			ProtocolId:     localtxmonitor.ProtocolId,
			IsResponse:     true,
			OutputMessages: []protocol.Message{localtxmonitor.NewMsgReplyHasTx(true)},
		},
	}
	client := newTestClient(t, conversation)
	found, err := client.HasTx(id)
	require.NoError(t, err)
	require.True(t, found)
}

func TestGetSizes(t *testing.T) {
	conversation := []ouroboros_mock.ConversationEntry{
		{
			Type:         ouroboros_mock.EntryTypeInput,
			ProtocolId:   localtxmonitor.ProtocolId,
			InputMessage: localtxmonitor.NewMsgAcquire(),
			MsgFromCborFunc: localtxmonitor.NewMsgFromCbor,
		},
		{
			Type:           ouroboros_mock.EntryTypeOutput,
			ProtocolId:     localtxmonitor.ProtocolId,
			IsResponse:     true,
			OutputMessages: []protocol.Message{localtxmonitor.NewMsgAcquired(100)},
		},
		{
			Type:         ouroboros_mock.EntryTypeInput,
			ProtocolId:   localtxmonitor.ProtocolId,
			InputMessage: localtxmonitor.NewMsgGetSizes(),
			MsgFromCborFunc: localtxmonitor.NewMsgFromCbor,
		},
		{
			Type:       ouroboros_mock.EntryTypeOutput,
			ProtocolId: localtxmonitor.ProtocolId,
			IsResponse: true,
			OutputMessages: []protocol.Message{
				localtxmonitor.NewMsgReplyGetSizes(65536, 4096, 3),
			},
		},
	}
	client := newTestClient(t, conversation)
	capacity, size, count, err := client.GetSizes()
	require.NoError(t, err)
	require.Equal(t, uint32(65536), capacity)
	require.Equal(t, uint32(4096), size)
	require.Equal(t, uint32(3), count)
}
