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

package localtxsubmission_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/echelon-labs/ouroboros-net/internal/test/ouroboros_mock"
	"github.com/echelon-labs/ouroboros-net/muxer"
	"github.com/echelon-labs/ouroboros-net/protocol"
	"github.com/echelon-labs/ouroboros-net/protocol/localtxsubmission"
)

func newTestClient(t *testing.T, conversation []ouroboros_mock.ConversationEntry) *localtxsubmission.Client {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mockConn := ouroboros_mock.NewConnection(ouroboros_mock.ProtocolRoleClient, conversation)
	m := muxer.New(mockConn)
	m.Start()
	client := localtxsubmission.NewClient(
		protocol.ProtocolConfig{
			Name:          localtxsubmission.ProtocolName,
			ProtocolId:    localtxsubmission.ProtocolId,
			Muxer:         m,
			ErrorChan:     make(chan error, 10),
			Role:          protocol.RoleClient,
			RecvQueueSize: protocol.DefaultRecvQueueSize,
		},
		localtxsubmission.NewConfig(),
	)
	t.Cleanup(func() {
		_ = client.Stop()
		_ = mockConn.Close()
	})
	return client
}

func TestSubmitTxAccepted(t *testing.T) {
	txBody := []byte{0x83, 0x01, 0x02, 0x03}
	conversation := []ouroboros_mock.ConversationEntry{
		{
			Type:         ouroboros_mock.EntryTypeInput,
			ProtocolId:   localtxsubmission.ProtocolId,
			InputMessage: localtxsubmission.NewMsgSubmitTx(6, txBody),
			MsgFromCborFunc: localtxsubmission.NewMsgFromCbor,
		},
		{
			Type:           ouroboros_mock.EntryTypeOutput,
			ProtocolId:     localtxsubmission.ProtocolId,
			IsResponse:     true,
			OutputMessages: []protocol.Message{localtxsubmission.NewMsgAcceptTx()},
		},
	}
	client := newTestClient(t, conversation)
	err := client.SubmitTx(6, txBody)
	require.NoError(t, err)
}

func TestSubmitTxRejected(t *testing.T) {
	txBody := []byte{0x83, 0x01, 0x02, 0x03}
	reasonCbor := []byte{0x82, 0x00, 0x01}
	conversation := []ouroboros_mock.ConversationEntry{
		{
			Type:         ouroboros_mock.EntryTypeInput,
			ProtocolId:   localtxsubmission.ProtocolId,
			InputMessage: localtxsubmission.NewMsgSubmitTx(6, txBody),
			MsgFromCborFunc: localtxsubmission.NewMsgFromCbor,
		},
		{
			Type:       ouroboros_mock.EntryTypeOutput,
			ProtocolId: localtxsubmission.ProtocolId,
			IsResponse: true,
			OutputMessages: []protocol.Message{
				localtxsubmission.NewMsgRejectTx(reasonCbor),
			},
		},
	}
	client := newTestClient(t, conversation)
	err := client.SubmitTx(6, txBody)
	require.Error(t, err)
	rejected, ok := err.(*localtxsubmission.TxRejectedError)
	require.True(t, ok)
	require.Equal(t, reasonCbor, rejected.ReasonCbor)
}
